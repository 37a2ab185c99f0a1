// Package tools exposes the worker protocol as MCP tools.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp    *mcp.Server
	runner worker.Runner
}

// NewServer creates a new MCP server with all tools registered. Every tool call
// is one request to runner.
func NewServer(runner worker.Runner, version string) *Server {
	srv := &Server{
		runner: runner,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "antigravity-autopilot",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "patch_status",
		Description: "Report, per bundle file and per fragment kind (terminal, browser, fileperm), whether the auto-accept patch is present, whether a missing kind could be applied, and whether a backup exists. Never modifies files.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"install_path": {
					"type": "string",
					"description": "Antigravity installation directory. If omitted, the configured or discovered installation is used."
				}
			}
		}`),
	}, s.handlePatchStatus)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "apply_patch",
		Description: "Apply the auto-accept patch to every bundle file. Kinds already present are left alone; the original file is backed up once before the first write. Antigravity must be restarted afterwards.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"install_path": {
					"type": "string",
					"description": "Antigravity installation directory. If omitted, the configured or discovered installation is used."
				},
				"kinds": {
					"type": "array",
					"items": {"type": "string", "enum": ["terminal", "browser", "fileperm"]},
					"description": "Fragment kinds to apply (default: all configured kinds)"
				}
			}
		}`),
	}, s.handleApplyPatch)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "revert_patch",
		Description: "Restore every bundle file from its backup. Files without a backup are skipped.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"install_path": {
					"type": "string",
					"description": "Antigravity installation directory. If omitted, the configured or discovered installation is used."
				}
			}
		}`),
	}, s.handleRevertPatch)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "patch_history",
		Description: "List recent apply and revert runs, newest first, with per-file and per-kind outcomes and the application version at the time.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {
					"type": "integer",
					"description": "Max runs (default 10)"
				}
			}
		}`),
	}, s.handlePatchHistory)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getStringSliceArg extracts a string array argument, ignoring non-strings.
func getStringSliceArg(args map[string]any, key string) []string {
	v, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
