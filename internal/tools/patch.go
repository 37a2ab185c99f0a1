package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

const defaultHistoryLimit = 10

func (s *Server) handlePatchStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return s.do(ctx, worker.Request{
		Command:     worker.CommandStatus,
		InstallPath: getStringArg(args, "install_path"),
	}), nil
}

func (s *Server) handleApplyPatch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return s.do(ctx, worker.Request{
		Command:     worker.CommandApply,
		InstallPath: getStringArg(args, "install_path"),
		Kinds:       getStringSliceArg(args, "kinds"),
	}), nil
}

func (s *Server) handleRevertPatch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return s.do(ctx, worker.Request{
		Command:     worker.CommandRevert,
		InstallPath: getStringArg(args, "install_path"),
	}), nil
}

func (s *Server) handlePatchHistory(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	limit := getIntArg(args, "limit", defaultHistoryLimit)
	if limit <= 0 {
		return errResult(fmt.Sprintf("limit must be positive, got %d", limit)), nil
	}
	return s.do(ctx, worker.Request{Command: worker.CommandHistory, Limit: limit}), nil
}

// do runs req and answers with its terminal message. Log messages go to slog;
// stdout belongs to the MCP transport.
func (s *Server) do(ctx context.Context, req worker.Request) *mcp.CallToolResult {
	msg, err := s.runner.Do(ctx, req, func(m worker.Message) {
		if m.Event != nil {
			slog.Info("tools.log", "command", req.Command, "label", m.Event.Label, "kind", m.Event.Kind, "msg", m.Event.Msg)
		}
	})
	if err != nil {
		return errResult(fmt.Sprintf("%s: %v", req.Command, err))
	}
	res := jsonResult(msg)
	res.IsError = !msg.OK()
	return res
}
