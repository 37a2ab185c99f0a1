// Package worker defines the message-in/message-out contract around the
// engine. The same Handler serves the CLI in-process, the hidden worker
// subcommand over stdin/stdout, and the MCP tools.
package worker

import (
	"github.com/DeusData/antigravity-autopilot/internal/engine"
	"github.com/DeusData/antigravity-autopilot/internal/status"
	"github.com/DeusData/antigravity-autopilot/internal/store"
)

// Commands accepted in a Request.
const (
	CommandStatus  = "status"
	CommandApply   = "apply"
	CommandRevert  = "revert"
	CommandHistory = "history"
)

// Message types. Every exchange is zero or more log messages followed by
// exactly one terminal message.
const (
	TypeLog     = "log"
	TypeStatus  = "status"
	TypeResult  = "result"
	TypeHistory = "history"
)

// Request is one command for the worker.
type Request struct {
	Command string `json:"command"`
	// InstallPath overrides discovery for this request.
	InstallPath string `json:"installPath,omitempty"`
	// Kinds overrides the configured kinds for this request.
	Kinds []string `json:"kinds,omitempty"`
	// Limit bounds history results.
	Limit int `json:"limit,omitempty"`
}

// Result answers apply and revert, and any request that could not run.
type Result struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	BasePath   string              `json:"basePath,omitempty"`
	AppVersion string              `json:"appVersion,omitempty"`
	Files      []engine.FileResult `json:"files,omitempty"`
}

// Message is one JSON line of worker output.
type Message struct {
	Type   string         `json:"type"`
	Event  *engine.Event  `json:"event,omitempty"`
	Status *status.Report `json:"status,omitempty"`
	Result *Result        `json:"result,omitempty"`
	Runs   []*store.Run   `json:"runs,omitempty"`
}

// Terminal reports whether m ends an exchange.
func (m *Message) Terminal() bool {
	return m.Type != TypeLog
}

// OK reports whether the terminal message describes a success. Status and
// history answers are always successful exchanges.
func (m *Message) OK() bool {
	if m.Type == TypeResult {
		return m.Result != nil && m.Result.Success
	}
	return m.Terminal()
}

func failure(msg string) Message {
	return Message{Type: TypeResult, Result: &Result{Success: false, Message: msg}}
}
