package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/antigravity-autopilot/internal/engine"
	"github.com/DeusData/antigravity-autopilot/internal/fixture"
	"github.com/DeusData/antigravity-autopilot/internal/shape"
	"github.com/DeusData/antigravity-autopilot/internal/store"
	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return NewServer(worker.Local{Handler: &worker.Handler{Store: s}}, "test")
}

func call(args string) *mcp.CallToolRequest {
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(args)}}
}

func decode(t *testing.T, res *mcp.CallToolResult) worker.Message {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	var msg worker.Message
	if err := json.Unmarshal([]byte(tc.Text), &msg); err != nil {
		t.Fatalf("decode %q: %v", tc.Text, err)
	}
	return msg
}

func TestPatchToolsRoundTrip(t *testing.T) {
	base := fixture.Install(t, nil)
	srv := newServer(t)
	ctx := context.Background()
	pathArg := `{"install_path":` + quote(base) + `}`

	res, err := srv.handlePatchStatus(ctx, call(pathArg))
	if err != nil || res.IsError {
		t.Fatalf("patch_status: %v %+v", err, res)
	}
	if st := decode(t, res).Status; st == nil || st.Patched() || len(st.Files) != 2 {
		t.Fatalf("status = %+v", st)
	}

	res, err = srv.handleApplyPatch(ctx, call(pathArg))
	if err != nil || res.IsError {
		t.Fatalf("apply_patch: %v %+v", err, res)
	}
	if r := decode(t, res).Result; r == nil || !r.Success || r.BasePath != base {
		t.Fatalf("apply result = %+v", r)
	}

	res, _ = srv.handlePatchStatus(ctx, call(pathArg))
	if st := decode(t, res).Status; !st.Patched() {
		t.Fatalf("status after apply = %+v", st)
	}

	res, err = srv.handleRevertPatch(ctx, call(pathArg))
	if err != nil || res.IsError {
		t.Fatalf("revert_patch: %v %+v", err, res)
	}

	res, err = srv.handlePatchHistory(ctx, call(`{"limit":5}`))
	if err != nil || res.IsError {
		t.Fatalf("patch_history: %v %+v", err, res)
	}
	runs := decode(t, res).Runs
	if len(runs) != 2 || runs[0].Command != worker.CommandRevert || runs[1].Command != worker.CommandApply {
		t.Fatalf("runs = %+v", runs)
	}
}

func TestApplyPatchKinds(t *testing.T) {
	base := fixture.Install(t, nil)
	srv := newServer(t)

	res, err := srv.handleApplyPatch(context.Background(), call(`{"install_path":`+quote(base)+`,"kinds":["fileperm"]}`))
	if err != nil || res.IsError {
		t.Fatalf("apply_patch: %v %+v", err, res)
	}
	kinds := decode(t, res).Result.Files[0].Kinds
	if len(kinds) != 1 || kinds[0].Kind != shape.FilePerm || kinds[0].Outcome != engine.NewlyApplied {
		t.Fatalf("kinds = %+v", kinds)
	}
}

func TestApplyPatchNotInstalled(t *testing.T) {
	srv := newServer(t)
	missing := filepath.Join(t.TempDir(), "missing")

	res, err := srv.handleApplyPatch(context.Background(), call(`{"install_path":`+quote(missing)+`}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	if r := decode(t, res).Result; r.Message != worker.NotFoundMessage {
		t.Errorf("message = %q", r.Message)
	}
}

func TestPatchHistoryInvalidLimit(t *testing.T) {
	res, err := newServer(t).handlePatchHistory(context.Background(), call(`{"limit":0}`))
	if err != nil || !res.IsError {
		t.Fatalf("expected error result, got %v %+v", err, res)
	}
}

func TestInvalidArguments(t *testing.T) {
	res, err := newServer(t).handleApplyPatch(context.Background(), call(`[1,2`))
	if err != nil || !res.IsError {
		t.Fatalf("expected error result, got %v %+v", err, res)
	}
	tc := res.Content[0].(*mcp.TextContent)
	if !strings.HasPrefix(tc.Text, "invalid arguments") {
		t.Errorf("text = %q", tc.Text)
	}
}

func TestGetStringSliceArg(t *testing.T) {
	args := map[string]any{"kinds": []any{"terminal", 3.0, "browser"}, "bad": "terminal"}
	if got := getStringSliceArg(args, "kinds"); len(got) != 2 || got[0] != "terminal" || got[1] != "browser" {
		t.Errorf("kinds = %v", got)
	}
	if got := getStringSliceArg(args, "bad"); got != nil {
		t.Errorf("bad = %v", got)
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
