package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DeusData/antigravity-autopilot/internal/config"
	"github.com/DeusData/antigravity-autopilot/internal/discover"
	"github.com/DeusData/antigravity-autopilot/internal/engine"
	"github.com/DeusData/antigravity-autopilot/internal/fragment"
	"github.com/DeusData/antigravity-autopilot/internal/parser"
	"github.com/DeusData/antigravity-autopilot/internal/shape"
	"github.com/DeusData/antigravity-autopilot/internal/status"
	"github.com/DeusData/antigravity-autopilot/internal/store"
)

// NotFoundMessage is the result message when no installation is found.
const NotFoundMessage = "Antigravity not found. Make sure it is installed."

// historyKeep bounds the number of recorded runs.
const historyKeep = 500

// Handler executes requests. Store and Cache are optional.
type Handler struct {
	Config *config.Config
	Store  *store.Store
	Cache  *status.Cache
}

// Runner executes one request and reports log messages through onLog.
// Local runs the Handler in-process; Client runs it in a subprocess.
type Runner interface {
	Do(ctx context.Context, req Request, onLog func(Message)) (Message, error)
}

// Local is a Runner that calls the Handler directly.
type Local struct {
	Handler *Handler
}

// Do implements Runner.
func (l Local) Do(ctx context.Context, req Request, onLog func(Message)) (Message, error) {
	return l.Handler.Handle(ctx, req, onLog), nil
}

// Handle executes req, emitting log messages, and returns the terminal message.
func (h *Handler) Handle(ctx context.Context, req Request, emit func(Message)) Message {
	if emit == nil {
		emit = func(Message) {}
	}
	cfg := h.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if req.Command == CommandHistory {
		return h.history(req)
	}

	kinds, err := h.kinds(cfg, req)
	if err != nil {
		return failure(err.Error())
	}

	override := req.InstallPath
	if override == "" {
		override = cfg.InstallPath
	}
	base := discover.FindInstallation(override)

	eng := engine.New(engine.Options{
		Kinds: kinds,
		Locator: &fragment.Resolver{
			ContextRadius: cfg.EffectiveContextRadius(),
			AliasRadius:   cfg.EffectiveAliasRadius(),
			Checker:       parser.Checker{},
		},
		OnEvent: func(ev engine.Event) {
			emit(Message{Type: TypeLog, Event: &ev})
		},
	})

	switch req.Command {
	case CommandStatus:
		rep := h.status(ctx, eng, base)
		return Message{Type: TypeStatus, Status: &rep}
	case CommandApply, CommandRevert:
		if base == "" {
			h.status(ctx, eng, base)
			return failure(NotFoundMessage)
		}
		return h.run(ctx, eng, req.Command, base, emit)
	default:
		return failure(fmt.Sprintf("unknown command: %q", req.Command))
	}
}

func (h *Handler) kinds(cfg *config.Config, req Request) ([]shape.Kind, error) {
	if len(req.Kinds) == 0 {
		return cfg.EffectiveKinds()
	}
	out := make([]shape.Kind, 0, len(req.Kinds))
	for _, s := range req.Kinds {
		k, err := shape.ParseKind(s)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// status builds a report and refreshes the cache.
func (h *Handler) status(ctx context.Context, eng *engine.Engine, base string) status.Report {
	rep := status.Report{BasePath: base}
	if base != "" {
		rep.AppVersion = discover.AppVersion(base)
		rep.Files = eng.Status(ctx, discover.Targets(base))
	}
	if h.Cache != nil {
		h.Cache.Store(rep)
	}
	return rep
}

func (h *Handler) run(ctx context.Context, eng *engine.Engine, command, base string, emit func(Message)) Message {
	version := discover.AppVersion(base)
	targets := discover.Targets(base)
	emit(Message{Type: TypeLog, Event: &engine.Event{Level: "info", Msg: "Antigravity version: " + version}})

	var run engine.RunResult
	if command == CommandApply {
		h.noteExternalChanges(ctx, eng, targets, version, emit)
		run = eng.Apply(ctx, targets)
	} else {
		run = eng.Revert(ctx, targets)
	}

	h.record(command, base, version, run)
	h.status(ctx, eng, base)

	return Message{Type: TypeResult, Result: &Result{
		Success:    run.Success,
		Message:    run.Message,
		BasePath:   base,
		AppVersion: version,
		Files:      run.Files,
	}}
}

// noteExternalChanges reports targets whose content no longer matches the hash
// written by the last apply: the application replaced the file.
func (h *Handler) noteExternalChanges(ctx context.Context, eng *engine.Engine, targets []discover.Target, version string, emit func(Message)) {
	if h.Store == nil {
		return
	}
	for _, t := range targets {
		prev, err := h.Store.GetFileHash(t.Path)
		if err != nil || prev == nil {
			continue
		}
		st := eng.FileStatus(ctx, t)
		if !st.Exists || st.Hash == prev.Hash {
			continue
		}
		msg := "file changed since the last patch"
		switch c := discover.CompareVersions(version, prev.AppVersion); {
		case c > 0:
			msg = fmt.Sprintf("application updated from %s to %s; re-applying", prev.AppVersion, version)
		case c < 0:
			msg = fmt.Sprintf("application downgraded from %s to %s; re-applying", prev.AppVersion, version)
		}
		slog.Info("worker.target.changed", "label", t.Label, "prev_version", prev.AppVersion, "version", version)
		emit(Message{Type: TypeLog, Event: &engine.Event{Level: "info", Label: t.Label, Msg: msg}})
	}
}

func (h *Handler) record(command, base, version string, run engine.RunResult) {
	if h.Store == nil {
		return
	}
	r := &store.Run{
		Command:    command,
		BasePath:   base,
		AppVersion: version,
		Success:    run.Success,
		Message:    run.Message,
	}
	for _, f := range run.Files {
		rf := store.RunFile{
			Label: f.Label, Path: f.Path, Exists: f.Exists, Written: f.Written,
			Reverted: f.Reverted, Skipped: f.Skipped, BytesAdded: f.BytesAdded, Hash: f.Hash, Err: f.Err,
		}
		for _, k := range f.Kinds {
			rf.Outcomes = append(rf.Outcomes, store.KindOutcome{Kind: string(k.Kind), Outcome: string(k.Outcome), Detail: k.Detail})
		}
		r.Files = append(r.Files, rf)

		var err error
		switch {
		case f.Written:
			err = h.Store.UpsertFileHash(f.Path, f.Hash, version)
		case f.Reverted:
			err = h.Store.DeleteFileHash(f.Path)
		}
		if err != nil {
			slog.Warn("worker.hash.err", "label", f.Label, "err", err)
		}
	}
	if err := h.Store.RecordRun(r); err != nil {
		slog.Warn("worker.history.err", "err", err)
		return
	}
	if n, err := h.Store.PruneRuns(historyKeep); err != nil {
		slog.Warn("worker.history.prune.err", "err", err)
	} else if n > 0 {
		slog.Debug("worker.history.pruned", "runs", n)
	}
}

func (h *Handler) history(req Request) Message {
	if h.Store == nil {
		return failure("history is disabled")
	}
	runs, err := h.Store.RecentRuns(req.Limit)
	if err != nil {
		return failure(err.Error())
	}
	return Message{Type: TypeHistory, Runs: runs}
}
