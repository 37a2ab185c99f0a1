package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DeusData/antigravity-autopilot/internal/engine"
	"github.com/DeusData/antigravity-autopilot/internal/shape"
	"github.com/DeusData/antigravity-autopilot/internal/status"
	"github.com/DeusData/antigravity-autopilot/internal/store"
	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

// Renderer writes human-readable output. It is safe for concurrent use.
type Renderer struct {
	mu sync.Mutex
	w  io.Writer
	s  Styles
	// Verbose includes debug events.
	Verbose bool
}

// New returns a Renderer writing to w.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w, s: defaultStyles(w)}
}

func (r *Renderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

// Message renders any worker message.
func (r *Renderer) Message(m worker.Message) {
	switch {
	case m.Event != nil:
		r.Event(*m.Event)
	case m.Status != nil:
		r.Status(m.Status)
	case m.Result != nil:
		r.Result(m.Result)
	case m.Type == worker.TypeHistory:
		r.History(m.Runs)
	}
}

// Event renders one progress line.
func (r *Renderer) Event(ev engine.Event) {
	if ev.Level == "debug" && !r.Verbose {
		return
	}
	var prefix string
	switch {
	case ev.Label != "" && ev.Kind != "":
		prefix = "[" + ev.Label + "/" + string(ev.Kind) + "] "
	case ev.Label != "":
		prefix = "[" + ev.Label + "] "
	}
	r.printf("%s%s\n", r.s.Muted.Render(prefix), r.levelStyle(ev.Level).Render(ev.Msg))
}

func (r *Renderer) levelStyle(level string) styleRenderer {
	switch level {
	case "error":
		return r.s.Error
	case "warn":
		return r.s.Warning
	case "debug":
		return r.s.Muted
	}
	return plain{}
}

type styleRenderer interface {
	Render(...string) string
}

type plain struct{}

func (plain) Render(s ...string) string { return strings.Join(s, " ") }

// OutcomeLabel is the short human label of an outcome.
func OutcomeLabel(o engine.Outcome) string {
	switch o {
	case engine.AlreadyPresent:
		return "already patched"
	case engine.NewlyApplied:
		return "applied"
	case engine.NotFound:
		return "pattern not found"
	case engine.Ambiguous:
		return "ambiguous"
	case engine.InvalidSyntax:
		return "invalid syntax"
	case engine.WriteError:
		return "write failed"
	}
	return string(o)
}

func (r *Renderer) outcomeStyle(o engine.Outcome) styleRenderer {
	switch o {
	case engine.AlreadyPresent, engine.NewlyApplied:
		return r.s.Success
	case engine.NotFound:
		return r.s.Warning
	}
	return r.s.Error
}

// Result renders an apply or revert result.
func (r *Renderer) Result(res *worker.Result) {
	var b strings.Builder
	for _, f := range res.Files {
		fmt.Fprintf(&b, "%s %s\n", r.s.Label.Render(f.Label), r.s.Path.Render(f.Path))
		switch {
		case f.Err != "":
			fmt.Fprintf(&b, "  %s\n", r.s.Error.Render(f.Err))
		case !f.Exists:
			fmt.Fprintf(&b, "  %s\n", r.s.Muted.Render("not present"))
		case f.Reverted:
			fmt.Fprintf(&b, "  %s\n", r.s.Success.Render("reverted from backup"))
		case f.Skipped:
			fmt.Fprintf(&b, "  %s\n", r.s.Muted.Render("no backup"))
		}
		for _, k := range f.Kinds {
			line := fmt.Sprintf("  %-9s %s", k.Kind, r.outcomeStyle(k.Outcome).Render(OutcomeLabel(k.Outcome)))
			if k.Detail != "" && k.Outcome.Failed() {
				line += " " + r.s.Muted.Render("("+k.Detail+")")
			}
			b.WriteString(line + "\n")
		}
		if f.Written {
			fmt.Fprintf(&b, "  %s\n", r.s.Muted.Render(fmt.Sprintf("written, +%d bytes", f.BytesAdded)))
		}
	}
	style := r.s.Success
	if !res.Success {
		style = r.s.Error
	}
	b.WriteString(style.Render(res.Message) + "\n")
	r.printf("%s", b.String())
}

// Status renders a status report.
func (r *Renderer) Status(rep *status.Report) {
	var b strings.Builder
	if !rep.Installed() {
		b.WriteString(r.s.Error.Render(worker.NotFoundMessage) + "\n")
		r.printf("%s", b.String())
		return
	}
	fmt.Fprintf(&b, "%s %s\n", r.s.Title.Render("Antigravity"), r.s.Muted.Render(rep.AppVersion))
	fmt.Fprintf(&b, "%s\n", r.s.Path.Render(rep.BasePath))
	for _, f := range rep.Files {
		fmt.Fprintf(&b, "%s %s\n", r.s.Label.Render(f.Label), r.s.Path.Render(f.Path))
		if !f.Exists {
			fmt.Fprintf(&b, "  %s\n", r.s.Muted.Render("not present"))
			continue
		}
		if f.Err != "" {
			fmt.Fprintf(&b, "  %s\n", r.s.Error.Render(f.Err))
			continue
		}
		for _, k := range sortedKinds(f.PatchDetails) {
			var state string
			switch {
			case f.PatchDetails[k]:
				state = r.s.Success.Render("patched")
			case f.Patchable[k]:
				state = r.s.Info.Render("not patched (patchable)")
			default:
				state = r.s.Warning.Render("not patched (pattern not found)")
			}
			fmt.Fprintf(&b, "  %-9s %s\n", k, state)
		}
		backup := "no backup"
		if f.HasBackup {
			backup = "backup present"
		}
		fmt.Fprintf(&b, "  %s\n", r.s.Muted.Render(backup))
	}
	switch {
	case rep.Complete():
		b.WriteString(r.s.Success.Render("Fully patched.") + "\n")
	case rep.Patched():
		b.WriteString(r.s.Warning.Render("Partially patched.") + "\n")
	default:
		b.WriteString(r.s.Warning.Render("Not patched.") + "\n")
	}
	r.printf("%s", b.String())
}

// sortedKinds orders kinds the way they are applied.
func sortedKinds(m map[shape.Kind]bool) []shape.Kind {
	order := make(map[shape.Kind]int)
	for i, d := range shape.Descriptors(nil) {
		order[d.Kind] = i
	}
	out := make([]shape.Kind, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}

// History renders recorded runs, newest first.
func (r *Renderer) History(runs []*store.Run) {
	var b strings.Builder
	if len(runs) == 0 {
		b.WriteString(r.s.Muted.Render("No runs recorded.") + "\n")
	}
	for _, run := range runs {
		style := r.s.Success
		if !run.Success {
			style = r.s.Error
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			r.s.Muted.Render(run.StartedAt.Local().Format(time.DateTime)),
			r.s.Title.Render(fmt.Sprintf("%-6s", run.Command)),
			style.Render(run.Message),
			r.s.Muted.Render(run.AppVersion))
		for _, f := range run.Files {
			var parts []string
			for _, o := range f.Outcomes {
				parts = append(parts, o.Kind+"="+OutcomeLabel(engine.Outcome(o.Outcome)))
			}
			if f.Err != "" {
				parts = append(parts, r.s.Error.Render(f.Err))
			}
			if len(parts) > 0 {
				fmt.Fprintf(&b, "  %s %s\n", r.s.Label.Render(f.Label), strings.Join(parts, ", "))
			}
		}
	}
	r.printf("%s", b.String())
}
