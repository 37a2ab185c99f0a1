package fragment

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DeusData/antigravity-autopilot/internal/fixture"
	"github.com/DeusData/antigravity-autopilot/internal/shape"
)

func TestResolveWorkbench(t *testing.T) {
	r := &Resolver{}
	tests := []struct {
		kind      shape.Kind
		ids       map[string]string
		insertion string
	}{
		{
			kind: shape.Terminal,
			ids: map[string]string{
				"assign": "l", "callback": "pe", "arg": "c", "argSet": "c", "argCmp": "c",
				"enum": "Tn", "confirm": "i", "policy": "n", "secure": "r", "effect": "Fe",
			},
			insertion: "_aep=Fe(()=>{n===Tn.EAGER&&!r&&i(!0)},[]),",
		},
		{
			kind: shape.Browser,
			ids: map[string]string{
				"props": "u", "memo": "Ot", "confirm": "a", "deny": "d", "actionEnum": "Ba",
				"callback": "pe", "effect": "Fe",
			},
			insertion: "_abc=Fe(()=>{a()},[a]),",
		},
		{
			kind: shape.FilePerm,
			ids: map[string]string{
				"allow": "m", "callback": "pe", "send": "s", "scope": "Sc", "handler": "t", "effect": "Fe",
			},
			insertion: "_afp=Fe(()=>{s(!0,Sc.CONVERSATION)},[s]),",
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			res, err := r.Resolve(fixture.Workbench, shape.ForKind(tt.kind))
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if diff := cmp.Diff(tt.ids, res.Identifiers); diff != "" {
				t.Errorf("identifiers mismatch (-want +got):\n%s", diff)
			}
			if res.InsertionText != tt.insertion {
				t.Errorf("insertion = %q, want %q", res.InsertionText, tt.insertion)
			}
			if got := fixture.Workbench[res.MatchOffset : res.MatchOffset+len(res.MatchedText)]; got != res.MatchedText {
				t.Errorf("offset %d does not point at the matched text", res.MatchOffset)
			}
		})
	}
}

func TestResolveJetskiAgent(t *testing.T) {
	r := &Resolver{}
	res, err := r.Resolve(fixture.JetskiAgent, shape.ForKind(shape.Terminal))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "_aep=qe(()=>{C===Lk.EAGER&&!D&&F(!0)},[]),"
	if res.InsertionText != want {
		t.Fatalf("insertion = %q, want %q", res.InsertionText, want)
	}

	for _, k := range []shape.Kind{shape.Browser, shape.FilePerm} {
		if _, err := r.Resolve(fixture.JetskiAgent, shape.ForKind(k)); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", k, err)
		}
	}
}

func TestLocateSameAsConstraint(t *testing.T) {
	// The setter argument differs from the compared argument, so this is not the shape.
	text := `x=cb(a=>{h?.setTerminalAutoExecutionPolicy?.(b),a===E.EAGER&&c(!0)},[h])`
	if _, err := Locate(text, shape.ForKind(shape.Terminal)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLocateSkipsRejectedCandidate(t *testing.T) {
	d := shape.ForKind(shape.Terminal)
	bad := `x=cb(a=>{h?.setTerminalAutoExecutionPolicy?.(b),a===E.EAGER&&c(!0)},[h]);`
	good := `y=cb(q=>{h?.setTerminalAutoExecutionPolicy?.(q),q===E.EAGER&&c(!0)},[h])`
	res, err := Locate(bad+good, d)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if res.MatchedText != good || res.MatchOffset != len(bad) {
		t.Fatalf("got %q at %d", res.MatchedText, res.MatchOffset)
	}
}

func TestResolveAmbiguousAnchor(t *testing.T) {
	text := fixture.JetskiAgent + fixture.JetskiAgent
	_, err := (&Resolver{}).Resolve(text, shape.ForKind(shape.Terminal))
	if !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("err = %v, want ErrAmbiguous", err)
	}
}

func TestResolveContextWindow(t *testing.T) {
	re := regexp.MustCompile(`(\w+)=\w+\?\.secureModeEnabled\?\?!1`)
	pre := "D=B?.secureModeEnabled??!1,"
	text := pre + strings.Repeat("x", 100) + "ANCHOR"
	anchor := strings.Index(text, "ANCHOR")

	if got, err := ResolveContext(text, anchor, 2000, re); err != nil || got != "D" {
		t.Fatalf("ResolveContext = %q, %v", got, err)
	}
	if _, err := ResolveContext(text, anchor, 50, re); !errors.Is(err, ErrNotFound) {
		t.Fatalf("outside radius: err = %v, want ErrNotFound", err)
	}
	// Text after the anchor is never consulted.
	after := "ANCHOR" + pre
	if _, err := ResolveContext(after, 0, 2000, re); !errors.Is(err, ErrNotFound) {
		t.Fatalf("forward text: err = %v, want ErrNotFound", err)
	}
}

func TestResolveContextConflict(t *testing.T) {
	re := regexp.MustCompile(`(\w+)=\w+\?\.secureModeEnabled\?\?!1`)
	same := "D=B?.secureModeEnabled??!1;D=B?.secureModeEnabled??!1;"
	if got, err := ResolveContext(same, len(same), 2000, re); err != nil || got != "D" {
		t.Fatalf("repeated identical name: %q, %v", got, err)
	}
	diff := "D=B?.secureModeEnabled??!1;K=B?.secureModeEnabled??!1;"
	if _, err := ResolveContext(diff, len(diff), 2000, re); !errors.Is(err, ErrContextConflict) {
		t.Fatalf("err = %v, want ErrContextConflict", err)
	}
}

func TestDisambiguateAlias(t *testing.T) {
	dis := shape.ForKind(shape.Terminal).Alias
	tests := []struct {
		name     string
		text     string
		excluded []string
		want     string
		score    int
		err      error
	}{
		{
			name:  "confident outweighs generic",
			text:  `xy(()=>{foo()},[a]);xy(()=>{bar()},[b]);xy(()=>{baz()},[c]);zz(()=>{init();return ()=>done()`,
			want:  "zz",
			score: 5,
		},
		{
			name:  "tie resolves lexicographically",
			text:  `cd(()=>{foo()},[a]);ab(()=>{bar()},[b]);`,
			want:  "ab",
			score: 1,
		},
		{
			name:     "excluded names are skipped",
			text:     `pe(()=>{foo()},[a]);pe(()=>{bar()},[b]);Fe(()=>{baz()},[c]);`,
			excluded: []string{"pe"},
			want:     "Fe",
			score:    1,
		},
		{
			name: "keywords are not candidates",
			text: `new(()=>{foo()},[a]);`,
			err:  ErrNotFound,
		},
		{
			name: "no candidates",
			text: `var a=1;`,
			err:  ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			excluded := append(append([]string{}, dis.Exclude...), tt.excluded...)
			got, score, err := DisambiguateAlias(tt.text, len(tt.text)/2, excluded, DefaultAliasRadius, dis)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DisambiguateAlias: %v", err)
			}
			if got != tt.want || score != tt.score {
				t.Fatalf("got %q (%d), want %q (%d)", got, score, tt.want, tt.score)
			}
		})
	}
}

func TestDisambiguateAliasGenericWindow(t *testing.T) {
	dis := shape.ForKind(shape.Terminal).Alias
	far := `ab(()=>{foo()},[a]);ab(()=>{foo()},[a]);`
	text := far + strings.Repeat(" ", 200) + "ANCHOR;" + `cd(()=>{bar()},[b]);`
	anchor := strings.Index(text, "ANCHOR")
	got, _, err := DisambiguateAlias(text, anchor, nil, 100, dis)
	if err != nil || got != "cd" {
		t.Fatalf("got %q, %v; want cd", got, err)
	}
}

func TestIsApplied(t *testing.T) {
	d := shape.ForKind(shape.Terminal)
	res, err := (&Resolver{}).Resolve(fixture.Workbench, d)
	if err != nil {
		t.Fatal(err)
	}
	if IsApplied(fixture.Workbench, d) {
		t.Fatal("pristine text reported as applied")
	}
	patched := Synthesize(res, d).Apply(fixture.Workbench)
	if !IsApplied(patched, d) {
		t.Fatal("patched text not reported as applied")
	}
	// Marker alone is not enough.
	if IsApplied("var _aep=1;", d) {
		t.Fatal("bare marker reported as applied")
	}
	if IsApplied(patched, shape.ForKind(shape.Browser)) {
		t.Fatal("terminal insertion satisfied the browser signature")
	}
}

func TestSynthesizeInsertsBeforeAnchor(t *testing.T) {
	d := shape.ForKind(shape.FilePerm)
	res, err := (&Resolver{}).Resolve(fixture.Workbench, d)
	if err != nil {
		t.Fatal(err)
	}
	p := Synthesize(res, d)
	out := p.Apply(fixture.Workbench)
	if len(out) != len(fixture.Workbench)+len(res.InsertionText) {
		t.Fatalf("patched length %d, want %d", len(out), len(fixture.Workbench)+len(res.InsertionText))
	}
	if !strings.Contains(out, ",_afp=Fe(()=>{s(!0,Sc.CONVERSATION)},[s]),m=pe(") {
		t.Fatal("insertion is not immediately before the anchor")
	}
	if out[:res.MatchOffset] != fixture.Workbench[:res.MatchOffset] {
		t.Fatal("text before the anchor changed")
	}
}

type failingChecker struct{}

func (failingChecker) Check(string) error { return errors.New("unexpected token") }

func TestResolveSyntaxCheck(t *testing.T) {
	r := &Resolver{Checker: failingChecker{}}
	_, err := r.Resolve(fixture.JetskiAgent, shape.ForKind(shape.Terminal))
	if !errors.Is(err, ErrInvalidSyntax) {
		t.Fatalf("err = %v, want ErrInvalidSyntax", err)
	}
}
