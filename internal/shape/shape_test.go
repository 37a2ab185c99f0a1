package shape

import (
	"regexp"
	"strings"
	"testing"
)

func TestRegisteredDescriptorsValidate(t *testing.T) {
	for _, k := range AllKinds() {
		d := ForKind(k)
		if d == nil {
			t.Fatalf("kind %s not registered", k)
		}
		if err := d.Validate(); err != nil {
			t.Errorf("%s: %v", k, err)
		}
	}
}

func TestMarkersAreUnique(t *testing.T) {
	seen := make(map[string]Kind)
	for _, d := range Descriptors(nil) {
		if prev, ok := seen[d.Signature.Marker]; ok {
			t.Fatalf("marker %q shared by %s and %s", d.Signature.Marker, prev, d.Kind)
		}
		seen[d.Signature.Marker] = d.Kind
	}
}

func TestInsertionMatchesOwnSignature(t *testing.T) {
	ids := map[string]string{
		RoleEffect: "Fe", RoleConfirm: "i", "policy": "n", "enum": "Tn", "secure": "r",
		"send": "s", "scope": "Sc",
	}
	for _, d := range Descriptors(nil) {
		text := d.Insert(ids)
		if !strings.HasPrefix(text, d.Signature.Marker) {
			t.Errorf("%s: insertion %q does not start with marker %q", d.Kind, text, d.Signature.Marker)
		}
		if !d.Signature.Verify.MatchString(text) {
			t.Errorf("%s: insertion %q does not satisfy its verification pattern", d.Kind, text)
		}
		if !strings.HasSuffix(text, ",") {
			t.Errorf("%s: insertion %q must end with a declaration separator", d.Kind, text)
		}
	}
}

func TestTerminalInsertion(t *testing.T) {
	got := ForKind(Terminal).Insert(map[string]string{
		RoleEffect: "Fe", "policy": "n", "enum": "Tn", "secure": "r", RoleConfirm: "i",
	})
	want := "_aep=Fe(()=>{n===Tn.EAGER&&!r&&i(!0)},[]),"
	if got != want {
		t.Fatalf("insert = %q, want %q", got, want)
	}
}

func TestContextCompileQuotesIdentifiers(t *testing.T) {
	c := ContextPattern{Role: "policy", Template: `(\w+)=\w+\?\.terminalAutoExecutionPolicy\?\?{{enum}}\.OFF`}
	re, err := c.Compile(map[string]string{"enum": "a$"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !re.MatchString("x=h?.terminalAutoExecutionPolicy??a$.OFF") {
		t.Fatalf("compiled pattern %q did not match", re)
	}
	if re.MatchString("x=h?.terminalAutoExecutionPolicy??a.OFF") {
		t.Fatalf("compiled pattern %q matched a different identifier", re)
	}
}

func TestContextCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		c    ContextPattern
		ids  map[string]string
	}{
		{"missing slot", ContextPattern{Role: "x", Template: `(\w+)={{enum}}`}, map[string]string{}},
		{"no group", ContextPattern{Role: "x", Template: `\w+={{enum}}`}, map[string]string{"enum": "E"}},
		{"two groups", ContextPattern{Role: "x", Template: `(\w+)=(\w+)`}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.c.Compile(tt.ids); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidateRejectsForwardReference(t *testing.T) {
	d := &Descriptor{
		Kind:   "bogus",
		Anchor: regexp.MustCompile(`(?P<a>\w+)=1`),
		Context: []ContextPattern{
			{Role: "b", Template: `(\w+)={{c}}`},
			{Role: "c", Template: `(\w+)=2`},
		},
		Signature: Signature{Marker: "_zz=", Verify: regexp.MustCompile(`_zz=`)},
		Insert:    func(map[string]string) string { return "" },
	}
	if err := d.Validate(); err == nil {
		t.Fatal("expected forward reference to be rejected")
	}
}

func TestValidateRejectsUnknownUse(t *testing.T) {
	d := &Descriptor{
		Kind:      "bogus",
		Anchor:    regexp.MustCompile(`(?P<a>\w+)=1`),
		Signature: Signature{Marker: "_zz=", Verify: regexp.MustCompile(`_zz=`)},
		Uses:      []string{"effect"},
		Insert:    func(map[string]string) string { return "" },
	}
	if err := d.Validate(); err == nil {
		t.Fatal("expected use of unresolved effect role to be rejected")
	}
}

func TestDescriptorsFilterKeepsOrder(t *testing.T) {
	got := Descriptors([]Kind{FilePerm, Terminal})
	if len(got) != 2 || got[0].Kind != Terminal || got[1].Kind != FilePerm {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Browser "); err != nil || k != Browser {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("nope"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
