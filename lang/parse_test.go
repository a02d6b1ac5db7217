package lang

import (
	"errors"
	"strings"
	"testing"
)

func parse(t *testing.T, src string, opts ...ParseOption) *Document {
	t.Helper()

	doc, err := ParseString(t.Context(), src, opts...)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	return doc
}

func TestParseSimpleTemplate(t *testing.T) {
	doc := parse(t, "#greet(name)\n- Hello, {name}!\n")

	if doc.Len() != 1 {
		t.Fatalf("expected 1 template, got %d", doc.Len())
	}

	tmpl, found := doc.Lookup("greet")
	if !found {
		t.Fatal("greet not found")
	}

	if len(tmpl.Params) != 1 || tmpl.Params[0] != "name" {
		t.Errorf("unexpected params %v", tmpl.Params)
	}

	body, ok := tmpl.Body.(*NormalBody)
	if !ok {
		t.Fatalf("expected normal body, got %T", tmpl.Body)
	}

	if len(body.Alts) != 1 {
		t.Fatalf("expected 1 alternative, got %d", len(body.Alts))
	}
}

func TestParseDottedName(t *testing.T) {
	doc := parse(t, "#bot.greeting.morning\n- Good morning\n")

	if _, found := doc.Lookup("bot.greeting.morning"); !found {
		t.Errorf("dotted name not registered: %v", doc.Names())
	}
}

func TestParseMultipleAlternatives(t *testing.T) {
	doc := parse(t, "#mood\n- happy\n- sad\n- tired\n")

	tmpl, _ := doc.Lookup("mood")

	if got := tmpl.Body.Alternatives(); got != 3 {
		t.Errorf("expected 3 alternatives, got %d", got)
	}
}

func TestParseConditionalBody(t *testing.T) {
	doc := parse(t, strings.Join([]string{
		"#status(count)",
		"- IF: {count == 0} queue is empty",
		"- ELSEIF: {count == 1} one item waiting",
		"- ELSE: {count} items waiting",
		"",
	}, "\n"))

	tmpl, _ := doc.Lookup("status")

	body, ok := tmpl.Body.(*ConditionalBody)
	if !ok {
		t.Fatalf("expected conditional body, got %T", tmpl.Body)
	}

	if len(body.Rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(body.Rules))
	}

	if body.Rules[0].Guard != "{count == 0}" {
		t.Errorf("rule 0 guard %q", body.Rules[0].Guard)
	}

	if body.Rules[2].Guard != "" {
		t.Errorf("else rule carries guard %q", body.Rules[2].Guard)
	}

	// The else branch keeps its own fragments after the keyword.
	if len(body.Rules[2].Then.Fragments) == 0 {
		t.Error("else rule has no fragments")
	}
}

func TestParseFragmentKinds(t *testing.T) {
	doc := parse(t, "#line\n- pre {expr} [ref] ```block``` post\n")

	tmpl, _ := doc.Lookup("line")
	frags := tmpl.Body.(*NormalBody).Alts[0].Fragments

	var kinds []FragmentKind
	for _, f := range frags {
		kinds = append(kinds, f.Kind)
	}

	want := []FragmentKind{
		FragmentText, FragmentText, FragmentExpr, FragmentText,
		FragmentRef, FragmentText, FragmentBlock, FragmentText,
		FragmentText,
	}

	if len(kinds) != len(want) {
		t.Fatalf("expected %d fragments %v, got %v", len(want), want, kinds)
	}

	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("fragment %d: expected %v, got %v (%q)",
				i, want[i], kinds[i], frags[i].Text)
		}
	}
}

func TestParseSourceLabel(t *testing.T) {
	doc := parse(t, "\n\n#a\n- x\n", WithSourceLabel("fixtures/a.tmpl"))

	tmpl, _ := doc.Lookup("a")
	if tmpl.Source != "fixtures/a.tmpl:3" {
		t.Errorf("unexpected source %q", tmpl.Source)
	}
}

func TestParseNoTrailingNewline(t *testing.T) {
	doc := parse(t, "#a\n- hi")

	tmpl, _ := doc.Lookup("a")
	if got := tmpl.Body.Alternatives(); got != 1 {
		t.Errorf("expected 1 alternative, got %d", got)
	}
}

func TestParseSignature(t *testing.T) {
	doc := parse(t, "#pair(a, b)\n- x\n#solo\n- y\n")

	tmpl, _ := doc.Lookup("pair")
	if got := tmpl.Signature(); got != "pair(a, b)" {
		t.Errorf("signature %q", got)
	}

	tmpl, _ = doc.Lookup("solo")
	if got := tmpl.Signature(); got != "solo" {
		t.Errorf("signature %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		src  string
		want error
	}{
		{"orphan body", "- no declaration\n", ErrOrphanBody},
		{"missing name", "#\n- x\n", ErrMissingName},
		{"missing name params only", "#(a)\n- x\n", ErrMissingName},
		{"unclosed params", "#a(b\n- x\n", ErrMalformedParams},
		{"empty body", "#a\n#b\n- x\n", ErrEmptyBody},
		{"trailing empty body", "#a\n- x\n#b\n", ErrEmptyBody},
		{"duplicate", "#a\n- x\n#a\n- y\n", ErrDuplicateTemplate},
		{"mixed plain then guarded", "#a\n- plain\n- IF: {x} y\n", ErrMixedBody},
		{"mixed guarded then plain", "#a\n- IF: {x} y\n- plain\n", ErrMixedBody},
		{"dangling else", "#a\n- ELSE: y\n", ErrDanglingElse},
		{"dangling elseif", "#a\n- ELSEIF: {x} y\n", ErrDanglingElse},
		{"missing guard", "#a\n- IF: no expression\n", ErrMissingGuard},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(t.Context(), tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseDuplicateReportsBothSources(t *testing.T) {
	_, err := ParseString(t.Context(), "#a\n- x\n#a\n- y\n",
		WithSourceLabel("dup.tmpl"))
	if err == nil {
		t.Fatal("expected duplicate error")
	}

	msg := err.Error()
	for _, frag := range []string{"dup.tmpl:1", "dup.tmpl:3"} {
		if !strings.Contains(msg, frag) {
			t.Errorf("error %q does not mention %s", msg, frag)
		}
	}
}

func TestParseReader(t *testing.T) {
	doc, err := ParseReader(t.Context(), strings.NewReader("#a\n- hi\n"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if doc.Len() != 1 {
		t.Errorf("expected 1 template, got %d", doc.Len())
	}
}

func TestParseAllPreservesOrder(t *testing.T) {
	doc := parse(t, "#z\n- 1\n#a\n- 2\n#m\n- 3\n")

	var names []string
	for tmpl := range doc.All() {
		names = append(names, tmpl.Name)
	}

	want := []string{"z", "a", "m"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, names)
		}
	}
}
