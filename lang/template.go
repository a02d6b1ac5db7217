package lang

import (
	"iter"
	"log/slog"
	"strconv"
	"strings"
)

// Template is one named, optionally parametrized unit of a template
// document. Templates are immutable once constructed.
type Template struct {
	Name   string
	Params []string // declared parameter names, in positional order
	Body   Body
	Source string // originating file and line, for diagnostics
}

// Signature returns the declaration form of the template, "name(a, b)".
func (t *Template) Signature() string {
	if len(t.Params) == 0 {
		return t.Name
	}

	return t.Name + "(" + strings.Join(t.Params, ", ") + ")"
}

// Body is the parsed content of a template: either a NormalBody or a
// ConditionalBody.
type Body interface {
	// Alternatives returns the number of selectable alternatives for a
	// normal body, or the number of rules for a conditional body.
	Alternatives() int
}

// NormalBody is an ordered, non-empty set of alternatives. At evaluation
// time exactly one alternative is chosen uniformly at random.
type NormalBody struct {
	Alts []StringTemplate
}

// Alternatives returns the number of selectable alternatives.
func (b *NormalBody) Alternatives() int { return len(b.Alts) }

// ConditionalBody is an ordered sequence of rules. The first rule whose
// guard is absent or truthy is selected; when no rule matches the body
// produces no output.
type ConditionalBody struct {
	Rules []Rule
}

// Alternatives returns the number of rules.
func (b *ConditionalBody) Alternatives() int { return len(b.Rules) }

// Rule pairs an optional guard expression with the content produced when
// the guard matches. An empty Guard marks the unconditional else rule.
type Rule struct {
	Guard string // raw "{...}" span, empty for else
	Then  StringTemplate
}

// StringTemplate is one alternative: an ordered sequence of fragments
// concatenated at evaluation time.
type StringTemplate struct {
	Fragments []Fragment
}

// FragmentKind identifies how a fragment is rendered.
type FragmentKind int

const (
	// FragmentText is literal text whose escape sequences are unescaped
	// when rendered.
	FragmentText FragmentKind = iota

	// FragmentExpr is a "{...}" expression span evaluated against the
	// current scope.
	FragmentExpr

	// FragmentRef is a "[...]" reference to another template.
	FragmentRef

	// FragmentBlock is a triple-backtick literal block with "@{...}"
	// substitutions.
	FragmentBlock
)

// String returns a string representation of the fragment kind.
func (k FragmentKind) String() string {
	switch k {
	case FragmentText:
		return "Text"

	case FragmentExpr:
		return "Expr"

	case FragmentRef:
		return "Ref"

	case FragmentBlock:
		return "Block"

	default:
		return "Unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Fragment is one piece of a string template. Text holds the raw source
// span, delimiters included for expr/ref/block fragments.
type Fragment struct {
	Kind FragmentKind
	Text string
}

// Document is an immutable set of named templates built once at load
// time. Template names are unique: constructing a document from
// duplicate names is a construction error.
type Document struct {
	templates []*Template
	index     map[string]*Template
}

// newDocument builds the name index, rejecting duplicate names.
func newDocument(templates []*Template) (*Document, error) {
	index := make(map[string]*Template, len(templates))

	for _, t := range templates {
		if prev, exists := index[t.Name]; exists {
			return nil, ErrDuplicateTemplate.With(
				slog.String("name", t.Name),
				slog.String("first", prev.Source),
				slog.String("second", t.Source),
			)
		}

		index[t.Name] = t
	}

	return &Document{templates: templates, index: index}, nil
}

// Lookup retrieves a template by name.
// Returns (nil, false) if the template is not found.
func (d *Document) Lookup(name string) (*Template, bool) {
	t, ok := d.index[name]

	return t, ok
}

// Len returns the number of templates in the document.
func (d *Document) Len() int { return len(d.templates) }

// All returns an iterator over the document's templates in declaration
// order.
func (d *Document) All() iter.Seq[*Template] {
	return func(yield func(*Template) bool) {
		for _, t := range d.templates {
			if !yield(t) {
				return
			}
		}
	}
}

// Names returns the template names in declaration order.
func (d *Document) Names() []string {
	names := make([]string, len(d.templates))
	for i, t := range d.templates {
		names[i] = t.Name
	}

	return names
}
