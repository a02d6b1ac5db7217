package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/klauspost/readahead"

	"github.com/ardnew/parley/log"
)

// ParseOption configures document parsing.
type ParseOption func(*parser)

// WithSourceLabel sets the label recorded on each parsed template for
// diagnostics, typically the originating file name.
func WithSourceLabel(label string) ParseOption {
	return func(p *parser) {
		p.label = label
	}
}

// WithParseLogger sets the structured logger used for trace-level parse
// diagnostics. The zero-value logger is a no-op.
func WithParseLogger(logger log.Logger) ParseOption {
	return func(p *parser) {
		p.logger = logger
	}
}

// ParseReader parses a template document from an io.Reader.
// The reader is wrapped with asynchronous read-ahead so input is
// pre-fetched while earlier chunks are scanned.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...ParseOption,
) (*Document, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return ParseString(ctx, string(data), opts...)
}

// ParseString parses a template document from a string.
func ParseString(
	ctx context.Context,
	source string,
	opts ...ParseOption,
) (*Document, error) {
	p := &parser{label: "<input>"}
	for _, opt := range opts {
		opt(p)
	}

	tokens, err := newLexer(source).scan()
	if err != nil {
		return nil, err
	}

	p.tokens = tokens

	templates, err := p.parseTemplates()
	if err != nil {
		return nil, err
	}

	doc, err := newDocument(templates)
	if err != nil {
		return nil, err
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.String("source", p.label),
		slog.Int("template_count", doc.Len()),
	)

	return doc, nil
}

// parser groups the token stream into template definitions.
type parser struct {
	tokens []Token
	pos    int
	label  string
	logger log.Logger
}

func (p *parser) eof() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() Token { return p.tokens[p.pos] }

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	p.pos++

	return tok
}

// at reports whether the next token has the given kind.
func (p *parser) at(kind Kind) bool {
	return !p.eof() && p.peek().Kind == kind
}

// expect consumes the next token when it has the given kind.
func (p *parser) expect(kind Kind) (Token, bool) {
	if !p.at(kind) {
		return Token{}, false
	}

	return p.next(), true
}

func (p *parser) position(tok Token) []slog.Attr {
	return []slog.Attr{
		slog.String("source", p.label),
		slog.Int("line", tok.Line),
		slog.Int("col", tok.Col),
	}
}

// parseTemplates consumes the stream: each '#' opens a declaration, each
// '-' adds a body line to the template most recently declared.
func (p *parser) parseTemplates() ([]*Template, error) {
	var (
		templates []*Template
		current   *builder
	)

	flush := func() error {
		if current == nil {
			return nil
		}

		t, err := current.finish()
		if err != nil {
			return err
		}

		templates = append(templates, t)
		current = nil

		return nil
	}

	for !p.eof() {
		switch tok := p.next(); tok.Kind {
		case KindHash:
			if err := flush(); err != nil {
				return nil, err
			}

			b, err := p.parseDeclaration(tok)
			if err != nil {
				return nil, err
			}

			current = b

		case KindDash:
			if current == nil {
				return nil, ErrOrphanBody.With(p.position(tok)...)
			}

			if err := p.parseBodyLine(current, tok); err != nil {
				return nil, err
			}

		case KindNewline:
			// Blank structure between templates.

		default:
			return nil, ErrInvalidToken.With(
				append(p.position(tok), slog.String("token", tok.Kind.String()))...,
			)
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return templates, nil
}

// parseDeclaration reads the name and optional parameter group following
// a '#'. Dotted names like "bot.greeting" are joined into one name.
func (p *parser) parseDeclaration(hash Token) (*builder, error) {
	var name strings.Builder

	for {
		if tok, ok := p.expect(KindIdentifier); ok {
			name.WriteString(tok.Text)

			if _, ok := p.expect(KindDot); ok {
				name.WriteString(".")

				continue
			}
		}

		break
	}

	if name.Len() == 0 {
		return nil, ErrMissingName.With(p.position(hash)...)
	}

	b := &builder{
		name:   name.String(),
		source: p.label + ":" + strconv.Itoa(hash.Line),
	}

	if _, open := p.expect(KindLParen); open {
		params, err := p.parseParams()
		if err != nil {
			return nil, err
		}

		b.params = params
	}

	// The declaration ends at the newline; EOF is tolerated so a final
	// declaration without body still parses (and fails later as empty).
	if _, ok := p.expect(KindNewline); !ok && !p.eof() {
		return nil, ErrMalformedParams.With(p.position(p.peek())...)
	}

	return b, nil
}

// parseParams reads a comma-separated identifier list up to ')'.
func (p *parser) parseParams() ([]string, error) {
	var params []string

	if _, ok := p.expect(KindRParen); ok {
		return nil, nil
	}

	for {
		tok, ok := p.expect(KindIdentifier)
		if !ok {
			if p.eof() {
				return nil, ErrMalformedParams.With(slog.String("source", p.label))
			}

			return nil, ErrMalformedParams.With(p.position(p.peek())...)
		}

		params = append(params, tok.Text)

		if _, ok := p.expect(KindComma); ok {
			continue
		}

		if _, ok := p.expect(KindRParen); ok {
			return params, nil
		}

		if p.eof() {
			return nil, ErrMalformedParams.With(slog.String("source", p.label))
		}

		return nil, ErrMalformedParams.With(p.position(p.peek())...)
	}
}

// parseBodyLine reads one dash line: either a conditional rule opened by
// an if/elseif/else keyword, or a plain alternative.
func (p *parser) parseBodyLine(b *builder, dash Token) error {
	var (
		keyword Token
		guarded bool
	)

	if p.at(KindIf) || p.at(KindElseIf) || p.at(KindElse) {
		keyword = p.next()
		guarded = true
	}

	var guard string

	if guarded && keyword.Kind != KindElse {
		// The guard must be the expression span immediately after the
		// keyword.
		tok, ok := p.expect(KindExpression)
		if !ok {
			return ErrMissingGuard.With(p.position(keyword)...)
		}

		guard = tok.Text
	}

	fragments, err := p.parseFragments()
	if err != nil {
		return err
	}

	st := StringTemplate{Fragments: fragments}

	if !guarded {
		return b.addAlternative(st, p.position(dash))
	}

	return b.addRule(keyword, guard, st, p.position(dash))
}

// parseFragments collects the content tokens up to the end of the line.
func (p *parser) parseFragments() ([]Fragment, error) {
	var fragments []Fragment

	for !p.eof() {
		switch tok := p.peek(); tok.Kind {
		case KindNewline:
			p.next()

			return fragments, nil

		case KindExpression:
			p.next()
			fragments = append(fragments, Fragment{Kind: FragmentExpr, Text: tok.Text})

		case KindTemplateRef:
			p.next()
			fragments = append(fragments, Fragment{Kind: FragmentRef, Text: tok.Text})

		case KindMultiline:
			p.next()
			fragments = append(fragments, Fragment{Kind: FragmentBlock, Text: tok.Text})

		case KindText, KindTextSeparator, KindWhitespace,
			KindEscape, KindInvalidEscape:
			p.next()
			fragments = append(fragments, Fragment{Kind: FragmentText, Text: tok.Text})

		default:
			return nil, ErrInvalidToken.With(
				append(p.position(tok), slog.String("token", tok.Kind.String()))...,
			)
		}
	}

	return fragments, nil
}

// builder accumulates body lines for one template until the next
// declaration, then decides between a normal and a conditional body.
type builder struct {
	name   string
	params []string
	source string

	alts  []StringTemplate
	rules []Rule

	conditional bool
	hasIf       bool
}

func (b *builder) addAlternative(st StringTemplate, pos []slog.Attr) error {
	if b.conditional {
		return ErrMixedBody.With(append(pos, slog.String("template", b.name))...)
	}

	b.alts = append(b.alts, st)

	return nil
}

func (b *builder) addRule(
	keyword Token,
	guard string,
	st StringTemplate,
	pos []slog.Attr,
) error {
	if len(b.alts) > 0 {
		return ErrMixedBody.With(append(pos, slog.String("template", b.name))...)
	}

	switch keyword.Kind {
	case KindIf:
		b.hasIf = true

	case KindElseIf, KindElse:
		if !b.hasIf {
			return ErrDanglingElse.With(
				append(pos, slog.String("template", b.name))...,
			)
		}
	}

	b.conditional = true
	b.rules = append(b.rules, Rule{Guard: guard, Then: st})

	return nil
}

func (b *builder) finish() (*Template, error) {
	t := &Template{
		Name:   b.name,
		Params: b.params,
		Source: b.source,
	}

	switch {
	case b.conditional:
		t.Body = &ConditionalBody{Rules: b.rules}

	case len(b.alts) > 0:
		t.Body = &NormalBody{Alts: b.alts}

	default:
		return nil, ErrEmptyBody.With(
			slog.String("template", b.name),
			slog.String("source", b.source),
		)
	}

	return t, nil
}
