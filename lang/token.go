package lang

import "strconv"

// Kind identifies the lexical class of a token.
type Kind int

const (
	// KindHash begins a template declaration line.
	KindHash Kind = iota

	// KindDash begins a template body line.
	KindDash

	// KindIdentifier is a template or parameter name.
	KindIdentifier

	// KindDot joins identifier segments in a dotted template name.
	KindDot

	// KindLParen opens a parameter or argument group.
	KindLParen

	// KindRParen closes a parameter or argument group.
	KindRParen

	// KindComma separates parameters.
	KindComma

	// KindNewline terminates a declaration or body line.
	KindNewline

	// KindIf is the "if:" keyword opening a conditional rule.
	KindIf

	// KindElseIf is the "elseif:" keyword continuing a conditional body.
	KindElseIf

	// KindElse is the "else:" keyword for the unconditional rule.
	KindElse

	// KindMultiline is a triple-backtick delimited literal block.
	KindMultiline

	// KindExpression is a brace-delimited expression span.
	KindExpression

	// KindTemplateRef is a bracket-delimited template reference.
	KindTemplateRef

	// KindEscape is a recognized backslash escape sequence.
	KindEscape

	// KindInvalidEscape is an unrecognized backslash sequence, preserved
	// verbatim and rendered permissively at evaluation time.
	KindInvalidEscape

	// KindText is a run of plain body text.
	KindText

	// KindTextSeparator is a single separator character appearing as
	// literal content (a stray bracket, paren, or similar).
	KindTextSeparator

	// KindWhitespace is a significant run of body whitespace.
	KindWhitespace
)

// String returns a string representation of the token kind.
func (k Kind) String() string {
	switch k {
	case KindHash:
		return "Hash"

	case KindDash:
		return "Dash"

	case KindIdentifier:
		return "Identifier"

	case KindDot:
		return "Dot"

	case KindLParen:
		return "LParen"

	case KindRParen:
		return "RParen"

	case KindComma:
		return "Comma"

	case KindNewline:
		return "Newline"

	case KindIf:
		return "If"

	case KindElseIf:
		return "ElseIf"

	case KindElse:
		return "Else"

	case KindMultiline:
		return "Multiline"

	case KindExpression:
		return "Expression"

	case KindTemplateRef:
		return "TemplateRef"

	case KindEscape:
		return "Escape"

	case KindInvalidEscape:
		return "InvalidEscape"

	case KindText:
		return "Text"

	case KindTextSeparator:
		return "TextSeparator"

	case KindWhitespace:
		return "Whitespace"

	default:
		return "Unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Token is one lexical unit of template-language source.
type Token struct {
	Kind Kind
	Text string // raw source text, delimiters included
	Line int    // 1-based source line
	Col  int    // 1-based source column
}

// content reports whether the token counts as body content, which flips
// the lexer's whitespace-insignificance off and consumes the window in
// which if/else keywords are recognized.
func (t Token) content() bool {
	switch t.Kind {
	case KindMultiline, KindExpression, KindTemplateRef,
		KindEscape, KindInvalidEscape, KindText, KindTextSeparator:
		return true

	default:
		return false
	}
}
