package lang

import (
	"log/slog"
	"strings"
	"unicode"
)

// lexMode selects the active tokenization rules.
type lexMode int

const (
	// modeDefault recognizes comments, template declarations, and body
	// line markers between constructs.
	modeDefault lexMode = iota

	// modeName tokenizes the remainder of a "#name(params)" line.
	modeName

	// modeBody tokenizes the remainder of a "-" body line.
	modeBody
)

// bodySeparators are the characters that terminate a plain text run in
// body mode. Any one of them not consumed by a more specific rule is
// emitted as its own text-separator token.
const bodySeparators = " \t\r\n{}[]()"

// lexer maintains the scanner state.
//
// Whitespace significance in body mode toggles: ignoreWS starts true
// after a dash so leading layout is insignificant, and flips false the
// moment any content token is matched. expectIfElse opens the window in
// which "if:"/"elseif:"/"else:" are recognized as keywords; it is set by
// a dash and closed by the first content token, so the literal text
// "if:" mid-body is never misread as a keyword.
type lexer struct {
	src  []rune
	pos  int
	line int
	col  int

	mode         lexMode
	ignoreWS     bool
	expectIfElse bool
}

func newLexer(src string) *lexer {
	return &lexer{
		src:  []rune(src),
		line: 1,
		col:  1,
		mode: modeDefault,
	}
}

// scan tokenizes the entire source, returning the significant tokens.
// Comments and insignificant whitespace are discarded here so the parser
// never sees them.
func (l *lexer) scan() ([]Token, error) {
	var tokens []Token

	for !l.eof() {
		var (
			tok Token
			ok  bool
			err error
		)

		switch l.mode {
		case modeDefault:
			tok, ok, err = l.scanDefault()

		case modeName:
			tok, ok, err = l.scanName()

		case modeBody:
			tok, ok, err = l.scanBody()
		}

		if err != nil {
			return nil, err
		}

		if ok {
			tokens = append(tokens, tok)

			// A content token makes whitespace significant and closes
			// this line's if/else keyword window.
			if tok.content() {
				l.ignoreWS = false
				l.expectIfElse = false
			}
		}
	}

	return tokens, nil
}

// scanDefault handles the space between constructs: comment lines,
// layout, and the '#' and '-' markers that switch modes.
func (l *lexer) scanDefault() (Token, bool, error) {
	switch c := l.peek(); {
	case c == '>' || c == '$':
		// Comment runs to end of line. The newline itself is discarded
		// by the whitespace case on the next iteration.
		for !l.eof() && l.peek() != '\n' {
			l.next()
		}

		return Token{}, false, nil

	case c == ' ' || c == '\t' || c == '\r' || c == '\n':
		l.next()

		return Token{}, false, nil

	case c == '#':
		tok := l.emit(KindHash, "#")
		l.next()
		l.mode = modeName

		return tok, true, nil

	case c == '-':
		tok := l.emit(KindDash, "-")
		l.next()
		l.mode = modeBody
		l.ignoreWS = true
		l.expectIfElse = true

		return tok, true, nil

	default:
		return Token{}, false, ErrInvalidToken.With(
			slog.String("char", string(c)),
			slog.Int("line", l.line),
			slog.Int("col", l.col),
		)
	}
}

// scanName handles the remainder of a declaration line, where whitespace
// is insignificant and skipped.
func (l *lexer) scanName() (Token, bool, error) {
	switch c := l.peek(); {
	case c == ' ' || c == '\t' || c == '\r':
		l.next()

		return Token{}, false, nil

	case c == '\n':
		tok := l.emit(KindNewline, "\n")
		l.next()
		l.mode = modeDefault

		return tok, true, nil

	case isIdentStart(c):
		tok := l.emit(KindIdentifier, "")
		start := l.pos

		for !l.eof() && isIdentPart(l.peek()) {
			l.next()
		}

		tok.Text = string(l.src[start:l.pos])

		return tok, true, nil

	case c == '.':
		return l.single(KindDot), true, nil

	case c == '(':
		return l.single(KindLParen), true, nil

	case c == ')':
		return l.single(KindRParen), true, nil

	case c == ',':
		return l.single(KindComma), true, nil

	default:
		// Semicolons and anything else are invalid in a declaration.
		return Token{}, false, ErrInvalidToken.With(
			slog.String("char", string(c)),
			slog.Int("line", l.line),
			slog.Int("col", l.col),
		)
	}
}

// scanBody handles the remainder of a body line. Rule order matters:
// keywords before blocks, blocks before escapes, escapes before spans,
// spans before plain text, and single separators as the fallback.
func (l *lexer) scanBody() (Token, bool, error) {
	c := l.peek()

	if c == '\n' {
		tok := l.emit(KindNewline, "\n")
		l.next()
		l.mode = modeDefault
		l.ignoreWS = true

		return tok, true, nil
	}

	if c == ' ' || c == '\t' || c == '\r' {
		tok := l.emit(KindWhitespace, "")
		start := l.pos

		for !l.eof() {
			if c := l.peek(); c != ' ' && c != '\t' && c != '\r' {
				break
			}

			l.next()
		}

		if l.ignoreWS {
			return Token{}, false, nil
		}

		tok.Text = string(l.src[start:l.pos])

		return tok, true, nil
	}

	if l.expectIfElse {
		if tok, ok := l.scanKeyword(); ok {
			l.ignoreWS = true

			return tok, true, nil
		}
	}

	if l.lookingAt("```") {
		tok, err := l.scanMultiline()
		if err != nil {
			return Token{}, false, err
		}

		return tok, true, nil
	}

	if c == '\\' {
		return l.scanEscape(), true, nil
	}

	if c == '{' {
		if tok, ok := l.scanExpression(); ok {
			return tok, true, nil
		}
	}

	if c == '[' {
		if tok, ok := l.scanTemplateRef(); ok {
			return tok, true, nil
		}
	}

	if strings.ContainsRune(bodySeparators, c) {
		tok := l.emit(KindTextSeparator, string(c))
		l.next()

		return tok, true, nil
	}

	return l.scanText(), true, nil
}

// scanKeyword matches "if", "elseif", or "else", case-insensitively,
// followed by optional whitespace and a colon.
func (l *lexer) scanKeyword() (Token, bool) {
	for _, kw := range []struct {
		word string
		kind Kind
	}{
		{"elseif", KindElseIf},
		{"else", KindElse},
		{"if", KindIf},
	} {
		n := len(kw.word)
		if l.pos+n > len(l.src) {
			continue
		}

		if !strings.EqualFold(string(l.src[l.pos:l.pos+n]), kw.word) {
			continue
		}

		// Optional whitespace before the colon.
		end := l.pos + n
		for end < len(l.src) && (l.src[end] == ' ' || l.src[end] == '\t') {
			end++
		}

		if end >= len(l.src) || l.src[end] != ':' {
			continue
		}

		tok := l.emit(kw.kind, string(l.src[l.pos:end+1]))

		for l.pos <= end {
			l.next()
		}

		return tok, true
	}

	return Token{}, false
}

// scanMultiline consumes a non-greedy triple-backtick block, which may
// span lines. The delimiters are part of the token text.
func (l *lexer) scanMultiline() (Token, error) {
	tok := l.emit(KindMultiline, "")
	start := l.pos

	// Opening delimiter.
	for range 3 {
		l.next()
	}

	for {
		if l.eof() {
			return Token{}, ErrUnterminatedBlock.With(
				slog.Int("line", tok.Line),
				slog.Int("col", tok.Col),
			)
		}

		if l.lookingAt("```") {
			for range 3 {
				l.next()
			}

			tok.Text = string(l.src[start:l.pos])

			return tok, nil
		}

		l.next()
	}
}

// scanEscape consumes a backslash sequence. Recognized escapes become
// KindEscape; anything else is preserved as KindInvalidEscape rather
// than failing the lexer.
func (l *lexer) scanEscape() Token {
	tok := l.emit(KindInvalidEscape, "\\")
	l.next()

	if l.eof() {
		return tok
	}

	c := l.peek()
	if strings.ContainsRune(`{[\rtn]}`, c) {
		tok.Kind = KindEscape
	}

	tok.Text = "\\" + string(c)
	l.next()

	return tok
}

// scanExpression tries to consume a "{...}" span confined to one line,
// whose interior excludes raw braces and newlines but admits escape
// sequences. Reports false without consuming input when no well-formed
// span starts here, in which case the brace falls through to the
// text-separator rule.
func (l *lexer) scanExpression() (Token, bool) {
	end := l.pos + 1

	for end < len(l.src) {
		switch c := l.src[end]; c {
		case '}':
			tok := l.emit(KindExpression, string(l.src[l.pos:end+1]))

			for l.pos <= end {
				l.next()
			}

			return tok, true

		case '\n', '{':
			return Token{}, false

		case '\\':
			if end+1 >= len(l.src) || l.src[end+1] == '\n' {
				return Token{}, false
			}

			end += 2

		default:
			end++
		}
	}

	return Token{}, false
}

// scanTemplateRef tries to consume a "[...]" span with recursive bracket
// matching, so argument expressions may themselves contain references.
// Reports false without consuming input when the brackets never balance
// on this line.
func (l *lexer) scanTemplateRef() (Token, bool) {
	depth := 0
	end := l.pos

	for end < len(l.src) {
		switch l.src[end] {
		case '[':
			depth++

		case ']':
			depth--
			if depth == 0 {
				tok := l.emit(KindTemplateRef, string(l.src[l.pos:end+1]))

				for l.pos <= end {
					l.next()
				}

				return tok, true
			}

		case '\n':
			return Token{}, false

		case '\\':
			if end+1 < len(l.src) && l.src[end+1] != '\n' {
				end++
			}
		}

		end++
	}

	return Token{}, false
}

// scanText consumes the maximal run of plain characters: anything
// outside the separator set that does not begin an escape or a
// triple-backtick delimiter.
func (l *lexer) scanText() Token {
	tok := l.emit(KindText, "")
	start := l.pos

	for !l.eof() {
		c := l.peek()
		if strings.ContainsRune(bodySeparators, c) || c == '\\' {
			break
		}

		if c == '`' && l.lookingAt("```") {
			break
		}

		l.next()
	}

	tok.Text = string(l.src[start:l.pos])

	return tok
}

// lookingAt reports whether the source at the current position begins
// with the given literal.
func (l *lexer) lookingAt(s string) bool {
	lit := []rune(s)
	if l.pos+len(lit) > len(l.src) {
		return false
	}

	for i, c := range lit {
		if l.src[l.pos+i] != c {
			return false
		}
	}

	return true
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peek() rune { return l.src[l.pos] }

// next advances one rune, tracking line and column.
func (l *lexer) next() {
	if l.eof() {
		return
	}

	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	l.pos++
}

// emit creates a token stamped with the current source position.
func (l *lexer) emit(kind Kind, text string) Token {
	return Token{Kind: kind, Text: text, Line: l.line, Col: l.col}
}

// single emits a one-character token and advances past it.
func (l *lexer) single(kind Kind) Token {
	tok := l.emit(kind, string(l.peek()))
	l.next()

	return tok
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || c == '-'
}
