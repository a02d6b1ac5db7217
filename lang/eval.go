package lang

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/parley/log"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the structured logger for trace-level diagnostics.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithRandom sets the source of randomness used to select among a normal
// body's alternatives. The function receives the alternative count and
// must return an index in [0, n). Tests supply a deterministic function
// to assert exact selection.
func WithRandom(intn func(n int) int) Option {
	return func(e *Evaluator) {
		e.intn = intn
	}
}

// WithExprEvaluator replaces the default expr-lang collaborator. When a
// custom collaborator is supplied, functions registered through
// WithExprFunction are not installed; the collaborator owns resolution.
func WithExprEvaluator(exprs ExprEvaluator) Option {
	return func(e *Evaluator) {
		e.exprs = exprs
	}
}

// WithExprFunction registers a custom function resolvable inside
// expression spans evaluated by the default collaborator.
func WithExprFunction(name string, fn ExprFunc) Option {
	return func(e *Evaluator) {
		if e.funcs == nil {
			e.funcs = make(map[string]ExprFunc)
		}

		e.funcs[name] = fn
	}
}

// Evaluator renders templates from one document against caller-supplied
// scopes. The evaluation-target stack is the only mutable state, scoped
// to one logical caller: instantiate one Evaluator per session and do
// not share it across concurrent goroutines.
type Evaluator struct {
	doc    *Document
	exprs  ExprEvaluator
	funcs  map[string]ExprFunc
	intn   func(n int) int
	logger log.Logger
	stack  []evalTarget
}

// evalTarget is one in-progress template evaluation. The top of the
// stack is the current target, whose scope resolves expressions found
// directly inside that template.
type evalTarget struct {
	name  string
	scope any
}

// New creates an Evaluator over the given document.
func New(doc *Document, opts ...Option) *Evaluator {
	e := &Evaluator{
		doc:  doc,
		intn: rand.IntN,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.exprs == nil {
		e.exprs = newExprEngine(e.funcs)
	}

	return e
}

// Document returns the document the evaluator renders from.
func (e *Evaluator) Document() *Document { return e.doc }

// EvaluateTemplate renders the named template against the given scope.
//
// It fails when the name is absent from the document, or when the name
// already appears anywhere on the evaluation-target stack regardless of
// scope (a reference cycle); the cycle error reports the full chain of
// template names in call order. The stack entry pushed here is popped on
// every exit path so a later call never inherits stale state.
func (e *Evaluator) EvaluateTemplate(
	ctx context.Context,
	name string,
	scope any,
) (string, error) {
	tmpl, found := e.doc.Lookup(name)
	if !found {
		return "", e.notFound(name)
	}

	for _, t := range e.stack {
		if t.name == name {
			return "", e.cycle(name)
		}
	}

	e.stack = append(e.stack, evalTarget{name: name, scope: scope})
	defer func() {
		e.stack = e.stack[:len(e.stack)-1]
	}()

	e.logger.TraceContext(ctx, "evaluate template",
		slog.String("template", name),
		slog.Int("depth", len(e.stack)),
	)

	return e.evalBody(ctx, tmpl.Body)
}

// EvaluateCall renders a template call of the form "name" or
// "name(arg, ...)" against the given scope. Template references use this
// after stripping their brackets; hosts may call it directly.
//
// The argument list is split on literal commas. A comma nested inside an
// argument's own parentheses is not accounted for; such arguments split
// incorrectly.
func (e *Evaluator) EvaluateCall(
	ctx context.Context,
	call string,
	scope any,
) (string, error) {
	open := strings.Index(call, "(")
	if open < 0 {
		// No argument list: the reference inherits the scope unchanged.
		return e.EvaluateTemplate(ctx, strings.TrimSpace(call), scope)
	}

	end := strings.LastIndex(call, ")")
	if end < open {
		return "", ErrMalformedReference.With(slog.String("reference", call))
	}

	name := strings.TrimSpace(call[:open])

	argsText := call[open+1 : end]
	if strings.TrimSpace(argsText) == "" {
		return e.EvaluateTemplate(ctx, name, scope)
	}

	segments := strings.Split(argsText, ",")
	args := make([]any, len(segments))

	for i, segment := range segments {
		val, err := e.exprs.Evaluate(ctx, strings.TrimSpace(segment), scope)
		if err != nil {
			return "", WrapError(err).With(slog.String("reference", call))
		}

		args[i] = val
	}

	tmpl, found := e.doc.Lookup(name)
	if !found {
		return "", e.notFound(name)
	}

	return e.EvaluateTemplate(ctx, name, bindScope(tmpl.Params, args))
}

// bindScope constructs the callee's scope from its declared parameters
// and the evaluated argument values. A single argument passed to a
// template declaring no parameters flows through unwrapped; otherwise
// parameters bind positionally, truncated to the shorter list, so extra
// arguments are dropped.
func bindScope(params []string, args []any) any {
	if len(args) == 1 && len(params) == 0 {
		return args[0]
	}

	scope := make(map[string]any, len(params))

	for i, param := range params {
		if i >= len(args) {
			break
		}

		scope[param] = args[i]
	}

	return scope
}

// scope returns the current target's scope.
func (e *Evaluator) scope() any {
	if len(e.stack) == 0 {
		return nil
	}

	return e.stack[len(e.stack)-1].scope
}

// evalBody dispatches on the body variant.
func (e *Evaluator) evalBody(ctx context.Context, body Body) (string, error) {
	switch b := body.(type) {
	case *NormalBody:
		index := 0
		if len(b.Alts) > 1 {
			index = e.intn(len(b.Alts))
		}

		return e.evalStringTemplate(ctx, b.Alts[index])

	case *ConditionalBody:
		return e.evalConditional(ctx, b)

	default:
		return "", ErrEmptyBody
	}
}

// evalConditional tries each rule in declared order and renders the
// first whose guard is absent or truthy. No match is not an error: the
// body produces no output.
func (e *Evaluator) evalConditional(
	ctx context.Context,
	body *ConditionalBody,
) (string, error) {
	for _, rule := range body.Rules {
		if rule.Guard == "" || e.guardTruthy(ctx, rule.Guard) {
			return e.evalStringTemplate(ctx, rule.Then)
		}
	}

	return "", nil
}

// guardTruthy evaluates a guard expression against the current scope.
// Any failure — an evaluation error, a panic in the collaborator, a nil
// result, boolean false, or integer zero — means the guard did not
// match. Failures are logged and swallowed so generation continues with
// the remaining rules.
func (e *Evaluator) guardTruthy(ctx context.Context, guard string) bool {
	source := exprSource(guard)

	val, err := e.evalGuard(ctx, source)
	if err != nil {
		e.logger.DebugContext(ctx, "guard evaluation failed",
			slog.String("guard", source),
			slog.Any("error", err),
		)

		return false
	}

	return isTruthy(val)
}

// evalGuard isolates the collaborator call so a panic inside it is
// recovered and reported as an ordinary evaluation failure.
func (e *Evaluator) evalGuard(
	ctx context.Context,
	source string,
) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrExprEvaluate.With(
				slog.String("expression", source),
				slog.Any("panic", r),
			)
		}
	}()

	return e.exprs.Evaluate(ctx, source, e.scope())
}

// isTruthy implements guard truthiness: nil, boolean false, and integer
// zero are falsy; every other value matches.
func isTruthy(val any) bool {
	if val == nil {
		return false
	}

	if b, ok := val.(bool); ok {
		return b
	}

	switch v := reflect.ValueOf(val); v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return !v.IsZero()

	default:
		return true
	}
}

// evalStringTemplate concatenates the rendering of each fragment in
// order.
func (e *Evaluator) evalStringTemplate(
	ctx context.Context,
	st StringTemplate,
) (string, error) {
	var out strings.Builder

	for _, fragment := range st.Fragments {
		switch fragment.Kind {
		case FragmentText:
			out.WriteString(unescape(fragment.Text))

		case FragmentExpr:
			s, err := e.evalExpression(ctx, fragment.Text)
			if err != nil {
				return "", err
			}

			out.WriteString(s)

		case FragmentRef:
			s, err := e.evalReference(ctx, fragment.Text)
			if err != nil {
				return "", err
			}

			out.WriteString(s)

		case FragmentBlock:
			s, err := e.evalBlock(ctx, fragment.Text)
			if err != nil {
				return "", err
			}

			out.WriteString(s)
		}
	}

	return out.String(), nil
}

// evalExpression renders a "{...}" span. Unlike guards, a failure or an
// absent result here is fatal to the whole evaluation.
func (e *Evaluator) evalExpression(
	ctx context.Context,
	span string,
) (string, error) {
	source := exprSource(span)

	val, err := e.exprs.Evaluate(ctx, source, e.scope())
	if err != nil {
		return "", WrapError(err).With(slog.String("template", e.top()))
	}

	if val == nil {
		return "", ErrExprNullResult.With(
			slog.String("expression", source),
			slog.String("template", e.top()),
		)
	}

	return stringify(val), nil
}

// evalReference renders a "[...]" span by stripping the brackets and
// delegating to EvaluateCall with the current scope.
func (e *Evaluator) evalReference(
	ctx context.Context,
	span string,
) (string, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(span, "["), "]")

	return e.EvaluateCall(ctx, strings.TrimSpace(inner), e.scope())
}

// blockSubstitution matches "@{...}" spans inside a multi-line block:
// non-nested, interior excludes brace characters.
var blockSubstitution = regexp.MustCompile(`@\{[^{}]*\}`)

// evalBlock renders a triple-backtick block: the delimiters are
// stripped, every "@{...}" occurrence is replaced by the rendering of
// its inner expression, and all other text stays literal.
func (e *Evaluator) evalBlock(
	ctx context.Context,
	block string,
) (string, error) {
	inner := block
	inner = strings.TrimPrefix(inner, "```")
	inner = strings.TrimSuffix(inner, "```")

	var (
		out  strings.Builder
		last int
	)

	for _, match := range blockSubstitution.FindAllStringIndex(inner, -1) {
		out.WriteString(inner[last:match[0]])

		// Drop the leading '@'; the rest is an ordinary expression span.
		s, err := e.evalExpression(ctx, inner[match[0]+1:match[1]])
		if err != nil {
			return "", err
		}

		out.WriteString(s)
		last = match[1]
	}

	out.WriteString(inner[last:])

	return out.String(), nil
}

// top returns the current target's template name.
func (e *Evaluator) top() string {
	if len(e.stack) == 0 {
		return ""
	}

	return e.stack[len(e.stack)-1].name
}

// notFound builds a template-not-found error, attaching close name
// matches so authoring typos are easy to spot.
func (e *Evaluator) notFound(name string) error {
	err := ErrTemplateNotFound.With(slog.String("template", name))

	matches := fuzzy.Find(name, e.doc.Names())
	if len(matches) > 0 {
		n := min(3, len(matches))
		similar := make([]string, n)

		for i := range n {
			similar[i] = matches[i].Str
		}

		err = err.With(slog.String("similar", strings.Join(similar, ", ")))
	}

	return err
}

// cycle builds a cycle-detected error enumerating the chain of template
// names from the bottom of the stack to the attempted call, in call
// order.
func (e *Evaluator) cycle(name string) error {
	chain := make([]string, 0, len(e.stack)+1)
	for _, t := range e.stack {
		chain = append(chain, t.name)
	}

	chain = append(chain, name)

	return ErrCycleDetected.With(
		slog.String("chain", strings.Join(chain, " -> ")),
	)
}

// exprSource strips the surrounding braces from an expression span and
// trims the interior.
func exprSource(span string) string {
	s := strings.TrimPrefix(span, "{")
	s = strings.TrimSuffix(s, "}")

	return strings.TrimSpace(s)
}

// unescape interprets backslash escapes in literal text. Unrecognized
// sequences pass through verbatim.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var out strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out.WriteByte(c)

			continue
		}

		i++

		switch n := s[i]; n {
		case '{', '[', '\\', ']', '}':
			out.WriteByte(n)

		case 'r':
			out.WriteByte('\r')

		case 't':
			out.WriteByte('\t')

		case 'n':
			out.WriteByte('\n')

		default:
			out.WriteByte('\\')
			out.WriteByte(n)
		}
	}

	return out.String()
}

// stringify renders an expression result's textual form.
func stringify(val any) string {
	switch v := val.(type) {
	case string:
		return v

	case bool:
		return strconv.FormatBool(v)

	case int:
		return strconv.Itoa(v)

	case int64:
		return strconv.FormatInt(v, 10)

	case uint64:
		return strconv.FormatUint(v, 10)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case fmt.Stringer:
		return v.String()

	default:
		return fmt.Sprintf("%v", v)
	}
}
