package lang

import (
	"context"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"
)

// ExprEvaluator is the expression collaborator: it evaluates the source
// of a "{...}" span against an opaque scope and returns a value or an
// error. The template language never inspects the expression grammar.
type ExprEvaluator interface {
	Evaluate(ctx context.Context, source string, scope any) (any, error)
}

// ExprFunc is a custom function made resolvable inside expressions.
type ExprFunc func(args ...any) (any, error)

// exprEngine is the default collaborator, backed by expr-lang. Each
// distinct expression source is compiled once and the program cached by
// content hash, so repeated evaluations of the same template pay the
// compile cost only on first use.
type exprEngine struct {
	options  []expr.Option
	programs sync.Map // xxh3 source hash -> *vm.Program
}

func newExprEngine(funcs map[string]ExprFunc) *exprEngine {
	options := make([]expr.Option, 0, len(funcs))
	for name, fn := range funcs {
		options = append(options, expr.Function(name, fn))
	}

	return &exprEngine{options: options}
}

// Evaluate compiles (or reuses) the expression program and runs it with
// the scope as its environment. An empty source yields a nil value
// without error, since expr-lang cannot compile an empty program.
func (e *exprEngine) Evaluate(
	_ context.Context,
	source string,
	scope any,
) (any, error) {
	if source == "" {
		return nil, nil
	}

	program, err := e.program(source)
	if err != nil {
		return nil, err
	}

	result, err := vm.Run(program, scope)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).
			With(slog.String("expression", source))
	}

	return result, nil
}

func (e *exprEngine) program(source string) (*vm.Program, error) {
	key := xxh3.HashString(source)

	if cached, ok := e.programs.Load(key); ok {
		return cached.(*vm.Program), nil
	}

	// Compiled without a typed environment: the scope is opaque and its
	// shape is only known at run time.
	program, err := expr.Compile(source, e.options...)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).
			With(slog.String("expression", source))
	}

	e.programs.Store(key, program)

	return program, nil
}
