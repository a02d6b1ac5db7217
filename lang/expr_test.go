package lang

import (
	"errors"
	"testing"
)

func TestExprEngineEvaluate(t *testing.T) {
	engine := newExprEngine(nil)

	val, err := engine.Evaluate(t.Context(), "a + b",
		map[string]any{"a": 2, "b": 3})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if val != 5 {
		t.Errorf("got %v", val)
	}
}

func TestExprEngineEmptySource(t *testing.T) {
	val, err := newExprEngine(nil).Evaluate(t.Context(), "", nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if val != nil {
		t.Errorf("expected nil, got %v", val)
	}
}

func TestExprEngineCompileError(t *testing.T) {
	_, err := newExprEngine(nil).Evaluate(t.Context(), "1 +", nil)
	if !errors.Is(err, ErrExprEvaluate) {
		t.Fatalf("expected ErrExprEvaluate, got %v", err)
	}
}

func TestExprEngineProgramReuse(t *testing.T) {
	engine := newExprEngine(nil)

	first, err := engine.program("a * 2")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	second, err := engine.program("a * 2")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if first != second {
		t.Error("expected cached program on second use")
	}
}

func TestExprEngineCustomFunction(t *testing.T) {
	engine := newExprEngine(map[string]ExprFunc{
		"double": func(args ...any) (any, error) {
			return args[0].(int) * 2, nil
		},
	})

	val, err := engine.Evaluate(t.Context(), "double(n)",
		map[string]any{"n": 21})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if val != 42 {
		t.Errorf("got %v", val)
	}
}

func TestExprEngineScopeValue(t *testing.T) {
	// Env access works against any map shape known only at run time.
	val, err := newExprEngine(nil).Evaluate(t.Context(), "user.name",
		map[string]any{"user": map[string]any{"name": "Ada"}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if val != "Ada" {
		t.Errorf("got %v", val)
	}
}
