package xlrecord

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExpressionEvaluator evaluates expressions used by computed fields,
// end conditions and record selection.
type ExpressionEvaluator interface {
	Evaluate(expression string, env map[string]any) (any, error)
	IsConditionTrue(condition string, env map[string]any) (bool, error)
}

// exprEvaluator implements ExpressionEvaluator using expr-lang/expr.
type exprEvaluator struct {
	cache sync.Map // expression string → compiled *vm.Program
}

// NewExpressionEvaluator creates a new expression evaluator backed by expr-lang/expr.
func NewExpressionEvaluator() ExpressionEvaluator {
	return &exprEvaluator{}
}

var defaultEvaluator = NewExpressionEvaluator()

func (e *exprEvaluator) Evaluate(expression string, env map[string]any) (any, error) {
	if expression == "" {
		return nil, nil
	}
	program, err := e.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", expression, err)
	}
	return result, nil
}

func (e *exprEvaluator) IsConditionTrue(condition string, env map[string]any) (bool, error) {
	result, err := e.Evaluate(condition, env)
	if err != nil {
		return false, err
	}
	if result == nil {
		return false, nil
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q evaluated to %T, expected bool", condition, result)
	}
	return b, nil
}

// compile caches programs by source text. Environments differ per record, so
// programs are compiled untyped and tolerate missing fields.
func (e *exprEvaluator) compile(expression string) (*vm.Program, error) {
	if cached, ok := e.cache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	e.cache.Store(expression, program)
	return program, nil
}

// CheckExpression reports a syntax error in expression without running it.
func CheckExpression(expression string) error {
	_, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	return err
}
