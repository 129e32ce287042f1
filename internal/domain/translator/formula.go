package translator

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// evaluate handles simple formulas like "x * 100 / 255" or "x / 2.55 + 1"
func evaluate(formula string, x float64) (float64, error) {
	expression, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return 0, err
	}
	result, err := expression.Evaluate(map[string]interface{}{"x": x})
	if err != nil {
		return 0, err
	}
	val, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("formula %q returned %T", formula, result)
	}
	return val, nil
}

// ValidateFormula reports whether formula parses. Used at config load.
func ValidateFormula(formula string) error {
	_, err := evaluate(formula, 0)
	return err
}
