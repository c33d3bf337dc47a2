// Package condition evaluates branching expressions against execution state.
// Evaluation never guesses: a type mismatch or unresolvable field is an
// error surfaced to the engine, not a silent default branch.
package condition

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jornadahq/jornada/model"
)

// FieldResolver resolves a condition field to a value. Implementations route
// "message.content" to the triggering event and "context.<name>" or bare
// names to the variable store.
type FieldResolver interface {
	ResolveField(field string) (model.Value, bool)
}

// Evaluate applies the configured operator to the resolved field value.
func Evaluate(cfg *model.ConditionConfig, fields FieldResolver) (bool, error) {
	left, ok := fields.ResolveField(cfg.Field)
	if !ok {
		return false, fmt.Errorf("condition field %q can not be resolved", cfg.Field)
	}
	switch cfg.Operator {
	case model.OP_EQUALS:
		return equals(left, cfg.Value), nil
	case model.OP_NOT_EQUALS:
		return !equals(left, cfg.Value), nil
	case model.OP_CONTAINS:
		return contains(left, cfg.Value)
	case model.OP_NOT_CONTAINS:
		found, err := contains(left, cfg.Value)
		if err != nil {
			return false, err
		}
		return !found, nil
	case model.OP_GREATER_THAN:
		cmp, err := compareNumeric(left, cfg.Value)
		if err != nil {
			return false, err
		}
		return cmp > 0, nil
	case model.OP_LESS_THAN:
		cmp, err := compareNumeric(left, cfg.Value)
		if err != nil {
			return false, err
		}
		return cmp < 0, nil
	case model.OP_REGEX:
		re, err := regexp.Compile(cfg.Value)
		if err != nil {
			return false, fmt.Errorf("condition regex %q does not compile: %w", cfg.Value, err)
		}
		return re.MatchString(left.String()), nil
	}
	return false, fmt.Errorf("unknown condition operator %q", cfg.Operator)
}

// equals compares numerically when both sides parse as numbers, otherwise by
// string form. "42" therefore equals "42.0" but "abc" only equals "abc".
func equals(left model.Value, operand string) bool {
	leftNum, leftErr := left.AsNumber()
	rightNum, rightErr := model.StringValue(operand).AsNumber()
	if leftErr == nil && rightErr == nil {
		return leftNum == rightNum
	}
	return left.String() == operand
}

func contains(left model.Value, operand string) (bool, error) {
	if left.Kind == model.VALUE_JSON {
		return false, fmt.Errorf("CONTAINS operand of kind %s is not string coercible", left.Kind)
	}
	return strings.Contains(strings.ToLower(left.String()), strings.ToLower(operand)), nil
}

func compareNumeric(left model.Value, operand string) (int, error) {
	leftNum, err := left.AsNumber()
	if err != nil {
		return 0, err
	}
	rightNum, err := model.StringValue(operand).AsNumber()
	if err != nil {
		return 0, err
	}
	switch {
	case leftNum > rightNum:
		return 1, nil
	case leftNum < rightNum:
		return -1, nil
	}
	return 0, nil
}
