package horizonredux

import (
	"fmt"
	"strings"

	"github.com/ahmedkamals/horizonredux/internal/errors"
)

type (
	// Pattern selects the actions an action taker reacts to.
	// It is one of ExactType, TypeSet or Predicate.
	Pattern interface {
		fmt.Stringer
		matches(Action) bool
	}

	// ExactType matches actions whose type equals it.
	ExactType ActionType

	// TypeSet matches actions whose type is a member of the set.
	TypeSet []ActionType

	// Predicate matches actions it returns true for. It may inspect the payload.
	Predicate func(Action) bool
)

// Matches reports whether action satisfies pattern.
func Matches(action Action, pattern Pattern) bool {
	if pattern == nil {
		return false
	}

	return pattern.matches(action)
}

func (p ExactType) matches(action Action) bool {
	return ActionType(p) == action.Type
}

func (p ExactType) String() string {
	return string(p)
}

func (p TypeSet) matches(action Action) bool {
	for _, actionType := range p {
		if actionType == action.Type {
			return true
		}
	}

	return false
}

func (p TypeSet) String() string {
	types := make([]string, len(p))
	for index, actionType := range p {
		types[index] = string(actionType)
	}

	return "[" + strings.Join(types, ", ") + "]"
}

func (p Predicate) matches(action Action) bool {
	return p != nil && p(action)
}

func (p Predicate) String() string {
	return "predicate"
}

func validatePattern(pattern Pattern) error {
	const op errors.Operation = "validatePattern"

	switch pattern := pattern.(type) {
	case ExactType:
		if pattern == "" {
			return errors.E(op, errors.InvalidPattern, "empty action type")
		}
	case TypeSet:
		if len(pattern) == 0 {
			return errors.E(op, errors.InvalidPattern, errors.E(errors.MinLength))
		}
		for _, actionType := range pattern {
			if actionType == "" {
				return errors.E(op, errors.InvalidPattern, "empty action type in set")
			}
		}
	case Predicate:
		if pattern == nil {
			return errors.E(op, errors.InvalidPattern, "nil predicate")
		}
	default:
		return errors.E(op, errors.InvalidPattern)
	}

	return nil
}
