package formulation

import "errors"

var (
	ErrUnknownAnchor   = errors.New("formulation: unknown anchor basis")
	ErrUnknownPCEBasis = errors.New("formulation: unknown PCE dosage basis")
)

// Condition flags a numerically valid but physically questionable result.
type Condition string

const (
	// Combined molar mass MW_si + ratio*MW_ca is not positive; moles are zero.
	ConditionDegenerateInput Condition = "degenerate_input"
	// Water came out negative: solids and PCE exceed the batch mass.
	ConditionInfeasibleBalance Condition = "infeasible_balance"
	// A molarity is zero or negative; its solution volume is zero.
	ConditionInvalidMolarity Condition = "invalid_molarity"
)

func (c Condition) Message() string {
	switch c {
	case ConditionDegenerateInput:
		return "check Ca/Si ratio and molecular weights"
	case ConditionInfeasibleBalance:
		return "requested composition exceeds target batch mass"
	case ConditionInvalidMolarity:
		return "molarity must be greater than zero"
	}
	return string(c)
}

func (r Result) Has(c Condition) bool {
	for _, got := range r.Conditions {
		if got == c {
			return true
		}
	}
	return false
}

// Feasible reports whether the recipe can be mixed as computed.
func (r Result) Feasible() bool {
	return len(r.Conditions) == 0
}

func appendCondition(conds []Condition, c Condition) []Condition {
	for _, got := range conds {
		if got == c {
			return conds
		}
	}
	return append(conds, c)
}
