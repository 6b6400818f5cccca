package recommend

import (
	"fmt"

	"SeedLab/internal/calc/formulation"
)

type MaxSolidsResult struct {
	MaxSolidsPct      float64 `json:"max_solids_pct"`
	TargetSolidsPct   float64 `json:"target_solids_pct"`
	HeadroomPct       float64 `json:"headroom_pct"`
	PCEOnlyInfeasible bool    `json:"pce_only_infeasible"`
	Notes             string  `json:"notes"`
}

// MaxSolids finds the highest solids content that still leaves non-negative
// makeup water, holding every other recipe parameter fixed. Water mass is
// affine in the solids percentage, so two solves pin the root exactly.
func MaxSolids(in formulation.Input) (MaxSolidsResult, error) {
	trial := in
	trial.AnchorBasis = formulation.AnchorTotalMass
	trial.AnchorValue = 100

	trial.TargetSolidsPct = 0
	lo, err := formulation.Calculate(trial)
	if err != nil {
		return MaxSolidsResult{}, err
	}
	trial.TargetSolidsPct = 100
	hi, err := formulation.Calculate(trial)
	if err != nil {
		return MaxSolidsResult{}, err
	}
	if hi.Has(formulation.ConditionDegenerateInput) || hi.Has(formulation.ConditionInvalidMolarity) {
		return MaxSolidsResult{}, fmt.Errorf("%w: %s", ErrInvalidInput, hi.Conditions[0].Message())
	}

	w0 := lo.Ingredients[formulation.RowWater].MassG
	slope := (hi.Ingredients[formulation.RowWater].MassG - w0) / 100.0

	out := MaxSolidsResult{TargetSolidsPct: in.TargetSolidsPct}
	switch {
	case w0 < 0:
		out.PCEOnlyInfeasible = true
		out.Notes = "PCE solution alone exceeds the batch mass."
	case slope >= 0:
		out.MaxSolidsPct = 100
		out.Notes = "Water never runs out for this composition."
	default:
		out.MaxSolidsPct = -w0 / slope
		if out.MaxSolidsPct > 100 {
			out.MaxSolidsPct = 100
		}
		out.Notes = "Solids content at which makeup water reaches zero."
	}
	out.HeadroomPct = out.MaxSolidsPct - in.TargetSolidsPct
	return out, nil
}
