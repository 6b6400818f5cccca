package formulation

import (
	"fmt"
	"math"
)

type AnchorBasis string

const (
	AnchorTotalMass   AnchorBasis = "total_mass"
	AnchorTotalVolume AnchorBasis = "total_volume"
)

type PCEBasis string

const (
	PCETotalBatchMass PCEBasis = "total_batch_mass"
	PCECaReactantMass PCEBasis = "ca_reactant_mass"
)

// Molar masses, g/mol. Anhydrous values drive the balance, hydrate values are
// only reported as weighing equivalents.
const (
	MWCaAnhydrous = 164.09 // Ca(NO3)2
	MWSiAnhydrous = 122.06 // Na2SiO3
	MWCaHydrate   = 236.15 // Ca(NO3)2·4H2O
	MWSiHydrate   = 212.14 // Na2SiO3·5H2O
)

// Row order of Result.Ingredients.
const (
	RowSi = iota
	RowCa
	RowPCE
	RowWater
)

const (
	maxVolumeIterations = 10
	volumeToleranceML   = 1e-6
)

type Input struct {
	CaSiRatio          float64     `json:"ca_si_ratio"`
	TargetSolidsPct    float64     `json:"target_solids_pct"`
	MolarityCa         float64     `json:"molarity_ca"`
	MolaritySi         float64     `json:"molarity_si"`
	PCEDosage          float64     `json:"pce_dosage"`
	PCEDosageBasis     PCEBasis    `json:"pce_dosage_basis"`
	PCESolutionConcPct float64     `json:"pce_solution_conc_pct"`
	AnchorBasis        AnchorBasis `json:"anchor_basis"`
	AnchorValue        float64     `json:"anchor_value"` // g or mL, see AnchorBasis
	DensityCa          float64     `json:"density_ca"`
	DensitySi          float64     `json:"density_si"`
	DensityPCE         float64     `json:"density_pce"`
	DensityWater       float64     `json:"density_water"`
	MWCaAnhydrous      float64     `json:"mw_ca_anhydrous"`
	MWSiAnhydrous      float64     `json:"mw_si_anhydrous"`
	MWCaHydrate        float64     `json:"mw_ca_hydrate"`
	MWSiHydrate        float64     `json:"mw_si_hydrate"`
}

type Ingredient struct {
	Name       string   `json:"name"`
	MassG      float64  `json:"mass_g"`
	VolumeML   float64  `json:"volume_ml"`
	MolesMmol  *float64 `json:"moles_mmol,omitempty"`
	SolidMassG float64  `json:"solid_mass_g"`
}

type Result struct {
	Ingredients       []Ingredient `json:"ingredients"`
	TotalMassG        float64      `json:"total_mass_g"`
	TotalVolumeML     float64      `json:"total_volume_ml"`
	TotalSolidMassG   float64      `json:"total_solid_mass_g"`
	MineralMassG      float64      `json:"mineral_mass_g"`
	CombinedMolarMass float64      `json:"combined_molar_mass"`
	NSiMmol           float64      `json:"n_si_mmol"`
	NCaMmol           float64      `json:"n_ca_mmol"`
	CaAnhydrousMassG  float64      `json:"ca_anhydrous_mass_g"`
	CaHydrateG        float64      `json:"ca_hydrate_g"`
	SiHydrateG        float64      `json:"si_hydrate_g"`
	Iterations        int          `json:"iterations,omitempty"`
	Conditions        []Condition  `json:"conditions,omitempty"`
	Notes             string       `json:"notes"`
}

// DefaultInput returns the recipe designer defaults.
func DefaultInput() Input {
	return Input{
		CaSiRatio:          1.0,
		TargetSolidsPct:    5.0,
		MolarityCa:         4.0,
		MolaritySi:         2.0,
		PCEDosage:          1.25,
		PCEDosageBasis:     PCETotalBatchMass,
		PCESolutionConcPct: 50.0,
		AnchorBasis:        AnchorTotalMass,
		AnchorValue:        415.0,
		DensityCa:          1.401,
		DensitySi:          1.230,
		DensityPCE:         1.080,
		DensityWater:       0.998,
		MWCaAnhydrous:      MWCaAnhydrous,
		MWSiAnhydrous:      MWSiAnhydrous,
		MWCaHydrate:        MWCaHydrate,
		MWSiHydrate:        MWSiHydrate,
	}
}

// Calculate back-solves reagent quantities for a batch. Out-of-range numbers
// never fail; they show up as Conditions on the result. Only an unknown basis
// string is an error.
func Calculate(in Input) (Result, error) {
	switch in.PCEDosageBasis {
	case "", PCETotalBatchMass, PCECaReactantMass:
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownPCEBasis, in.PCEDosageBasis)
	}

	switch in.AnchorBasis {
	case "", AnchorTotalMass:
		res := solveMass(in, in.AnchorValue)
		res.Notes = "Mass-anchored balance, anhydrous basis, water as remainder."
		return res, nil
	case AnchorTotalVolume:
		res := solveVolume(in, in.AnchorValue)
		res.Notes = "Volume-anchored balance, total mass solved from volume."
		return res, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAnchor, in.AnchorBasis)
	}
}

func solveMass(in Input, total float64) Result {
	var conds []Condition

	S := in.MWSiAnhydrous + in.CaSiRatio*in.MWCaAnhydrous
	mineral := total * in.TargetSolidsPct / 100.0

	nSi := 0.0
	if S > 0 {
		nSi = mineral / S
	} else {
		conds = append(conds, ConditionDegenerateInput)
	}
	nCa := nSi * in.CaSiRatio
	caAnhydrous := nCa * in.MWCaAnhydrous

	massPCE := 0.0
	if in.PCEDosageBasis == PCECaReactantMass {
		massPCE = div(caAnhydrous*in.PCEDosage/100.0, in.PCESolutionConcPct/100.0)
	} else {
		massPCE = total * in.PCEDosage / 100.0
	}

	if in.MolaritySi <= 0 || in.MolarityCa <= 0 {
		conds = append(conds, ConditionInvalidMolarity)
	}
	vSi := div(nSi*1000.0, in.MolaritySi)
	vCa := div(nCa*1000.0, in.MolarityCa)
	massSi := vSi * in.DensitySi
	massCa := vCa * in.DensityCa
	vPCE := div(massPCE, in.DensityPCE)

	massWater := total - massSi - massCa - massPCE
	vWater := div(massWater, in.DensityWater)
	if massWater < 0 {
		conds = append(conds, ConditionInfeasibleBalance)
	}

	siMmol := nSi * 1000.0
	caMmol := nCa * 1000.0
	pceSolid := massPCE * in.PCESolutionConcPct / 100.0

	rows := []Ingredient{
		RowSi:    {Name: "Na2SiO3 Solution", MassG: massSi, VolumeML: vSi, MolesMmol: &siMmol, SolidMassG: nSi * in.MWSiAnhydrous},
		RowCa:    {Name: "Ca(NO3)2 Solution", MassG: massCa, VolumeML: vCa, MolesMmol: &caMmol, SolidMassG: caAnhydrous},
		RowPCE:   {Name: "PCE Solution", MassG: massPCE, VolumeML: vPCE, SolidMassG: pceSolid},
		RowWater: {Name: "DI Water", MassG: massWater, VolumeML: vWater},
	}

	res := Result{
		Ingredients:       rows,
		CombinedMolarMass: S,
		NSiMmol:           siMmol,
		NCaMmol:           caMmol,
		CaAnhydrousMassG:  caAnhydrous,
		CaHydrateG:        nCa * in.MWCaHydrate,
		SiHydrateG:        nSi * in.MWSiHydrate,
		Conditions:        conds,
		// Water is the remainder, so the anchor is the total mass.
		TotalMassG:   total,
		MineralMassG: rows[RowSi].SolidMassG + rows[RowCa].SolidMassG,
	}
	for _, row := range rows {
		res.TotalVolumeML += row.VolumeML
		res.TotalSolidMassG += row.SolidMassG
	}
	return res
}

// solveVolume finds the total mass whose component volumes add up to v.
// Every term of the mass-anchored solve is proportional to the total mass,
// so a unit solve gives the starting point and the loop only absorbs rounding.
func solveVolume(in Input, v float64) Result {
	unit := solveMass(in, 1.0)
	if unit.TotalVolumeML <= 0 {
		res := solveMass(in, 0)
		res.Conditions = appendCondition(res.Conditions, ConditionDegenerateInput)
		return res
	}

	m := v / unit.TotalVolumeML
	var res Result
	for i := 1; i <= maxVolumeIterations; i++ {
		res = solveMass(in, m)
		res.Iterations = i
		if math.Abs(res.TotalVolumeML-v) <= volumeToleranceML || res.TotalVolumeML <= 0 {
			break
		}
		m *= v / res.TotalVolumeML
	}
	return res
}

func div(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
