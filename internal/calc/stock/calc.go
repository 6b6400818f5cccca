package stock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type ChemicalType string

const (
	ChemicalCa   ChemicalType = "Ca"
	ChemicalSi   ChemicalType = "Si"
	ChemicalNaOH ChemicalType = "NaOH"
	ChemicalPCE  ChemicalType = "PCE"
)

// Hydrate-basis molar masses of the salts as weighed, g/mol.
var DefaultMW = map[ChemicalType]float64{
	ChemicalCa:   236.15, // Ca(NO3)2·4H2O
	ChemicalSi:   212.14, // Na2SiO3·5H2O
	ChemicalNaOH: 40.00,
}

type Input struct {
	ChemicalType  ChemicalType `json:"chemical_type"`
	MolarityMolL  float64      `json:"molarity_mol_l"`
	VolumeML      float64      `json:"volume_ml"`
	MolecularWt   float64      `json:"molecular_weight"`
	PurityPercent float64      `json:"purity_percent"`
}

type Result struct {
	RequiredMassG float64 `json:"required_mass_g"`
	MolesMol      float64 `json:"moles_mol"`
	MolecularWt   float64 `json:"molecular_weight"`
	PurityPercent float64 `json:"purity_percent"`
	Notes         string  `json:"notes"`
}

// Calculate returns the salt mass to weigh for a stock solution, corrected
// for reagent purity.
func Calculate(in Input) (Result, error) {
	if in.MolarityMolL <= 0 || in.VolumeML <= 0 {
		return Result{}, fmt.Errorf("invalid input")
	}
	if in.MolecularWt <= 0 {
		mw, ok := DefaultMW[in.ChemicalType]
		if !ok {
			return Result{}, fmt.Errorf("molecular weight required for %q", in.ChemicalType)
		}
		in.MolecularWt = mw
	}
	if in.PurityPercent <= 0 || in.PurityPercent > 100 {
		in.PurityPercent = 100
	}

	n := in.MolarityMolL * in.VolumeML / 1000.0
	mass := n * in.MolecularWt / (in.PurityPercent / 100.0)
	return Result{
		RequiredMassG: mass,
		MolesMol:      n,
		MolecularWt:   in.MolecularWt,
		PurityPercent: in.PurityPercent,
		Notes:         "Salt mass for the target molarity, purity corrected.",
	}, nil
}

// CodePrefix is the per-day batch code prefix, e.g. "CA-20240101-".
func CodePrefix(t ChemicalType, day time.Time) string {
	p := strings.ToUpper(string(t))
	if len(p) > 2 {
		p = p[:2]
	}
	return fmt.Sprintf("%s-%s-", p, day.Format("20060102"))
}

// BatchCode suggests the next code given how many batches already carry
// today's prefix.
func BatchCode(t ChemicalType, day time.Time, existing int) string {
	return fmt.Sprintf("%s%02d", CodePrefix(t, day), existing+1)
}

// NextBatchCode continues the highest sequence among codes already issued
// for the day, so deleted batches never cause a reused code.
func NextBatchCode(t ChemicalType, day time.Time, codes []string) string {
	prefix := CodePrefix(t, day)
	last := 0
	for _, c := range codes {
		if !strings.HasPrefix(c, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(c, prefix)); err == nil && n > last {
			last = n
		}
	}
	return BatchCode(t, day, last)
}
