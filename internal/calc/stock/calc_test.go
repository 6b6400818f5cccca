package stock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeedLab/internal/calc/stock"
)

func TestCalculate_RequiredMass(t *testing.T) {
	cases := []struct {
		name string
		in   stock.Input
		want float64
	}{
		{"CaDefaultMW", stock.Input{ChemicalType: stock.ChemicalCa, MolarityMolL: 1.5, VolumeML: 1000}, 1.5 * 236.15},
		{"SiHalfLitre", stock.Input{ChemicalType: stock.ChemicalSi, MolarityMolL: 0.75, VolumeML: 500}, 0.375 * 212.14},
		{"Purity", stock.Input{ChemicalType: stock.ChemicalNaOH, MolarityMolL: 5, VolumeML: 1000, PurityPercent: 98}, 200 / 0.98},
		{"ExplicitMW", stock.Input{ChemicalType: "Other", MolarityMolL: 1, VolumeML: 250, MolecularWt: 100}, 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := stock.Calculate(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, res.RequiredMassG, 1e-9)
		})
	}
}

func TestCalculate_Errors(t *testing.T) {
	_, err := stock.Calculate(stock.Input{ChemicalType: stock.ChemicalCa, VolumeML: 1000})
	assert.Error(t, err)

	_, err = stock.Calculate(stock.Input{ChemicalType: stock.ChemicalCa, MolarityMolL: 1})
	assert.Error(t, err)

	_, err = stock.Calculate(stock.Input{ChemicalType: "Other", MolarityMolL: 1, VolumeML: 100})
	assert.Error(t, err, "no default molecular weight")
}

func TestBatchCode(t *testing.T) {
	day := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "CA-20240101-01", stock.BatchCode(stock.ChemicalCa, day, 0))
	assert.Equal(t, "SI-20240101-03", stock.BatchCode(stock.ChemicalSi, day, 2))
	assert.Equal(t, "NA-20240101-12", stock.BatchCode(stock.ChemicalNaOH, day, 11))
	assert.Equal(t, "CA-20240101-", stock.CodePrefix(stock.ChemicalCa, day))
}

func TestNextBatchCode(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "CA-20240101-01", stock.NextBatchCode(stock.ChemicalCa, day, nil))

	codes := []string{"CA-20240101-01", "CA-20240101-03", "CA-20240101-x", "SI-20240101-07"}
	assert.Equal(t, "CA-20240101-04", stock.NextBatchCode(stock.ChemicalCa, day, codes))
}
