package recommend_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeedLab/internal/calc/formulation"
	"SeedLab/internal/calc/recommend"
)

func seedInput() formulation.Input {
	in := formulation.DefaultInput()
	in.CaSiRatio = 1.5
	in.MolarityCa = 1.5
	in.MolaritySi = 0.75
	in.PCEDosage = 2.0
	in.DensityCa = 1.150
	in.DensitySi = 1.084
	return in
}

func TestMaxSolids_WaterReachesZero(t *testing.T) {
	for _, basis := range []formulation.PCEBasis{formulation.PCETotalBatchMass, formulation.PCECaReactantMass} {
		t.Run(string(basis), func(t *testing.T) {
			in := seedInput()
			in.PCEDosageBasis = basis
			res, err := recommend.MaxSolids(in)
			require.NoError(t, err)
			require.Greater(t, res.MaxSolidsPct, in.TargetSolidsPct)
			assert.InDelta(t, res.MaxSolidsPct-in.TargetSolidsPct, res.HeadroomPct, 1e-12)

			in.TargetSolidsPct = res.MaxSolidsPct
			at, err := formulation.Calculate(in)
			require.NoError(t, err)
			assert.InDelta(t, 0, at.Ingredients[formulation.RowWater].MassG, 1e-9)
		})
	}
}

func TestMaxSolids_IndependentOfAnchor(t *testing.T) {
	in := seedInput()
	a, err := recommend.MaxSolids(in)
	require.NoError(t, err)

	in.AnchorBasis = formulation.AnchorTotalVolume
	in.AnchorValue = 2500
	b, err := recommend.MaxSolids(in)
	require.NoError(t, err)
	assert.InDelta(t, a.MaxSolidsPct, b.MaxSolidsPct, 1e-9)
}

func TestMaxSolids_PCEOnlyInfeasible(t *testing.T) {
	in := seedInput()
	in.PCEDosage = 120
	res, err := recommend.MaxSolids(in)
	require.NoError(t, err)
	assert.True(t, res.PCEOnlyInfeasible)
	assert.Equal(t, 0.0, res.MaxSolidsPct)
}

func TestMaxSolids_InvalidInput(t *testing.T) {
	in := seedInput()
	in.MolarityCa = 0
	_, err := recommend.MaxSolids(in)
	assert.ErrorIs(t, err, recommend.ErrInvalidInput)

	in = seedInput()
	in.CaSiRatio = 0
	in.MWSiAnhydrous = 0
	_, err = recommend.MaxSolids(in)
	assert.ErrorIs(t, err, recommend.ErrInvalidInput)

	in = seedInput()
	in.AnchorBasis = "per_litre"
	_, err = recommend.MaxSolids(in)
	assert.ErrorIs(t, err, formulation.ErrUnknownAnchor)
	assert.NotErrorIs(t, err, recommend.ErrInvalidInput)
}

func TestHandler_MaxSolids(t *testing.T) {
	h := &recommend.Handler{}
	req := httptest.NewRequest(http.MethodPost, "/tools/formulation/max-solids", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.MaxSolids(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "max_solids_pct")
}
