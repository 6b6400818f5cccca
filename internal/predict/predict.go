package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

type Horizon string

const (
	Horizon1d  Horizon = "1d"
	Horizon28d Horizon = "28d"
)

var ErrUnknownHorizon = errors.New("predict: unknown horizon")

// Features is the fixed input contract of the strength model.
type Features struct {
	CaSiRatio  float64 `json:"ca_si_ratio"`
	MolarityCa float64 `json:"molarity_ca"`
	SolidsPct  float64 `json:"solids_pct"`
	PCEDosage  float64 `json:"pce_dosage"`
}

func (f Features) vector() [4]float64 {
	return [4]float64{f.CaSiRatio, f.MolarityCa, f.SolidsPct, f.PCEDosage}
}

type Predictor interface {
	// Predict returns false when no model is available for the horizon.
	Predict(f Features, h Horizon) (float64, bool)
}

type Coefficients struct {
	Intercept float64    `json:"intercept"`
	Weights   [4]float64 `json:"weights"`
	RMSE      float64    `json:"rmse,omitempty"`
	Samples   int        `json:"samples,omitempty"`
}

// LinearModel holds one linear strength model per horizon, as written by the
// training pipeline.
type LinearModel struct {
	Horizons map[Horizon]Coefficients `json:"horizons"`
}

func (m *LinearModel) Predict(f Features, h Horizon) (float64, bool) {
	if m == nil {
		return 0, false
	}
	c, ok := m.Horizons[h]
	if !ok {
		return 0, false
	}
	y := c.Intercept
	for i, x := range f.vector() {
		y += c.Weights[i] * x
	}
	return y, true
}

type nopPredictor struct{}

func (nopPredictor) Predict(Features, Horizon) (float64, bool) { return 0, false }

// Load reads a model file. A missing file is not an error: the returned
// predictor answers nothing until a model is trained.
func Load(path string) (Predictor, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nopPredictor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	for h := range m.Horizons {
		if h != Horizon1d && h != Horizon28d {
			return nil, fmt.Errorf("%w: %q", ErrUnknownHorizon, h)
		}
	}
	return &m, nil
}

// Both returns the 1d and 28d predictions that are available.
func Both(p Predictor, f Features) map[Horizon]float64 {
	out := make(map[Horizon]float64, 2)
	if p == nil {
		return out
	}
	for _, h := range []Horizon{Horizon1d, Horizon28d} {
		if v, ok := p.Predict(f, h); ok {
			out[h] = v
		}
	}
	return out
}
