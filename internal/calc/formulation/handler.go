package formulation

import (
	"encoding/json"
	"errors"
	"net/http"

	"SeedLab/internal/predict"
)

type Handler struct {
	Predictor predict.Predictor
}

type Response struct {
	Result
	Warnings    []string                    `json:"warnings,omitempty"`
	Predictions map[predict.Horizon]float64 `json:"predictions,omitempty"`
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	input := DefaultInput()
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Calculate(input)
	if err != nil {
		if errors.Is(err, ErrUnknownAnchor) || errors.Is(err, ErrUnknownPCEBasis) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Calculation error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Respond(res, input, h.Predictor))
}

// Respond decorates a result with user-facing warnings and strength
// predictions. Predictions are looked up after the solve and never feed back.
func Respond(res Result, in Input, p predict.Predictor) Response {
	out := Response{Result: res}
	for _, c := range res.Conditions {
		out.Warnings = append(out.Warnings, c.Message())
	}
	if p != nil {
		preds := predict.Both(p, Features(in))
		if len(preds) > 0 {
			out.Predictions = preds
		}
	}
	return out
}

// Features maps a request onto the strength model inputs.
func Features(in Input) predict.Features {
	return predict.Features{
		CaSiRatio:  in.CaSiRatio,
		MolarityCa: in.MolarityCa,
		SolidsPct:  in.TargetSolidsPct,
		PCEDosage:  in.PCEDosage,
	}
}
