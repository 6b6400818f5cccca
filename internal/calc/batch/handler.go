package batch

import (
	"encoding/json"
	"net/http"

	"SeedLab/internal/calc/formulation"
)

type Handler struct{}

type scaleUpRequest struct {
	Base    *formulation.Input `json:"base"`
	Anchors []float64          `json:"anchors"`
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input BatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	writeResult(w, input)
}

func (h *Handler) ScaleUp(w http.ResponseWriter, r *http.Request) {
	base := formulation.DefaultInput()
	req := scaleUpRequest{Base: &base}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Base == nil {
		req.Base = &base
	}
	writeResult(w, ScaleUp(*req.Base, req.Anchors))
}

func writeResult(w http.ResponseWriter, input BatchInput) {
	res, err := Calculate(input)
	if err != nil {
		http.Error(w, "Calculation error", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
