package predict

import (
	"encoding/json"
	"net/http"
)

type Handler struct {
	Predictor Predictor
}

type Response struct {
	Predictions map[Horizon]float64 `json:"predictions"`
	Available   bool                `json:"available"`
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var f Features
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	preds := Both(h.Predictor, f)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Response{Predictions: preds, Available: len(preds) > 0})
}
