package recommend

import (
	"encoding/json"
	"net/http"

	"SeedLab/internal/calc/formulation"
)

type Handler struct{}

func (h *Handler) MaxSolids(w http.ResponseWriter, r *http.Request) {
	input := formulation.DefaultInput()
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := MaxSolids(input)
	if err != nil {
		http.Error(w, "Calculation error", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
