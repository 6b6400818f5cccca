package lab

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"SeedLab/internal/predict"
	"SeedLab/internal/repo"
)

// Handler serves the lab record endpoints: inventory, recipes, synthesis
// batches and their measurements.
type Handler struct {
	Repo      repo.LabRepository
	Predictor predict.Predictor
	Now       func() time.Time
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/materials", h.ListMaterials).Methods("GET")
	r.HandleFunc("/materials", h.CreateMaterial).Methods("POST")
	r.HandleFunc("/materials/{id}", h.DeleteMaterial).Methods("DELETE")

	r.HandleFunc("/stock", h.ListStock).Methods("GET")
	r.HandleFunc("/stock", h.CreateStock).Methods("POST")
	r.HandleFunc("/stock/next-code", h.NextStockCode).Methods("GET")
	r.HandleFunc("/stock/{id}", h.DeleteStock).Methods("DELETE")

	r.HandleFunc("/recipes", h.ListRecipes).Methods("GET")
	r.HandleFunc("/recipes", h.CreateRecipe).Methods("POST")
	r.HandleFunc("/recipes/{id}", h.GetRecipe).Methods("GET")
	r.HandleFunc("/recipes/{id}", h.DeleteRecipe).Methods("DELETE")
	r.HandleFunc("/recipes/{id}/formulation", h.RecipeFormulation).Methods("GET")
	r.HandleFunc("/recipes/{id}/max-solids", h.RecipeMaxSolids).Methods("GET")
	r.HandleFunc("/recipes/{id}/report", h.RecipeReport).Methods("GET")

	r.HandleFunc("/batches", h.ListBatches).Methods("GET")
	r.HandleFunc("/batches", h.CreateBatch).Methods("POST")
	r.HandleFunc("/batches/{id}/qc", h.ListQC).Methods("GET")
	r.HandleFunc("/batches/{id}/qc", h.AddQC).Methods("POST")
	r.HandleFunc("/batches/{id}/performance", h.ListPerformance).Methods("GET")
	r.HandleFunc("/batches/{id}/performance", h.AddPerformance).Methods("POST")

	r.HandleFunc("/training-data", h.TrainingData).Methods("GET")
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// storeError maps repository failures onto responses.
func storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	slog.ErrorContext(r.Context(), op, "error", err)
	http.Error(w, "DB error", http.StatusInternalServerError)
}

func (h *Handler) TrainingData(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Repo.TrainingRows(r.Context())
	if err != nil {
		storeError(w, r, "training rows", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
