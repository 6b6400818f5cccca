package lab

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"SeedLab/internal/repo"
)

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.ListBatches(r.Context())
	if err != nil {
		storeError(w, r, "list batches", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var b repo.SynthesisBatch
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	b.LabNotebookRef = strings.TrimSpace(b.LabNotebookRef)
	if b.LabNotebookRef == "" {
		http.Error(w, "Lab notebook reference required", http.StatusBadRequest)
		return
	}
	if b.Status != "" && !b.Status.Valid() {
		http.Error(w, "Unknown batch status", http.StatusBadRequest)
		return
	}

	rec, err := h.Repo.GetRecipe(r.Context(), b.RecipeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "Recipe not found", http.StatusBadRequest)
			return
		}
		storeError(w, r, "get recipe", err)
		return
	}
	b.RecipeName = rec.Name
	if b.ExecutionDate.IsZero() {
		b.ExecutionDate = h.now()
	}

	if err := h.Repo.CreateBatch(r.Context(), &b); err != nil {
		storeError(w, r, "create batch", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) AddQC(w http.ResponseWriter, r *http.Request) {
	batchID, ok := pathID(w, r)
	if !ok {
		return
	}
	var q repo.QCMeasurement
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if q.AgeingHours < 0 {
		http.Error(w, "Ageing hours must not be negative", http.StatusBadRequest)
		return
	}
	q.BatchID = batchID
	if q.MeasuredAt.IsZero() {
		q.MeasuredAt = h.now()
	}
	if err := h.Repo.AddQC(r.Context(), &q); err != nil {
		storeError(w, r, "add qc", err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) ListQC(w http.ResponseWriter, r *http.Request) {
	batchID, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := h.Repo.ListQC(r.Context(), batchID)
	if err != nil {
		storeError(w, r, "list qc", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

var testTypes = map[string]bool{"Mortar": true, "Cement Paste": true}

func (h *Handler) AddPerformance(w http.ResponseWriter, r *http.Request) {
	batchID, ok := pathID(w, r)
	if !ok {
		return
	}
	var p repo.PerformanceTest
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if p.TestType == "" {
		p.TestType = "Mortar"
	}
	if !testTypes[p.TestType] {
		http.Error(w, "Unknown test type", http.StatusBadRequest)
		return
	}
	p.BatchID = batchID
	if p.CastDate.IsZero() {
		p.CastDate = h.now()
	}
	if err := h.Repo.AddPerformance(r.Context(), &p); err != nil {
		storeError(w, r, "add performance", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListPerformance(w http.ResponseWriter, r *http.Request) {
	batchID, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := h.Repo.ListPerformance(r.Context(), batchID)
	if err != nil {
		storeError(w, r, "list performance", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
