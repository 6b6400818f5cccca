package lab

import (
	"encoding/json"
	"net/http"
	"strings"

	"SeedLab/internal/repo"
)

func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.ListMaterials(r.Context())
	if err != nil {
		storeError(w, r, "list materials", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var m repo.RawMaterial
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	m.MaterialName = strings.TrimSpace(m.MaterialName)
	if m.MaterialName == "" {
		http.Error(w, "Material name required", http.StatusBadRequest)
		return
	}
	if m.PurityPercent <= 0 || m.PurityPercent > 100 {
		m.PurityPercent = 100
	}
	if m.ChemicalType == "" {
		m.ChemicalType = "Other"
	}
	if m.RemainingQuantityKg == 0 {
		m.RemainingQuantityKg = m.InitialQuantityKg
	}
	if err := h.Repo.CreateMaterial(r.Context(), &m); err != nil {
		storeError(w, r, "create material", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteMaterial(r.Context(), id); err != nil {
		storeError(w, r, "delete material", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
