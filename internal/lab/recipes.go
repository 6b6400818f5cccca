package lab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"SeedLab/internal/auth"
	"SeedLab/internal/calc/formulation"
	"SeedLab/internal/calc/recommend"
	"SeedLab/internal/calc/report"
	"SeedLab/internal/repo"
)

type recipeResponse struct {
	Recipe      repo.Recipe          `json:"recipe"`
	Formulation formulation.Response `json:"formulation"`
}

func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.ListRecipes(r.Context(), strings.TrimSpace(r.URL.Query().Get("name")))
	if err != nil {
		storeError(w, r, "list recipes", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.Repo.GetRecipe(r.Context(), id)
	if err != nil {
		storeError(w, r, "get recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateRecipe solves the submitted parameters and stores the recipe only
// when the balance closes with non-negative water.
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	rec := repo.Recipe{Params: formulation.DefaultInput()}
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		http.Error(w, "Recipe name required", http.StatusBadRequest)
		return
	}
	if err := rec.Provenance.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	in := rec.FormulationInput()
	res, err := formulation.Calculate(in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out := formulation.Respond(res, in, h.Predictor)
	if !res.Feasible() {
		writeJSON(w, http.StatusUnprocessableEntity, out)
		return
	}

	if rec.ParentID != nil {
		parent, err := h.Repo.GetRecipe(r.Context(), *rec.ParentID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				http.Error(w, "Parent recipe not found", http.StatusBadRequest)
				return
			}
			storeError(w, r, "get parent recipe", err)
			return
		}
		rec.Version = parent.Version + 1
	}
	rec.CreatedBy = auth.Email(r.Context())
	if rec.RecipeDate.IsZero() {
		rec.RecipeDate = h.now()
	}

	if err := h.Repo.CreateRecipe(r.Context(), &rec); err != nil {
		storeError(w, r, "create recipe", err)
		return
	}
	writeJSON(w, http.StatusCreated, recipeResponse{Recipe: rec, Formulation: out})
}

func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteRecipe(r.Context(), id); err != nil {
		storeError(w, r, "delete recipe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadRecipe(w http.ResponseWriter, r *http.Request) (repo.Recipe, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return repo.Recipe{}, false
	}
	rec, err := h.Repo.GetRecipe(r.Context(), id)
	if err != nil {
		storeError(w, r, "get recipe", err)
		return repo.Recipe{}, false
	}
	return rec, true
}

// RecipeFormulation re-solves a stored recipe from its saved inputs.
func (h *Handler) RecipeFormulation(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadRecipe(w, r)
	if !ok {
		return
	}
	in := rec.FormulationInput()
	res, err := formulation.Calculate(in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, formulation.Respond(res, in, h.Predictor))
}

func (h *Handler) RecipeMaxSolids(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadRecipe(w, r)
	if !ok {
		return
	}
	res, err := recommend.MaxSolids(rec.FormulationInput())
	if errors.Is(err, recommend.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, "Calculation error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) RecipeReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadRecipe(w, r)
	if !ok {
		return
	}
	in := rec.FormulationInput()
	res, err := formulation.Calculate(in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var notes []string
	for _, k := range []repo.ProvenanceKey{
		repo.ProvenanceCaSource, repo.ProvenanceSiSource, repo.ProvenancePCESource,
		repo.ProvenanceFeedingSequence, repo.ProvenanceProcedureNotes,
	} {
		if v := rec.Provenance[k]; v != "" {
			notes = append(notes, fmt.Sprintf("%s: %s", k, v))
		}
	}

	var buf bytes.Buffer
	err = report.Write(&buf, report.Input{
		Recipe:      fmt.Sprintf("%s (v%d)", rec.Name, rec.Version),
		Author:      rec.CreatedBy,
		Notes:       strings.Join(notes, "\n"),
		Formulation: &in,
	}, res, rec.RecipeDate)
	if err != nil {
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "recipe-"+rec.ID.String()+".pdf"))
	w.Write(buf.Bytes())
}
