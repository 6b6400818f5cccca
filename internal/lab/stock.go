package lab

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"SeedLab/internal/calc/stock"
	"SeedLab/internal/repo"
)

type stockRequest struct {
	Code            string             `json:"code"`
	ChemicalType    stock.ChemicalType `json:"chemical_type"`
	Molarity        float64            `json:"molarity"`
	TargetVolumeML  float64            `json:"target_volume_ml"`
	ActualMassG     *float64           `json:"actual_mass_g"`
	MolecularWt     float64            `json:"molecular_weight"`
	PurityPercent   float64            `json:"purity_percent"`
	PreparationDate time.Time          `json:"preparation_date"`
	RawMaterialID   *uuid.UUID         `json:"raw_material_id"`
	Operator        string             `json:"operator"`
	Notes           string             `json:"notes"`
}

func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.ListStock(r.Context())
	if err != nil {
		storeError(w, r, "list stock", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateStock records a prepared stock solution. Without an explicit code
// the next code of the day is assigned, and without a weighed mass the
// purity-corrected required mass is stored.
func (h *Handler) CreateStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.ChemicalType == "" {
		http.Error(w, "Chemical type required", http.StatusBadRequest)
		return
	}
	if req.PreparationDate.IsZero() {
		req.PreparationDate = h.now()
	}

	mass := 0.0
	if req.ActualMassG != nil {
		mass = *req.ActualMassG
	} else {
		res, err := stock.Calculate(stock.Input{
			ChemicalType:  req.ChemicalType,
			MolarityMolL:  req.Molarity,
			VolumeML:      req.TargetVolumeML,
			MolecularWt:   req.MolecularWt,
			PurityPercent: req.PurityPercent,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mass = res.RequiredMassG
	}

	if req.Code == "" {
		code, err := h.nextCode(r, req.ChemicalType, req.PreparationDate)
		if err != nil {
			storeError(w, r, "stock codes", err)
			return
		}
		req.Code = code
	}

	s := repo.StockSolutionBatch{
		Code:            req.Code,
		ChemicalType:    string(req.ChemicalType),
		Molarity:        req.Molarity,
		TargetVolumeML:  req.TargetVolumeML,
		ActualMassG:     mass,
		PreparationDate: req.PreparationDate,
		RawMaterialID:   req.RawMaterialID,
		Operator:        req.Operator,
		Notes:           req.Notes,
	}
	if err := h.Repo.CreateStock(r.Context(), &s); err != nil {
		storeError(w, r, "create stock", err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) nextCode(r *http.Request, t stock.ChemicalType, day time.Time) (string, error) {
	codes, err := h.Repo.StockCodes(r.Context(), stock.CodePrefix(t, day))
	if err != nil {
		return "", err
	}
	return stock.NextBatchCode(t, day, codes), nil
}

func (h *Handler) NextStockCode(w http.ResponseWriter, r *http.Request) {
	t := stock.ChemicalType(r.URL.Query().Get("chemical_type"))
	if t == "" {
		http.Error(w, "Chemical type required", http.StatusBadRequest)
		return
	}
	code, err := h.nextCode(r, t, h.now())
	if err != nil {
		storeError(w, r, "stock codes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

func (h *Handler) DeleteStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteStock(r.Context(), id); err != nil {
		storeError(w, r, "delete stock", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
