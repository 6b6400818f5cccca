package importer

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

const maxUploadSize = 10 << 20

type Handler struct {
	Importer *Importer
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	cat, err := ParseCategory(mux.Vars(r)["category"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "File too big", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	sum, err := h.Importer.Import(r.Context(), cat, file)
	if err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		slog.WarnContext(r.Context(), "import rejected", "category", cat, "error", err)
		http.Error(w, "Invalid file: "+err.Error(), http.StatusBadRequest)
		return
	}
	slog.InfoContext(r.Context(), "import finished", "category", cat, "imported", sum.Imported, "skipped", sum.Skipped)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sum)
}

// Template returns an empty workbook carrying a category's headers.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	cat, err := ParseCategory(mux.Vars(r)["category"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+string(cat)+"_template.xlsx\"")
	if err := WriteTemplate(w, cat); err != nil {
		slog.ErrorContext(r.Context(), "write template", "error", err)
	}
}
