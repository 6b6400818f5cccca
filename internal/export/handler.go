package export

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"SeedLab/internal/repo"
)

type Handler struct {
	Repo repo.LabRepository
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := Write(r.Context(), h.Repo, &buf); err != nil {
		slog.ErrorContext(r.Context(), "export", "error", err)
		http.Error(w, "Export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+BackupName(time.Now())+"\"")
	w.Write(buf.Bytes())
}
