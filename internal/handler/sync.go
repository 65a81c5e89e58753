package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/loyalty-club/internal/repository"
	"github.com/sakif/loyalty-club/internal/service"
)

// SyncHandler is the surface the external exporter and the UI status badge
// consume: how many local mutations await sync, when the last reconciliation
// ran, the full-table export, and the post-export flush.
type SyncHandler struct {
	loyalty *service.LoyaltyService
	meta    repository.MetaRepository
	logger  *slog.Logger
}

func NewSyncHandler(loyalty *service.LoyaltyService, meta repository.MetaRepository, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{loyalty: loyalty, meta: meta, logger: logger}
}

// statusResponse reports the sync state. LastSync is null until the first
// successful reconciliation.
type statusResponse struct {
	Pending  int        `json:"pending"`
	LastSync *time.Time `json:"lastSync"`
}

// HandleStatus returns the pending-mutation count and last sync time.
//
// HTTP: GET /api/sync/status
func (h *SyncHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := h.loyalty.PendingCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	lastSync, err := h.meta.LastSync(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	res := statusResponse{Pending: count}
	if !lastSync.IsZero() {
		res.LastSync = &lastSync
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleActions returns the full pending-action log in append order.
//
// HTTP: GET /api/sync/actions
func (h *SyncHandler) HandleActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.loyalty.PendingActions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

// HandleExport serves the full user table as pretty-printed JSON, shaped as a
// download so the browser hands it straight to the venue's file workflow.
//
// HTTP: GET /api/sync/export
func (h *SyncHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	out, err := h.loyalty.ExportUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="usuarios-actualizados.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.Error("failed to write export", slog.String("error", err.Error()))
	}
}

// HandleFlush clears the pending log. Only the exporter calls this, after it
// has confirmed the exported user table is durably written elsewhere — the
// core itself never decides the log is safe to drop.
//
// HTTP: POST /api/sync/flush
func (h *SyncHandler) HandleFlush(w http.ResponseWriter, r *http.Request) {
	if err := h.loyalty.ClearPending(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("pending log flushed")
	w.WriteHeader(http.StatusNoContent)
}
