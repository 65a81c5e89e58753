package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/loyalty-club/internal/service"
)

// PromoHandler serves the read-only promotion catalogue.
type PromoHandler struct {
	loyalty *service.LoyaltyService
	logger  *slog.Logger
}

func NewPromoHandler(loyalty *service.LoyaltyService, logger *slog.Logger) *PromoHandler {
	return &PromoHandler{loyalty: loyalty, logger: logger}
}

// HandleList returns all current promotions.
//
// HTTP: GET /api/promos
func (h *PromoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	promos, err := h.loyalty.ListPromos(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promos)
}
