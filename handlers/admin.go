package handlers

import (
	"context"
	"net/http"

	"github.com/kevinaaaquil/bookstore/backend/models"
)

type StatsSource interface {
	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

type AdminHandler struct {
	Source StatsSource
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Source.AdminStats(r.Context())
	if err != nil {
		writeFailure(w, r, "Failed to fetch admin stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
