package handlers

import (
	"net/http"

	"github.com/Dosada05/competition-ledger/services"
)

type DashboardHandler struct {
	adminService       services.AdminService
	leaderboardService services.LeaderboardService
}

func NewDashboardHandler(as services.AdminService, ls services.LeaderboardService) *DashboardHandler {
	return &DashboardHandler{adminService: as, leaderboardService: ls}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.GetStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Leaderboard: публичная таблица лидеров, ?limit= ограничивает число строк.
func (h *DashboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboardService.GetLeaderboard(r.Context(), toInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
