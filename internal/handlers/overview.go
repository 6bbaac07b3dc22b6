package handlers

import (
	"net/http"
)

type overviewMessageJSON struct {
	ChatID      int    `json:"chatId"`
	LastMessage string `json:"lastMessage"`
	Time        int64  `json:"time"`
}

// GetOverviewHandler handles GET /api/overview/me, the dashboard summary.
func (h *Handler) GetOverviewHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, "")
	if !ok {
		return
	}

	o, err := h.Store.GetOverview(r.Context(), id.UserID)
	if err != nil {
		writeError(w, "Failed to fetch overview", http.StatusInternalServerError)
		return
	}

	recent := make([]overviewMessageJSON, 0, len(o.RecentMessages))
	for _, p := range o.RecentMessages {
		recent = append(recent, overviewMessageJSON{
			ChatID:      p.ID,
			LastMessage: p.LastMessage,
			Time:        p.LastActivity.UnixMilli(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":          o.Stats,
		"recentJobs":     o.RecentJobs,
		"recentMessages": recent,
	})
}
