package handlers

import (
	"net/http"
	"strconv"
)

const defaultHistoryLimit = 10

// HistoryList returns the caller's recent generations, newest first.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotImplemented, "unavailable", "history storage is not configured")
		return
	}
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	entries, err := a.History.ListRecent(r.Context(), userID, limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: list history")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{
			"id":         e.ID,
			"topic":      e.Topic,
			"template":   e.Template,
			"language":   e.Language,
			"created_at": e.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
