package handlers

import (
	"net/http"

	"deckforge/internal/render"
)

// Templates lists the selectors accepted by the generate endpoint.
func (a *App) Templates(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"templates": render.Templates()})
}

// CacheCleanup wipes the downloaded-image cache. Finished bundles may lose
// their images; the manifest itself stays intact.
func (a *App) CacheCleanup(w http.ResponseWriter, r *http.Request) {
	if a.Cache == nil {
		a.error(w, http.StatusNotImplemented, "unavailable", "image cache is not configured")
		return
	}
	if err := a.Cache.Cleanup(r.Context()); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: cache cleanup")
		a.error(w, http.StatusInternalServerError, "internal", "failed to clean cache")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "cleaned"})
}
