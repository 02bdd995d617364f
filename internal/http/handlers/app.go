package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"deckforge/internal/deck"
	"deckforge/internal/domain"
	"deckforge/internal/storage"
)

// App carries the collaborators shared by every handler.
type App struct {
	Decks   *deck.Orchestrator
	History domain.HistoryStore // nil when no database is configured
	Cache   *storage.FileStore
	Logger  zerolog.Logger
}

func NewApp(decks *deck.Orchestrator, history domain.HistoryStore, cache *storage.FileStore, logger zerolog.Logger) *App {
	return &App{Decks: decks, History: history, Cache: cache, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

// currentUserID reads the caller identity forwarded by the gateway. Auth
// itself is an outer concern; an empty ID means an anonymous caller.
func (a *App) currentUserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}
