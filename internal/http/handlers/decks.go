package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"deckforge/internal/deck"
	"deckforge/internal/domain"
	"deckforge/internal/middleware"
	"deckforge/pkg/zip"
)

type deckGenerateRequest struct {
	Topic    string `json:"topic"`
	Slides   int    `json:"slides"`
	Language string `json:"language"`
	Template string `json:"template"`
}

type deckJobResponse struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	Topic    string `json:"topic"`
	Slides   int    `json:"slides"`
	Language string `json:"language"`
	Template string `json:"template"`
}

// DecksGenerate enqueues a generation job and returns immediately. The job
// runs detached and always reaches a terminal state.
func (a *App) DecksGenerate(w http.ResponseWriter, r *http.Request) {
	var req deckGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "topic is required")
		return
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = middleware.LocaleFromContext(r.Context())
	}

	job, err := a.Decks.Submit(deck.JobParams{
		UserID:    a.currentUserID(r),
		Topic:     req.Topic,
		UnitCount: req.Slides,
		Language:  middleware.LanguageDisplayName(language),
		Template:  req.Template,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTopic) {
			a.error(w, http.StatusBadRequest, "bad_request", "topic is required")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: enqueue deck job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}
	a.json(w, http.StatusAccepted, deckJobResponse{
		JobID:    job.ID,
		Status:   string(job.Status),
		Topic:    job.Topic,
		Slides:   job.UnitCount,
		Language: job.Language,
		Template: job.Template,
	})
}

// DeckStatus reports the current state of a job.
func (a *App) DeckStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	resp := map[string]any{
		"job_id":     job.ID,
		"status":     string(job.Status),
		"topic":      job.Topic,
		"slides":     job.UnitCount,
		"language":   job.Language,
		"template":   job.Template,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	if job.ErrorMessage != "" {
		resp["error_message"] = job.ErrorMessage
	}
	if job.ResultPath != "" {
		resp["result_path"] = job.ResultPath
	}
	a.json(w, http.StatusOK, resp)
}

// DeckDownload serves the finished artifact.
func (a *App) DeckDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadFinishedJob(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(job.ResultPath)+"\"")
	http.ServeFile(w, r, job.ResultPath)
}

// DeckBundle serves a zip of the artifact plus every image it references.
func (a *App) DeckBundle(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadFinishedJob(w, r)
	if !ok {
		return
	}
	data, err := zip.BundleDeck(job.ResultPath)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("handlers: bundle deck")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	name := strings.TrimSuffix(filepath.Base(job.ResultPath), filepath.Ext(job.ResultPath)) + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	_, _ = w.Write(data)
}

func (a *App) loadJob(w http.ResponseWriter, r *http.Request) (*domain.GenerationJob, bool) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return nil, false
	}
	job, err := a.Decks.Job(jobID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return nil, false
	}
	return job, true
}

func (a *App) loadFinishedJob(w http.ResponseWriter, r *http.Request) (*domain.GenerationJob, bool) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return nil, false
	}
	if !job.Status.Terminal() {
		a.error(w, http.StatusConflict, "not_ready", domain.ErrJobNotTerminal.Error())
		return nil, false
	}
	if job.Status == domain.JobStatusFailed || job.ResultPath == "" {
		a.error(w, http.StatusNotFound, "not_found", "no artifact for this job")
		return nil, false
	}
	if _, err := os.Stat(job.ResultPath); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "artifact no longer available")
		return nil, false
	}
	return job, true
}
