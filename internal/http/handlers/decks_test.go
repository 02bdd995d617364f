package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"deckforge/internal/deck"
	"deckforge/internal/domain"
	"deckforge/internal/providers/image"
	"deckforge/internal/render"
	"deckforge/internal/storage"
)

type stubOutline struct {
	gate chan struct{}
}

func (s *stubOutline) Acquire(ctx context.Context, topic string, unitCount int, language string) (*domain.OutlineDocument, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &domain.OutlineDocument{
		Title: topic,
		Units: []domain.ContentUnit{{Title: "One", Bullets: []string{"a"}}},
	}, nil
}

type stubImages struct{}

func (stubImages) Fetch(ctx context.Context, query string, dims image.Dimensions) *domain.ImageResult {
	return nil
}

func (stubImages) TriggerDownload(ctx context.Context, trackingURL string) {}

func newTestApp(t *testing.T, outline deck.OutlineAcquirer) (*App, http.Handler) {
	t.Helper()
	cache, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	orchestrator, err := deck.NewOrchestrator(deck.Options{
		Outline:     outline,
		Images:      stubImages{},
		NewRenderer: render.Factory,
		OutputDir:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewOrchestrator returned error: %v", err)
	}
	app := NewApp(orchestrator, nil, cache, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/v1/decks", app.DecksGenerate)
	r.Get("/v1/decks/{job_id}", app.DeckStatus)
	r.Get("/v1/decks/{job_id}/download", app.DeckDownload)
	r.Get("/v1/decks/{job_id}/bundle", app.DeckBundle)
	r.Get("/v1/history", app.HistoryList)
	r.Get("/v1/templates", app.Templates)
	r.Post("/v1/admin/cache/cleanup", app.CacheCleanup)
	return app, r
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var payload map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, payload
}

func waitForStatus(t *testing.T, handler http.Handler, jobID, want string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, payload := doJSON(t, handler, http.MethodGet, "/v1/decks/"+jobID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status code = %d, want 200", rec.Code)
		}
		if payload["status"] == want {
			return payload
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", jobID, want)
	return nil
}

func TestDecksGenerateLifecycle(t *testing.T) {
	_, handler := newTestApp(t, &stubOutline{})

	rec, payload := doJSON(t, handler, http.MethodPost, "/v1/decks", `{"topic":"solar power","slides":1}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status code = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	jobID, _ := payload["job_id"].(string)
	if jobID == "" {
		t.Fatalf("job_id missing in %v", payload)
	}

	final := waitForStatus(t, handler, jobID, string(domain.JobStatusComplete))
	if resultPath, _ := final["result_path"].(string); resultPath == "" {
		t.Fatalf("result_path missing in %v", final)
	}

	dlRec := httptest.NewRecorder()
	handler.ServeHTTP(dlRec, httptest.NewRequest(http.MethodGet, "/v1/decks/"+jobID+"/download", nil))
	if dlRec.Code != http.StatusOK {
		t.Fatalf("download status = %d, want 200", dlRec.Code)
	}
	if cd := dlRec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("Content-Disposition = %q, want attachment", cd)
	}

	bRec := httptest.NewRecorder()
	handler.ServeHTTP(bRec, httptest.NewRequest(http.MethodGet, "/v1/decks/"+jobID+"/bundle", nil))
	if bRec.Code != http.StatusOK {
		t.Fatalf("bundle status = %d, want 200", bRec.Code)
	}
	if ct := bRec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("bundle Content-Type = %q, want application/zip", ct)
	}
}

func TestDecksGenerateRejectsBlankTopic(t *testing.T) {
	_, handler := newTestApp(t, &stubOutline{})
	rec, _ := doJSON(t, handler, http.MethodPost, "/v1/decks", `{"topic":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400", rec.Code)
	}
}

func TestDecksGenerateRejectsBadPayload(t *testing.T) {
	_, handler := newTestApp(t, &stubOutline{})
	rec, _ := doJSON(t, handler, http.MethodPost, "/v1/decks", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400", rec.Code)
	}
}

func TestDeckStatusUnknownJob(t *testing.T) {
	_, handler := newTestApp(t, &stubOutline{})
	rec, _ := doJSON(t, handler, http.MethodGet, "/v1/decks/does-not-exist", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want 404", rec.Code)
	}
}

func TestDeckDownloadBeforeCompletionConflicts(t *testing.T) {
	gate := make(chan struct{})
	_, handler := newTestApp(t, &stubOutline{gate: gate})
	defer close(gate)

	rec, payload := doJSON(t, handler, http.MethodPost, "/v1/decks", `{"topic":"pending"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status code = %d, want 202", rec.Code)
	}
	jobID, _ := payload["job_id"].(string)

	dlRec, _ := doJSON(t, handler, http.MethodGet, "/v1/decks/"+jobID+"/download", "")
	if dlRec.Code != http.StatusConflict {
		t.Fatalf("download status = %d, want 409", dlRec.Code)
	}
}

func TestHistoryWithoutStoreUnavailable(t *testing.T) {
	_, handler := newTestApp(t, &stubOutline{})
	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status code = %d, want 501", rec.Code)
	}
}

func TestTemplatesListsSelectors(t *testing.T) {
	_, handler := newTestApp(t, &stubOutline{})
	rec, payload := doJSON(t, handler, http.MethodGet, "/v1/templates", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	templates, _ := payload["templates"].([]any)
	if len(templates) == 0 {
		t.Fatalf("templates missing in %v", payload)
	}
}

func TestCacheCleanup(t *testing.T) {
	_, handler := newTestApp(t, &stubOutline{})
	rec, payload := doJSON(t, handler, http.MethodPost, "/v1/admin/cache/cleanup", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if payload["status"] != "cleaned" {
		t.Fatalf("payload = %v, want status cleaned", payload)
	}
}
