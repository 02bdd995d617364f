package deck

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"deckforge/internal/domain"
	"deckforge/internal/providers/image"
)

// DefaultMaxConcurrent bounds how many generation runs may execute at once.
const DefaultMaxConcurrent = 3

const maxTopicInFilename = 30

// OutlineAcquirer produces a structured outline, or domain.ErrNoOutline when
// every model candidate is exhausted.
type OutlineAcquirer interface {
	Acquire(ctx context.Context, topic string, unitCount int, language string) (*domain.OutlineDocument, error)
}

// ImageFetcher acquires one illustration per content unit and handles the
// compliance callback for tracked results.
type ImageFetcher interface {
	Fetch(ctx context.Context, query string, dims image.Dimensions) *domain.ImageResult
	TriggerDownload(ctx context.Context, trackingURL string)
}

// Options wires an Orchestrator.
type Options struct {
	Outline       OutlineAcquirer
	Images        ImageFetcher
	NewRenderer   RendererFactory
	History       domain.HistoryStore // optional
	OutputDir     string
	MaxConcurrent int64
	Logger        *zerolog.Logger
}

// Orchestrator sequences one generation job: admission, outline acquisition,
// per-unit image acquisition, rendering, and artifact persistence. It is the
// sole writer of a job's mutable state.
type Orchestrator struct {
	outline     OutlineAcquirer
	images      ImageFetcher
	newRenderer RendererFactory
	history     domain.HistoryStore
	outputDir   string
	sem         *semaphore.Weighted
	logger      zerolog.Logger

	mu   sync.RWMutex
	jobs map[string]*domain.GenerationJob
}

// JobParams are the caller-supplied inputs for one generation run.
type JobParams struct {
	UserID    string
	Topic     string
	UnitCount int
	Language  string // display name, e.g. "English"
	Template  string
	Progress  ProgressFunc
}

// NewOrchestrator validates collaborators and builds an orchestrator with an
// admission limit of MaxConcurrent (default 3).
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Outline == nil {
		return nil, fmt.Errorf("deck: outline acquirer is required")
	}
	if opts.Images == nil {
		return nil, fmt.Errorf("deck: image fetcher is required")
	}
	if opts.NewRenderer == nil {
		return nil, fmt.Errorf("deck: renderer factory is required")
	}
	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		outputDir = "generated_decks"
	}
	limit := opts.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Orchestrator{
		outline:     opts.Outline,
		images:      opts.Images,
		newRenderer: opts.NewRenderer,
		history:     opts.History,
		outputDir:   outputDir,
		sem:         semaphore.NewWeighted(limit),
		logger:      logger,
		jobs:        make(map[string]*domain.GenerationJob),
	}, nil
}

// Submit registers a new pending job and runs it on its own goroutine. The
// run is detached from the caller's context: an admitted job always reaches
// a terminal state.
func (o *Orchestrator) Submit(params JobParams) (*domain.GenerationJob, error) {
	job, err := o.newJob(params)
	if err != nil {
		return nil, err
	}
	go func() {
		if _, err := o.Run(context.Background(), job.ID, params.Progress); err != nil {
			o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("deck: job failed")
		}
	}()
	return o.snapshot(job.ID)
}

// Generate runs a job synchronously under the caller's context and returns
// the artifact path.
func (o *Orchestrator) Generate(ctx context.Context, params JobParams) (string, error) {
	job, err := o.newJob(params)
	if err != nil {
		return "", err
	}
	return o.Run(ctx, job.ID, params.Progress)
}

func (o *Orchestrator) newJob(params JobParams) (*domain.GenerationJob, error) {
	topic := strings.TrimSpace(params.Topic)
	if topic == "" {
		return nil, domain.ErrInvalidTopic
	}
	now := time.Now()
	job := &domain.GenerationJob{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		Topic:     topic,
		UnitCount: domain.ClampUnitCount(params.UnitCount),
		Language:  params.Language,
		Template:  params.Template,
		Status:    domain.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.mu.Lock()
	o.jobs[job.ID] = job
	o.mu.Unlock()
	return job, nil
}

// Run executes the registered job under one admission slot. The slot is
// released on every exit path. Only outline exhaustion and artifact save
// errors surface as job failures; image acquisition cannot fail.
func (o *Orchestrator) Run(ctx context.Context, jobID string, progress ProgressFunc) (string, error) {
	o.mu.RLock()
	job := o.jobs[jobID]
	o.mu.RUnlock()
	if job == nil {
		return "", domain.ErrNotFound
	}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.fail(job, fmt.Errorf("admission: %w", err))
		return "", err
	}
	defer o.sem.Release(1)

	o.setStatus(job, domain.JobStatusRunning)
	notify(progress, MilestoneAdmitted, job.ID)
	o.logger.Info().
		Str("job_id", job.ID).
		Str("topic", job.Topic).
		Int("units", job.UnitCount).
		Msg("deck: job admitted")

	outline, err := o.outline.Acquire(ctx, job.Topic, job.UnitCount, job.Language)
	if err != nil {
		o.fail(job, err)
		return "", err
	}
	o.setStatus(job, domain.JobStatusAssembling)
	notify(progress, MilestoneOutlineReady, outline.Title)

	renderer, err := o.newRenderer(job.Template)
	if err != nil {
		o.fail(job, err)
		return "", err
	}

	title := outline.Title
	if title == "" {
		title = job.Topic
	}
	renderer.AddTitleSlide(title, outline.Subtitle)

	total := len(outline.Units)
	for i, unit := range outline.Units {
		imagePath := ""
		var credit *domain.ImageCredit
		if strings.TrimSpace(unit.ImageQuery) != "" {
			if result := o.images.Fetch(ctx, unit.ImageQuery, image.DefaultDimensions); result != nil {
				imagePath = result.Path
				credit = result.Credit
				if result.TrackingURL != "" {
					o.images.TriggerDownload(ctx, result.TrackingURL)
				}
			}
		}
		renderer.AddContentSlide(unit.Title, unit.Bullets, imagePath, credit)
		notify(progress, MilestoneUnitRendered, unitDetail(i, total))
	}

	savedPath, err := renderer.Save(o.artifactBasePath(job.Topic))
	if err != nil {
		o.fail(job, fmt.Errorf("save artifact: %w", err))
		return "", err
	}

	o.complete(job, savedPath)
	o.recordHistory(ctx, job, savedPath)
	o.logger.Info().Str("job_id", job.ID).Str("path", savedPath).Msg("deck: job complete")
	return savedPath, nil
}

// Job returns a snapshot of the job's current state.
func (o *Orchestrator) Job(id string) (*domain.GenerationJob, error) {
	return o.snapshot(id)
}

func (o *Orchestrator) snapshot(id string) (*domain.GenerationJob, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	job, ok := o.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (o *Orchestrator) setStatus(job *domain.GenerationJob, status domain.JobStatus) {
	o.mu.Lock()
	job.Status = status
	job.UpdatedAt = time.Now()
	o.mu.Unlock()
}

func (o *Orchestrator) fail(job *domain.GenerationJob, cause error) {
	o.mu.Lock()
	job.Status = domain.JobStatusFailed
	job.ErrorMessage = cause.Error()
	job.UpdatedAt = time.Now()
	o.mu.Unlock()
}

func (o *Orchestrator) complete(job *domain.GenerationJob, path string) {
	o.mu.Lock()
	job.Status = domain.JobStatusComplete
	job.ResultPath = path
	job.UpdatedAt = time.Now()
	o.mu.Unlock()
}

func (o *Orchestrator) recordHistory(ctx context.Context, job *domain.GenerationJob, path string) {
	if o.history == nil {
		return
	}
	entry := &domain.HistoryEntry{
		ID:        job.ID,
		UserID:    job.UserID,
		Topic:     job.Topic,
		Template:  job.Template,
		Language:  job.Language,
		Path:      path,
		CreatedAt: time.Now(),
	}
	if err := o.history.Record(ctx, entry); err != nil {
		o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("deck: record history failed")
	}
}

// artifactBasePath derives a deterministic output location from the topic;
// the renderer appends its format extension. The name component is fully
// sanitized so a hostile topic cannot escape the output directory.
func (o *Orchestrator) artifactBasePath(topic string) string {
	return filepath.Join(o.outputDir, artifactName(topic))
}

// artifactName truncates the topic to maxTopicInFilename runes and keeps
// only filename-safe characters. Path separators and dots are dropped
// entirely; spaces become underscores.
func artifactName(topic string) string {
	runes := []rune(strings.TrimSpace(topic))
	if len(runes) > maxTopicInFilename {
		runes = runes[:maxTopicInFilename]
	}
	var sb strings.Builder
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "deck"
	}
	return sb.String()
}
