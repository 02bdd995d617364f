package outline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"deckforge/internal/domain"
)

const (
	defaultBaseURL    = "https://openrouter.ai/api/v1"
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = time.Second

	refererHeader = "https://github.com/deckforge"
	titleHeader   = "DeckForge"
)

// DefaultModels is the built-in candidate list, in priority order. A
// candidate that failed on a previous acquisition is still tried first on
// the next one; recovering models get a fair chance every call.
var DefaultModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"meta-llama/llama-3.3-70b-instruct:free",
	"google/gemma-3-27b-it:free",
	"qwen/qwen3-coder:free",
	"mistralai/mistral-small-3.1-24b-instruct:free",
	"nousresearch/hermes-3-llama-3.1-405b:free",
	"google/gemma-3-12b-it:free",
	"qwen/qwen-2.5-vl-7b-instruct:free",
	"openchat/openchat-7b:free",
}

// Options configures an Acquirer.
type Options struct {
	APIKey     string
	BaseURL    string
	Models     []string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
	RetryDelay time.Duration // pause after a 429 before the next candidate
}

// Acquirer produces deck outlines by walking an ordered list of
// text-generation model candidates until one returns parseable output.
type Acquirer struct {
	apiKey     string
	baseURL    string
	models     []string
	client     *http.Client
	logger     zerolog.Logger
	retryDelay time.Duration
}

// NewAcquirer wires an outline acquirer against an OpenRouter-compatible
// chat completions API.
func NewAcquirer(opts Options) (*Acquirer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("outline: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	models := opts.Models
	if len(models) == 0 {
		models = DefaultModels
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &Acquirer{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		models:     models,
		client:     client,
		logger:     logger,
		retryDelay: retryDelay,
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Acquire walks the candidate list strictly in priority order, once each,
// and returns the first parseable outline. When every candidate fails it
// returns domain.ErrNoOutline; no other error crosses this boundary.
func (a *Acquirer) Acquire(ctx context.Context, topic string, unitCount int, language string) (*domain.OutlineDocument, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, domain.ErrInvalidTopic
	}
	unitCount = domain.ClampUnitCount(unitCount)
	prompt := buildOutlinePrompt(topic, unitCount, language)

	for _, model := range a.models {
		doc, retryAfter, err := a.tryCandidate(ctx, model, prompt)
		if err == nil {
			a.logger.Info().Str("model", model).Msg("outline: generated")
			return doc, nil
		}
		if ctx.Err() != nil {
			break
		}
		a.logger.Warn().Err(err).Str("model", model).Msg("outline: candidate failed")
		if retryAfter > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(retryAfter):
			}
		}
	}
	a.logger.Error().Msg("outline: all candidates failed or are rate-limited")
	return nil, domain.ErrNoOutline
}

// tryCandidate issues a single bounded request to one model. The returned
// duration is non-zero when the candidate was rate limited and the chain
// should pause briefly before moving on.
func (a *Acquirer) tryCandidate(ctx context.Context, model, prompt string) (*domain.OutlineDocument, time.Duration, error) {
	payload := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", refererHeader)
	req.Header.Set("X-Title", titleHeader)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, a.retryDelay, errors.New("rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("%w: status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, 0, errors.New("empty choices")
	}
	doc, err := parseOutline(out.Choices[0].Message.Content)
	if err != nil {
		return nil, 0, fmt.Errorf("parse outline: %w", err)
	}
	return doc, 0, nil
}

// parseOutline decodes the model's reply into an outline, tolerating
// markdown code fences around the JSON body.
func parseOutline(raw string) (*domain.OutlineDocument, error) {
	cleaned := trimCodeFence(raw)
	if cleaned == "" {
		return nil, errors.New("empty payload")
	}
	var doc domain.OutlineDocument
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
