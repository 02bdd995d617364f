package image

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"deckforge/internal/domain"
	"deckforge/internal/storage"
)

const (
	// shortCooldown follows a transient fault (server error, timeout,
	// download failure); longCooldown follows an auth or quota failure.
	shortCooldown = 5 * time.Minute
	longCooldown  = time.Hour

	trackingTimeout = 5 * time.Second
)

// FetcherOptions configures the image acquisition chain.
type FetcherOptions struct {
	UnsplashKey    string
	PexelsKey      string
	PixabayKey     string
	Cache          *storage.FileStore
	PlaceholderDir string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger

	// Providers overrides the default chain; the state table still gates
	// every entry except the last.
	Providers []Provider
	Table     *StateTable
}

// Fetcher drives the ordered provider chain. Each enabled provider gets a
// single bounded attempt; the first success wins. Failures trip a cooldown
// in the shared state table and the chain moves on. The tail of the chain
// is unconditionally available, so acquisition never fails outward.
type Fetcher struct {
	providers   []Provider
	table       *StateTable
	logger      zerolog.Logger
	unsplashKey string
	client      *http.Client
}

// NewFetcher assembles the default provider chain in strict priority order:
// the keyed search APIs first, then the keyless sources, the local
// placeholder pool, and finally the never-disabled Picsum anchor.
func NewFetcher(opts FetcherOptions) (*Fetcher, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	table := opts.Table
	if table == nil {
		table = NewStateTable()
	}
	providers := opts.Providers
	if len(providers) == 0 {
		if opts.Cache == nil {
			return nil, fmt.Errorf("image: cache store is required")
		}
		dl := newDownloader(opts.Cache, opts.HTTPClient, logger)
		providers = []Provider{
			NewUnsplashProvider(opts.UnsplashKey, opts.HTTPClient, dl),
			NewPexelsProvider(opts.PexelsKey, opts.HTTPClient, dl),
			NewPixabayProvider(opts.PixabayKey, opts.HTTPClient, dl),
			NewWikimediaProvider(opts.HTTPClient, dl),
			NewPollinationsProvider(dl),
			NewUnsplashSourceProvider(dl),
			NewPlaceholderProvider(opts.PlaceholderDir, opts.Cache),
			NewLoremFlickrProvider(dl),
			NewPicsumProvider(dl),
		}
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: trackingTimeout}
	}
	return &Fetcher{
		providers:   providers,
		table:       table,
		logger:      logger,
		unsplashKey: opts.UnsplashKey,
		client:      client,
	}, nil
}

// Table exposes the provider state table shared by concurrent callers.
func (f *Fetcher) Table() *StateTable {
	return f.table
}

// Fetch walks the chain for the given query and returns the first usable
// result. It returns nil only for a blank query; otherwise some provider in
// the guaranteed tail produces an image.
func (f *Fetcher) Fetch(ctx context.Context, query string, dims Dimensions) *domain.ImageResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if dims.Width <= 0 || dims.Height <= 0 {
		dims = DefaultDimensions
	}

	last := len(f.providers) - 1
	for i, provider := range f.providers {
		name := provider.Name()
		if !provider.Ready() {
			continue
		}
		if i != last && !f.table.Available(name) {
			f.logger.Debug().Str("provider", name).Msg("image: provider in cooldown, skipping")
			continue
		}

		result, err := provider.Fetch(ctx, query, dims)
		if err == nil && result != nil {
			f.logger.Info().Str("provider", name).Str("query", query).Msg("image: fetched")
			return result
		}
		if ctx.Err() != nil {
			return nil
		}
		if i == last {
			f.logger.Error().Err(err).Str("provider", name).Msg("image: final fallback failed")
			return nil
		}
		if errors.Is(err, errNoResults) {
			f.logger.Debug().Str("provider", name).Str("query", query).Msg("image: no results, trying next")
			continue
		}
		cooldown := shortCooldown
		if errors.Is(err, ErrQuotaExhausted) {
			cooldown = longCooldown
		}
		f.table.Disable(name, cooldown)
		f.logger.Warn().Err(err).
			Str("provider", name).
			Dur("cooldown", cooldown).
			Msg("image: provider failed, disabled")
	}
	return nil
}

// TriggerDownload issues the compliance callback required by the primary
// provider's terms when a tracked image is used. Best effort: failures are
// logged and swallowed.
func (f *Fetcher) TriggerDownload(ctx context.Context, trackingURL string) {
	if trackingURL == "" || f.unsplashKey == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, trackingTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackingURL, nil)
	if err != nil {
		f.logger.Warn().Err(err).Msg("image: build tracking request failed")
		return
	}
	req.Header.Set("Authorization", "Client-ID "+f.unsplashKey)
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", trackingURL).Msg("image: tracking request failed")
		return
	}
	_ = resp.Body.Close()
	f.logger.Info().Str("url", trackingURL).Msg("image: triggered download tracking")
}
