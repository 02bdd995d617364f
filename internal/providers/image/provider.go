package image

import (
	"context"
	"errors"
	"fmt"

	"deckforge/internal/domain"
)

// Dimensions is the target width and height for a fetched image.
type Dimensions struct {
	Width  int
	Height int
}

// DefaultDimensions matches the deck layout's landscape image slot.
var DefaultDimensions = Dimensions{Width: 1200, Height: 800}

// ErrQuotaExhausted marks an authentication or rate-limit failure. The chain
// driver puts the provider into a long cooldown instead of the short one
// used for transient faults.
var ErrQuotaExhausted = fmt.Errorf("image: %w", domain.ErrQuotaExceeded)

// errNoResults marks a search that succeeded but matched nothing for this
// query. The provider stays healthy; the chain just moves on.
var errNoResults = errors.New("no results")

// Provider is the uniform capability implemented by every image source in
// the fallback chain. Fetch performs a single bounded attempt; it returns a
// result with the asset already persisted locally, or an error the driver
// classifies (quota exhaustion, no results, or a transient fault).
type Provider interface {
	Name() string
	// Ready reports whether the provider is configured at all (keyed
	// providers without credentials are skipped silently).
	Ready() bool
	Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error)
}
