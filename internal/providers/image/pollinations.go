package image

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"time"

	"deckforge/internal/domain"
)

const pollinationsTimeout = 30 * time.Second

// PollinationsProvider generates an image with the keyless Pollinations.ai
// service. Generation is slow, so it carries the longest per-attempt bound
// in the chain.
type PollinationsProvider struct {
	dl *downloader
}

func NewPollinationsProvider(dl *downloader) *PollinationsProvider {
	return &PollinationsProvider{dl: dl}
}

func (p *PollinationsProvider) Name() string { return "pollinations" }
func (p *PollinationsProvider) Ready() bool  { return true }

func (p *PollinationsProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	prompt := fmt.Sprintf("professional presentation photo of %s, high quality, clean composition", query)
	seed := rand.IntN(10000)
	endpoint := fmt.Sprintf("https://image.pollinations.ai/prompt/%s?width=%d&height=%d&nologo=true&seed=%d",
		url.PathEscape(prompt), dims.Width, dims.Height, seed)

	ctx, cancel := context.WithTimeout(ctx, pollinationsTimeout)
	defer cancel()
	path, err := p.dl.download(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	return &domain.ImageResult{
		Path: path,
		Credit: &domain.ImageCredit{
			Text: "Generated by AI",
			Link: "https://pollinations.ai",
		},
	}, nil
}

var _ Provider = (*PollinationsProvider)(nil)
