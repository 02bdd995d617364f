package image

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	"deckforge/internal/domain"
)

// LoremFlickrProvider fetches a keyword-matched photo via the LoremFlickr
// redirect service. Attribution is not available, so results carry no
// credit.
type LoremFlickrProvider struct {
	dl *downloader
}

func NewLoremFlickrProvider(dl *downloader) *LoremFlickrProvider {
	return &LoremFlickrProvider{dl: dl}
}

func (p *LoremFlickrProvider) Name() string { return "loremflickr" }
func (p *LoremFlickrProvider) Ready() bool  { return true }

func (p *LoremFlickrProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	// The first few words carry the most signal; a random lock value keeps
	// repeated queries from returning the same photo.
	words := strings.Fields(query)
	if len(words) > 3 {
		words = words[:3]
	}
	keywords := strings.Join(words, ",")
	lock := rand.IntN(10000) + 1
	endpoint := fmt.Sprintf("https://loremflickr.com/%d/%d/%s?lock=%d",
		dims.Width, dims.Height, url.PathEscape(keywords), lock)
	path, err := p.dl.download(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	return &domain.ImageResult{Path: path}, nil
}

var _ Provider = (*LoremFlickrProvider)(nil)
