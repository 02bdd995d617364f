package image

import (
	"context"
	"fmt"

	"deckforge/internal/domain"
)

// PicsumProvider returns a random photo from picsum.photos. It anchors the
// chain: the driver never places it in cooldown.
type PicsumProvider struct {
	dl *downloader
}

func NewPicsumProvider(dl *downloader) *PicsumProvider {
	return &PicsumProvider{dl: dl}
}

func (p *PicsumProvider) Name() string { return "picsum" }
func (p *PicsumProvider) Ready() bool  { return true }

func (p *PicsumProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	endpoint := fmt.Sprintf("https://picsum.photos/%d/%d", dims.Width, dims.Height)
	path, err := p.dl.download(ctx, endpoint, "picsum_fallback")
	if err != nil {
		return nil, err
	}
	return &domain.ImageResult{
		Path: path,
		Credit: &domain.ImageCredit{
			Text: "Photo from Picsum",
			Link: "https://picsum.photos",
		},
	}, nil
}

var _ Provider = (*PicsumProvider)(nil)
