package image

import (
	"context"
	"fmt"
	"net/url"

	"deckforge/internal/domain"
)

// UnsplashSourceProvider uses the keyless Unsplash Source redirect endpoint.
// The endpoint 302s straight to image bytes, so the shared downloader does
// all the work.
type UnsplashSourceProvider struct {
	dl *downloader
}

func NewUnsplashSourceProvider(dl *downloader) *UnsplashSourceProvider {
	return &UnsplashSourceProvider{dl: dl}
}

func (p *UnsplashSourceProvider) Name() string { return "unsplash_source" }
func (p *UnsplashSourceProvider) Ready() bool  { return true }

func (p *UnsplashSourceProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	endpoint := fmt.Sprintf("https://source.unsplash.com/featured/%dx%d/?%s",
		dims.Width, dims.Height, url.QueryEscape(query))
	path, err := p.dl.download(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	return &domain.ImageResult{
		Path: path,
		Credit: &domain.ImageCredit{
			Text: "Photo from Unsplash (Source)",
			Link: "https://unsplash.com",
		},
	}, nil
}

var _ Provider = (*UnsplashSourceProvider)(nil)
