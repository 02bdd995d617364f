package image

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"deckforge/internal/domain"
)

const (
	pixabayAPIURL  = "https://pixabay.com/api/"
	pixabayTimeout = 10 * time.Second
)

// PixabayProvider is a secondary keyed photo search source.
type PixabayProvider struct {
	key    string
	client *http.Client
	dl     *downloader
}

func NewPixabayProvider(key string, client *http.Client, dl *downloader) *PixabayProvider {
	if client == nil {
		client = &http.Client{Timeout: pixabayTimeout}
	}
	return &PixabayProvider{key: key, client: client, dl: dl}
}

func (p *PixabayProvider) Name() string { return "pixabay" }
func (p *PixabayProvider) Ready() bool  { return p.key != "" }

type pixabaySearchResponse struct {
	Hits []struct {
		LargeImageURL string `json:"largeImageURL"`
		PageURL       string `json:"pageURL"`
		User          string `json:"user"`
	} `json:"hits"`
}

func (p *PixabayProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	endpoint := fmt.Sprintf("%s?key=%s&q=%s&image_type=photo&orientation=horizontal&per_page=3",
		pixabayAPIURL, url.QueryEscape(p.key), url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pixabay search: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("pixabay status %d: %w", resp.StatusCode, ErrQuotaExhausted)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("pixabay status %d", resp.StatusCode)
	}

	var out pixabaySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("pixabay decode: %w", err)
	}
	if len(out.Hits) == 0 {
		return nil, fmt.Errorf("pixabay: %w for %q", errNoResults, query)
	}
	hit := out.Hits[0]
	path, err := p.dl.download(ctx, hit.LargeImageURL, query)
	if err != nil {
		return nil, err
	}
	return &domain.ImageResult{
		Path: path,
		Credit: &domain.ImageCredit{
			Text: fmt.Sprintf("Photo by %s on Pixabay", hit.User),
			Link: hit.PageURL,
		},
	}, nil
}

var _ Provider = (*PixabayProvider)(nil)
