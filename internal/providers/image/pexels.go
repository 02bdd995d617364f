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
	pexelsSearchURL = "https://api.pexels.com/v1/search"
	pexelsTimeout   = 10 * time.Second
)

// PexelsProvider is a secondary keyed photo search source.
type PexelsProvider struct {
	key    string
	client *http.Client
	dl     *downloader
}

func NewPexelsProvider(key string, client *http.Client, dl *downloader) *PexelsProvider {
	if client == nil {
		client = &http.Client{Timeout: pexelsTimeout}
	}
	return &PexelsProvider{key: key, client: client, dl: dl}
}

func (p *PexelsProvider) Name() string { return "pexels" }
func (p *PexelsProvider) Ready() bool  { return p.key != "" }

type pexelsSearchResponse struct {
	Photos []struct {
		URL          string `json:"url"`
		Photographer string `json:"photographer"`
		Src          struct {
			Large string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

func (p *PexelsProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	endpoint := fmt.Sprintf("%s?query=%s&per_page=1&orientation=landscape", pexelsSearchURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.key)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("pexels status %d: %w", resp.StatusCode, ErrQuotaExhausted)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("pexels status %d", resp.StatusCode)
	}

	var out pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("pexels decode: %w", err)
	}
	if len(out.Photos) == 0 {
		return nil, fmt.Errorf("pexels: %w for %q", errNoResults, query)
	}
	photo := out.Photos[0]
	path, err := p.dl.download(ctx, photo.Src.Large, query)
	if err != nil {
		return nil, err
	}
	return &domain.ImageResult{
		Path: path,
		Credit: &domain.ImageCredit{
			Text: fmt.Sprintf("Photo by %s on Pexels", photo.Photographer),
			Link: photo.URL,
		},
	}, nil
}

var _ Provider = (*PexelsProvider)(nil)
