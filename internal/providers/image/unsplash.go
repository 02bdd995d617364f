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
	unsplashSearchURL = "https://api.unsplash.com/search/photos"
	unsplashTimeout   = 5 * time.Second

	// utmSuffix satisfies the Unsplash API attribution guidelines.
	utmSuffix = "?utm_source=deckforge&utm_medium=referral"
)

// UnsplashProvider is the primary keyed photo search source. It is the only
// provider whose results carry a tracking URL for the compliance callback.
type UnsplashProvider struct {
	key    string
	client *http.Client
	dl     *downloader
}

func NewUnsplashProvider(key string, client *http.Client, dl *downloader) *UnsplashProvider {
	if client == nil {
		client = &http.Client{Timeout: unsplashTimeout}
	}
	return &UnsplashProvider{key: key, client: client, dl: dl}
}

func (p *UnsplashProvider) Name() string { return "unsplash" }
func (p *UnsplashProvider) Ready() bool  { return p.key != "" }

type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
		Links struct {
			DownloadLocation string `json:"download_location"`
		} `json:"links"`
	} `json:"results"`
}

func (p *UnsplashProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	endpoint := fmt.Sprintf("%s?query=%s&per_page=1&orientation=landscape", unsplashSearchURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+p.key)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash search: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("unsplash status %d: %w", resp.StatusCode, ErrQuotaExhausted)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("unsplash server error %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unsplash status %d", resp.StatusCode)
	}

	var out unsplashSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("unsplash decode: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("unsplash: %w for %q", errNoResults, query)
	}
	photo := out.Results[0]
	path, err := p.dl.download(ctx, photo.URLs.Regular, query)
	if err != nil {
		return nil, err
	}
	return &domain.ImageResult{
		Path: path,
		Credit: &domain.ImageCredit{
			Text:    fmt.Sprintf("Photo by %s on Unsplash", photo.User.Name),
			Link:    photo.User.Links.HTML + utmSuffix,
			AppLink: "https://unsplash.com/" + utmSuffix,
		},
		TrackingURL: photo.Links.DownloadLocation,
	}, nil
}

var _ Provider = (*UnsplashProvider)(nil)
