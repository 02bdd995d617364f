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
	wikimediaAPIURL  = "https://commons.wikimedia.org/w/api.php"
	wikimediaTimeout = 10 * time.Second

	// Wikimedia rejects requests without a descriptive User-Agent.
	wikimediaUA = "DeckForge/1.0 (https://github.com/deckforge) Go-http-client"
)

// WikimediaProvider searches Wikimedia Commons: a keyless curated media
// repository. Fetching is two-step: a full-text file search, then an
// imageinfo lookup for the thumbnail URL at the requested width.
type WikimediaProvider struct {
	client *http.Client
	dl     *downloader
}

func NewWikimediaProvider(client *http.Client, dl *downloader) *WikimediaProvider {
	if client == nil {
		client = &http.Client{Timeout: wikimediaTimeout}
	}
	return &WikimediaProvider{client: client, dl: dl}
}

func (p *WikimediaProvider) Name() string { return "wikimedia" }
func (p *WikimediaProvider) Ready() bool  { return true }

type wikimediaSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikimediaInfoResponse struct {
	Query struct {
		Pages map[string]struct {
			ImageInfo []struct {
				ThumbURL       string `json:"thumburl"`
				User           string `json:"user"`
				DescriptionURL string `json:"descriptionurl"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

func (p *WikimediaProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srsearch", "filetype:bitmap "+query)
	params.Set("srnamespace", "6")
	params.Set("srlimit", "1")

	var search wikimediaSearchResponse
	if err := p.getJSON(ctx, params, &search); err != nil {
		return nil, err
	}
	if len(search.Query.Search) == 0 {
		return nil, fmt.Errorf("wikimedia: %w for %q", errNoResults, query)
	}
	title := search.Query.Search[0].Title

	info := url.Values{}
	info.Set("action", "query")
	info.Set("format", "json")
	info.Set("prop", "imageinfo")
	info.Set("titles", title)
	info.Set("iiprop", "url|user|extmetadata")
	info.Set("iiurlwidth", fmt.Sprint(dims.Width))

	var pages wikimediaInfoResponse
	if err := p.getJSON(ctx, info, &pages); err != nil {
		return nil, err
	}
	for _, page := range pages.Query.Pages {
		if len(page.ImageInfo) == 0 || page.ImageInfo[0].ThumbURL == "" {
			continue
		}
		ii := page.ImageInfo[0]
		path, err := p.dl.download(ctx, ii.ThumbURL, query)
		if err != nil {
			return nil, err
		}
		credit := &domain.ImageCredit{
			Text: fmt.Sprintf("Photo by %s (Wikimedia Commons)", nonEmpty(ii.User, "Wikimedia Contributor")),
			Link: nonEmpty(ii.DescriptionURL, "https://commons.wikimedia.org"),
		}
		return &domain.ImageResult{Path: path, Credit: credit}, nil
	}
	return nil, fmt.Errorf("wikimedia: %w, missing image info for %q", errNoResults, title)
}

func (p *WikimediaProvider) getJSON(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikimediaAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", wikimediaUA)
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("wikimedia request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikimedia status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("wikimedia decode: %w", err)
	}
	return nil
}

func nonEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

var _ Provider = (*WikimediaProvider)(nil)
