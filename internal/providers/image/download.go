package image

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"deckforge/internal/storage"
)

const (
	downloadTimeout = 60 * time.Second
	downloadBackoff = 5 * time.Second
	downloadUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxSanitizedQueryLen = 50
)

// downloader persists remote assets into the local image cache. Bytes are
// saved verbatim; no re-encoding. On a 429 from the asset host it backs off
// once and retries; a second failure or any 5xx aborts the attempt.
type downloader struct {
	client  *http.Client
	cache   *storage.FileStore
	backoff time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

func newDownloader(cache *storage.FileStore, client *http.Client, logger zerolog.Logger) *downloader {
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	return &downloader{
		client:  client,
		cache:   cache,
		backoff: downloadBackoff,
		logger:  logger,
		now:     time.Now,
	}
}

// download fetches url and writes the body under a collision-resistant
// filename derived from the query. It returns the local path.
func (d *downloader) download(ctx context.Context, url, query string) (string, error) {
	resp, err := d.get(ctx, url)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		d.logger.Warn().Str("url", url).Msg("image: asset host rate limited, backing off once")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(d.backoff):
		}
		resp, err = d.get(ctx, url)
		if err != nil {
			return "", err
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("asset host returned %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read asset body: %w", err)
	}
	key, err := d.cache.Write(ctx, d.filename(query), data)
	if err != nil {
		return "", err
	}
	return d.cache.Path(key), nil
}

func (d *downloader) filename(query string) string {
	return fmt.Sprintf("%s_%d.jpg", sanitizeQuery(query), d.now().UnixMilli()%10000)
}

func (d *downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", downloadUA)
	return d.client.Do(req)
}

// sanitizeQuery keeps only filename-safe characters and collapses spaces to
// underscores, truncated to a reasonable length.
func sanitizeQuery(query string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(query) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('_')
		}
	}
	safe := sb.String()
	if safe == "" {
		safe = "image"
	}
	if len(safe) > maxSanitizedQueryLen {
		safe = safe[:maxSanitizedQueryLen]
	}
	return safe
}
