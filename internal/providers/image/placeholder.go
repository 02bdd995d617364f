package image

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"deckforge/internal/domain"
	"deckforge/internal/storage"
)

// PlaceholderProvider serves images from a bundled local pool, so it works
// with no network at all. When the pool directory is empty it renders a
// deterministic synthetic image into the cache instead, keeping the
// provider unconditionally available.
type PlaceholderProvider struct {
	dir   string
	cache *storage.FileStore
	now   func() time.Time
}

func NewPlaceholderProvider(dir string, cache *storage.FileStore) *PlaceholderProvider {
	return &PlaceholderProvider{dir: dir, cache: cache, now: time.Now}
}

func (p *PlaceholderProvider) Name() string { return "placeholder" }
func (p *PlaceholderProvider) Ready() bool  { return true }

func (p *PlaceholderProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path, ok := p.pickBundled(); ok {
		return placeholderResult(path), nil
	}
	path, err := p.renderSynthetic(ctx, query, dims)
	if err != nil {
		return nil, err
	}
	return placeholderResult(path), nil
}

func placeholderResult(path string) *domain.ImageResult {
	return &domain.ImageResult{
		Path:   path,
		Credit: &domain.ImageCredit{Text: "Local Placeholder"},
	}
}

func (p *PlaceholderProvider) pickBundled() (string, bool) {
	var candidates []string
	for _, pattern := range []string{"*.jpg", "*.jpeg", "*.png"} {
		matches, err := filepath.Glob(filepath.Join(p.dir, pattern))
		if err == nil {
			candidates = append(candidates, matches...)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[rand.IntN(len(candidates))], true
}

// renderSynthetic paints a striped two-tone image seeded from the query and
// writes it to the cache directory as a JPEG.
func (p *PlaceholderProvider) renderSynthetic(ctx context.Context, query string, dims Dimensions) (string, error) {
	width, height := dims.Width, dims.Height
	if width <= 0 {
		width = DefaultDimensions.Width
	}
	if height <= 0 {
		height = DefaultDimensions.Height
	}
	seed := placeholderSeed(query)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := height / 12
	if stripeHeight < 32 {
		stripeHeight = 32
	}
	for y := 0; y < height; y += stripeHeight * 2 {
		bottom := y + stripeHeight
		if bottom > height {
			bottom = height
		}
		draw.Draw(img, image.Rect(0, y, width, bottom), &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("encode placeholder: %w", err)
	}
	filename := fmt.Sprintf("%s_%d.jpg", sanitizeQuery(query), p.now().UnixMilli()%10000)
	key, err := p.cache.Write(ctx, filename, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("write placeholder: %w", err)
	}
	return p.cache.Path(key), nil
}

func placeholderSeed(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:])
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = "4a6572" + seed
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: parseHexByte(segment[0:2]),
		G: parseHexByte(segment[2:4]),
		B: parseHexByte(segment[4:6]),
		A: 255,
	}
}

func parseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

var _ Provider = (*PlaceholderProvider)(nil)
