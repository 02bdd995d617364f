package image

import (
	"bytes"
	"context"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"deckforge/internal/storage"
)

func newPlaceholder(t *testing.T, dir string) *PlaceholderProvider {
	t.Helper()
	cache, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	return NewPlaceholderProvider(dir, cache)
}

func TestPlaceholderSynthesizesWhenPoolEmpty(t *testing.T) {
	p := newPlaceholder(t, t.TempDir())

	result, err := p.Fetch(context.Background(), "quantum computing", DefaultDimensions)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Credit == nil || result.Credit.Text != "Local Placeholder" {
		t.Fatalf("credit = %+v, want Local Placeholder", result.Credit)
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("read synthesized image: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode synthesized image: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != DefaultDimensions.Width || bounds.Dy() != DefaultDimensions.Height {
		t.Fatalf("dimensions = %dx%d, want %dx%d",
			bounds.Dx(), bounds.Dy(), DefaultDimensions.Width, DefaultDimensions.Height)
	}
}

func TestPlaceholderPrefersBundledPool(t *testing.T) {
	dir := t.TempDir()
	bundled := filepath.Join(dir, "stock.jpg")
	if err := os.WriteFile(bundled, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write bundled image: %v", err)
	}
	p := newPlaceholder(t, dir)

	result, err := p.Fetch(context.Background(), "anything", DefaultDimensions)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Path != bundled {
		t.Fatalf("path = %q, want bundled file %q", result.Path, bundled)
	}
}
