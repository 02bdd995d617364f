// Package zip builds downloadable deck bundles: the manifest plus every
// image it references, archived together.
package zip

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Asset is a single named entry in a bundle.
type Asset struct {
	Filename string
	Data     []byte
}

// ArchiveAssets packs assets into an in-memory zip archive.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			return nil, fmt.Errorf("zip: create entry %s: %w", asset.Filename, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write entry %s: %w", asset.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

type bundleSlide struct {
	Image string `json:"image"`
}

type bundleManifest struct {
	Slides []bundleSlide `json:"slides"`
}

// BundleDeck archives the manifest at manifestPath together with the images
// its slides reference. Missing image files are skipped so a cache cleanup
// between generation and download does not break the bundle.
func BundleDeck(manifestPath string) ([]byte, error) {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("zip: read manifest: %w", err)
	}

	assets := []Asset{{Filename: filepath.Base(manifestPath), Data: raw}}

	var doc bundleManifest
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("zip: parse manifest: %w", err)
	}
	seen := make(map[string]struct{})
	for _, slide := range doc.Slides {
		if slide.Image == "" {
			continue
		}
		if _, dup := seen[slide.Image]; dup {
			continue
		}
		seen[slide.Image] = struct{}{}
		data, err := os.ReadFile(slide.Image)
		if err != nil {
			continue
		}
		assets = append(assets, Asset{
			Filename: filepath.Join("images", filepath.Base(slide.Image)),
			Data:     data,
		})
	}

	return ArchiveAssets(assets)
}
