// Package render provides a minimal rendering collaborator that serializes
// deck content to a JSON manifest. Visual template rendering (shapes, fonts,
// slide layout) belongs to an external collaborator; this adapter keeps the
// service runnable without one.
package render

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"deckforge/internal/deck"
	"deckforge/internal/domain"
)

const manifestExt = ".deck.json"

// templateNames mirrors the selectors accepted by the full template gallery.
var templateNames = []string{
	"minimal", "bold", "corporate", "creative", "elegant", "geometric", "modern",
}

const defaultTemplate = "modern"

// Templates returns the known template names plus the "random" selector.
func Templates() []string {
	out := make([]string, 0, len(templateNames)+1)
	out = append(out, templateNames...)
	return append(out, "random")
}

// ResolveTemplate maps a selector onto a known template name. "random"
// picks one; anything unknown falls back to the default.
func ResolveTemplate(selector string) string {
	selector = strings.ToLower(strings.TrimSpace(selector))
	if selector == "" || selector == "random" {
		return templateNames[rand.IntN(len(templateNames))]
	}
	for _, name := range templateNames {
		if selector == name {
			return name
		}
	}
	return defaultTemplate
}

type manifestCredit struct {
	Text    string `json:"text"`
	Link    string `json:"link,omitempty"`
	AppLink string `json:"app_link,omitempty"`
}

type manifestSlide struct {
	Kind     string          `json:"kind"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle,omitempty"`
	Bullets  []string        `json:"bullets,omitempty"`
	Image    string          `json:"image,omitempty"`
	Credit   *manifestCredit `json:"credit,omitempty"`
}

type manifest struct {
	Template string          `json:"template"`
	Slides   []manifestSlide `json:"slides"`
}

// ManifestRenderer accumulates slides and writes them as a JSON manifest.
type ManifestRenderer struct {
	doc manifest
}

// NewManifestRenderer creates a renderer for the resolved template.
func NewManifestRenderer(template string) *ManifestRenderer {
	return &ManifestRenderer{doc: manifest{Template: ResolveTemplate(template)}}
}

// Factory adapts the constructor to the orchestrator's RendererFactory.
func Factory(template string) (deck.Renderer, error) {
	return NewManifestRenderer(template), nil
}

func (r *ManifestRenderer) AddTitleSlide(title, subtitle string) {
	r.doc.Slides = append(r.doc.Slides, manifestSlide{
		Kind:     "title",
		Title:    title,
		Subtitle: subtitle,
	})
}

func (r *ManifestRenderer) AddContentSlide(title string, bullets []string, imagePath string, credit *domain.ImageCredit) {
	slide := manifestSlide{
		Kind:    "content",
		Title:   title,
		Bullets: bullets,
		Image:   imagePath,
	}
	if credit != nil {
		slide.Credit = &manifestCredit{
			Text:    credit.Text,
			Link:    credit.Link,
			AppLink: credit.AppLink,
		}
	}
	r.doc.Slides = append(r.doc.Slides, slide)
}

// Save writes the manifest next to the given base path and returns the
// final path including the manifest extension.
func (r *ManifestRenderer) Save(path string) (string, error) {
	data, err := json.MarshalIndent(r.doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render: marshal manifest: %w", err)
	}
	full := path + manifestExt
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("render: ensure output dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("render: write manifest: %w", err)
	}
	return full, nil
}

var _ deck.Renderer = (*ManifestRenderer)(nil)
