package deck

import (
	"context"

	"deckforge/internal/domain"
)

// Renderer is the external rendering collaborator. Visual layout (shapes,
// fonts, colors) is entirely its concern; the orchestrator only feeds it
// outline content in order and asks it to save once.
type Renderer interface {
	AddTitleSlide(title, subtitle string)
	// AddContentSlide appends one content page. imagePath is empty when the
	// unit has no illustration; credit may be nil.
	AddContentSlide(title string, bullets []string, imagePath string, credit *domain.ImageCredit)
	// Save persists the artifact at the given base path, appending the
	// renderer's own format extension, and returns the final path.
	Save(path string) (string, error)
}

// RendererFactory produces a fresh renderer for one job. The template
// selector is opaque to the orchestrator; the factory resolves aliases such
// as "random".
type RendererFactory func(template string) (Renderer, error)

// Converter turns a saved artifact into a secondary file format through an
// external office suite. Consumed, not implemented here.
type Converter interface {
	Convert(ctx context.Context, artifactPath string) (string, error)
}
