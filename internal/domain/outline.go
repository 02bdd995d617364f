package domain

// ContentUnit is one section of a generated deck: a title, its bullet
// points, and an optional image search term.
type ContentUnit struct {
	Title      string   `json:"title"`
	Bullets    []string `json:"bullets"`
	ImageQuery string   `json:"image_query"`
}

// OutlineDocument is the structured outline produced by a text-generation
// model. It is immutable once returned by the acquirer.
type OutlineDocument struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Units    []ContentUnit `json:"slides"`
}
