package outline

import (
	"fmt"
	"strings"
)

// buildOutlinePrompt instructs the model to return a single JSON object with
// exactly unitCount content units in the requested language.
func buildOutlinePrompt(topic string, unitCount int, language string) string {
	if strings.TrimSpace(language) == "" {
		language = "English"
	}
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Task: create a professional presentation outline about: %s\n", topic)
	fmt.Fprintf(sb, "The content MUST be in %s language.\n\n", language)
	sb.WriteString("Generate a JSON response with this structure:\n")
	sb.WriteString(`{
  "title": "Main presentation title",
  "subtitle": "Brief subtitle or tagline",
  "slides": [
    {
      "title": "Slide title",
      "bullets": ["Point 1", "Point 2", "Point 3"],
      "image_query": "search term for relevant image"
    }
  ]
}`)
	sb.WriteString("\n\nRequirements:\n")
	fmt.Fprintf(sb, "- Create %d content slides\n", unitCount)
	sb.WriteString("- Each slide should have 3-5 concise bullet points\n")
	sb.WriteString("- Include **DISTINCT and SPECIFIC** image search queries for each slide\n")
	sb.WriteString("- Make it engaging and informative\n")
	sb.WriteString("- Return ONLY valid JSON, no markdown formatting")
	return sb.String()
}
