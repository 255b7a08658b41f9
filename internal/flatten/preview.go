package flatten

import (
	glam "github.com/charmbracelet/glamour"
)

// Preview renders the dump as styled terminal markdown instead of raw text.
func Preview(doc string, width int) (string, error) {
	if width < 10 {
		width = 80
	}
	renderer, err := glam.NewTermRenderer(
		glam.WithStylePath("dark"),
		glam.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(doc)
}
