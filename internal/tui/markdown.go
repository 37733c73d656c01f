package tui

import (
	"strings"

	"charm.land/glamour/v2"
)

// RenderMarkdown renders md for the terminal, wrapped at width. Test
// descriptions are written in markdown by their authors.
func RenderMarkdown(md string, width int) (string, error) {
	if strings.TrimSpace(md) == "" {
		return "", nil
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
