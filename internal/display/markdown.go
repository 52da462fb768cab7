package display

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// DefaultWrapWidth is used when the terminal width is unknown
const DefaultWrapWidth = 100

// RenderMarkdown renders report markdown for the terminal. The style follows
// the terminal background and falls back to plain text without a TTY.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWrapWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
