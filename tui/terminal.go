package tui

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is used for pipes and CI logs.
	DefaultTerminalWidth = 80
	// MinTerminalWidth keeps the decision table columns from wrapping.
	MinTerminalWidth = 60
	// MaxTerminalWidth caps horizontal rules and reason truncation.
	MaxTerminalWidth = 200

	// StoryMinWidth fits the timeline list next to a readable detail panel.
	StoryMinWidth = 80
	// StoryMinHeight fits the header, a few timeline rows and the footer.
	StoryMinHeight = 16
)

// TerminalWidth returns the render width for output written to w. A
// terminal reports its size; anything else uses $COLUMNS when set, so
// `covenant simulate | less` can still be sized.
func TerminalWidth(w io.Writer) int {
	width := 0
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = cols
		}
	}
	if width <= 0 {
		if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil {
			width = cols
		}
	}
	return clampWidth(width)
}

func clampWidth(width int) int {
	switch {
	case width <= 0:
		return DefaultTerminalWidth
	case width < MinTerminalWidth:
		return MinTerminalWidth
	case width > MaxTerminalWidth:
		return MaxTerminalWidth
	default:
		return width
	}
}

// IsWriterTerminal returns true if w is backed by a terminal file descriptor.
func IsWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// CheckStoryTerminal returns an error unless w is a terminal large enough
// for the story explorer.
func CheckStoryTerminal(w io.Writer) error {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("story requires an interactive terminal")
	}

	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read terminal size: %w", err)
	}
	if width < StoryMinWidth || height < StoryMinHeight {
		return fmt.Errorf("story needs a terminal of at least %dx%d, have %dx%d",
			StoryMinWidth, StoryMinHeight, width, height)
	}
	return nil
}
