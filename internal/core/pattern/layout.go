package pattern

import (
	"fmt"

	"github.com/louisbranch/life/internal/core/board"
)

// Layout describes where a pattern lands on the host board.
type Layout struct {
	// Width and Height of the host board; zero means the pattern's own size.
	Width  int
	Height int
	// Offset places the pattern's top-left corner explicitly. Nil centres it.
	Offset *board.CellPosition
}

// NewBoard builds a board sized by layout and writes p onto it.
func NewBoard(p Pattern, layout Layout) (*board.Board, error) {
	width, height := layout.Width, layout.Height
	if width == 0 {
		width = p.Width
	}
	if height == 0 {
		height = p.Height
	}

	b, err := board.New(width, height, nil)
	if err != nil {
		return nil, err
	}
	if p.Empty() {
		return b, nil
	}

	origin := board.CellPosition{}
	if layout.Offset != nil {
		origin = *layout.Offset
	} else {
		origin, err = p.Center(width, height)
		if err != nil {
			return nil, err
		}
	}
	if err := p.Place(b, origin); err != nil {
		return nil, fmt.Errorf("place pattern at %s: %w", origin, err)
	}
	return b, nil
}
