// Package pattern loads initial board states from the X/- bitmap format.
//
// Each line of the source is a row and each character a column: 'X' is alive
// and '-' is dead. Every row must be as wide as the first one and no wider
// than MaxRowWidth bytes.
package pattern

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/louisbranch/life/internal/core/board"
	apperrors "github.com/louisbranch/life/internal/platform/errors"
)

const (
	aliveChar = 'X'
	deadChar  = '-'

	// MaxRowWidth is the longest row Parse accepts, in bytes.
	MaxRowWidth = 1 << 20
)

var (
	// ErrMalformedPattern matches every ParseError.
	ErrMalformedPattern = apperrors.New(apperrors.CodePatternMalformed, "pattern is malformed")
	// ErrPatternTooLarge indicates a pattern that does not fit on the target board.
	ErrPatternTooLarge = apperrors.New(apperrors.CodePatternTooLarge, "pattern does not fit on the board")
)

// ParseError reports the first malformed character or row in a pattern.
// Line and Column are 1-based.
type ParseError struct {
	Line   int
	Column int
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e == nil {
		return "pattern parse error"
	}
	return fmt.Sprintf("pattern line %d, column %d: %s", e.Line, e.Column, e.Reason)
}

// Is lets errors.Is match ErrMalformedPattern.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*apperrors.Error)
	return ok && t.Code == apperrors.CodePatternMalformed
}

// Pattern is a parsed bitmap in row-major order.
type Pattern struct {
	Cells  []bool
	Width  int
	Height int
}

// Empty reports whether the pattern has no cells.
func (p Pattern) Empty() bool {
	return p.Width == 0 || p.Height == 0
}

// States converts the pattern into board cell states.
func (p Pattern) States() []board.CellState {
	return board.FromBools(p.Cells)
}

// Board builds a board of exactly the pattern's size.
func (p Pattern) Board() (*board.Board, error) {
	return board.New(p.Width, p.Height, p.States())
}

// Place writes the pattern onto b with its top-left corner at origin.
func (p Pattern) Place(b *board.Board, origin board.CellPosition) error {
	if p.Empty() {
		return nil
	}
	return b.Patch(origin, p.States(), p.Width, p.Height)
}

// Center returns the origin that centres the pattern on a width x height board.
func (p Pattern) Center(width, height int) (board.CellPosition, error) {
	if p.Width > width || p.Height > height {
		return board.CellPosition{}, apperrors.WithMetadata(
			apperrors.CodePatternTooLarge,
			fmt.Sprintf("%dx%d pattern does not fit on %dx%d board", p.Width, p.Height, width, height),
			map[string]string{
				"PatternWidth":  strconv.Itoa(p.Width),
				"PatternHeight": strconv.Itoa(p.Height),
				"Width":         strconv.Itoa(width),
				"Height":        strconv.Itoa(height),
			},
		)
	}
	return board.CellPosition{
		Row: (height - p.Height) / 2,
		Col: (width - p.Width) / 2,
	}, nil
}

// Parse reads a pattern line by line.
//
// An empty source yields a zero-sized pattern. A trailing carriage return is
// dropped from each line; nothing else is trimmed.
func Parse(r io.Reader) (Pattern, error) {
	var p Pattern
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), MaxRowWidth+2)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if len(text) > MaxRowWidth {
			return Pattern{}, rowTooLong(line)
		}
		width := 0
		for _, c := range text {
			width++
			switch c {
			case aliveChar:
				p.Cells = append(p.Cells, true)
			case deadChar:
				p.Cells = append(p.Cells, false)
			default:
				return Pattern{}, &ParseError{
					Line:   line,
					Column: width,
					Reason: fmt.Sprintf("invalid character %q", c),
				}
			}
		}
		if line > 1 && width != p.Width {
			return Pattern{}, &ParseError{
				Line:   line,
				Column: width,
				Reason: fmt.Sprintf("non-uniform row size: got %d, want %d", width, p.Width),
			}
		}
		p.Width = width
		p.Height++
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Pattern{}, rowTooLong(line + 1)
		}
		return Pattern{}, fmt.Errorf("read pattern: %w", err)
	}
	if p.Width == 0 {
		// Blank lines only.
		return Pattern{}, nil
	}
	return p, nil
}

func rowTooLong(line int) *ParseError {
	return &ParseError{
		Line:   line,
		Column: MaxRowWidth + 1,
		Reason: fmt.Sprintf("row longer than %d characters", MaxRowWidth),
	}
}

// ParseString parses a pattern held in memory.
func ParseString(s string) (Pattern, error) {
	return Parse(strings.NewReader(s))
}

// LoadFile parses the pattern stored at path.
func LoadFile(path string) (Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pattern{}, fmt.Errorf("open pattern: %w", err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return Pattern{}, fmt.Errorf("parse pattern %s: %w", path, err)
	}
	return p, nil
}
