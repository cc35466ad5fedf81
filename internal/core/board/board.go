// Package board implements a Game of Life grid on a torus.
//
// # Layout
//
// Cells are stored in a single row-major slice addressed by row*width+col.
// Width and height are fixed at construction.
//
// # Topology
//
// Neighbour addressing wraps at every edge: a coordinate below zero maps to
// dimension-1 and a coordinate reaching the dimension maps to zero. Boards one
// cell wide or tall are valid; a cell may then count itself or the same
// neighbour more than once.
//
// # Concurrency
//
// A Board is not safe for concurrent use. Hosts that share one across
// goroutines must hold a single lock for the duration of each Set, Patch and
// Advance call.
package board

import "strings"

// Board holds the state of every cell for one generation.
type Board struct {
	width  int
	height int
	cells  []CellState
	next   []CellState
}

// New creates a width x height board.
//
// A nil or empty initial slice yields an all-dead board. Otherwise its length
// must equal width*height and it is copied.
func New(width, height int, initial []CellState) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, invalidDimensions(width, height)
	}
	size := width * height
	cells := make([]CellState, size)
	if len(initial) > 0 {
		if len(initial) != size {
			return nil, dimensionMismatch(len(initial), width, height)
		}
		copy(cells, initial)
	}
	return &Board{
		width:  width,
		height: height,
		cells:  cells,
		next:   make([]CellState, size),
	}, nil
}

// Width returns the number of columns.
func (b *Board) Width() int {
	return b.width
}

// Height returns the number of rows.
func (b *Board) Height() int {
	return b.height
}

// Contains reports whether pos lies on the board.
func (b *Board) Contains(pos CellPosition) bool {
	return pos.Row >= 0 && pos.Row < b.height && pos.Col >= 0 && pos.Col < b.width
}

// Set writes a single cell.
func (b *Board) Set(pos CellPosition, state CellState) error {
	if !b.Contains(pos) {
		return invalidPosition(pos, b.width, b.height)
	}
	b.cells[b.index(pos)] = state
	return nil
}

// Alive reports whether the cell at pos is alive.
func (b *Board) Alive(pos CellPosition) (bool, error) {
	if !b.Contains(pos) {
		return false, invalidPosition(pos, b.width, b.height)
	}
	return b.cells[b.index(pos)] == Alive, nil
}

// Neighbours returns the eight wrapped neighbours of pos.
//
// Order is fixed: row offset -1, 0, 1 in the outer loop and column offset
// -1, 0, 1 in the inner loop, skipping pos itself.
func (b *Board) Neighbours(pos CellPosition) ([8]CellPosition, error) {
	var out [8]CellPosition
	if !b.Contains(pos) {
		return out, invalidPosition(pos, b.width, b.height)
	}
	b.neighbours(pos, &out)
	return out, nil
}

// LiveNeighbours counts the live cells among the neighbours of pos.
func (b *Board) LiveNeighbours(pos CellPosition) (int, error) {
	if !b.Contains(pos) {
		return 0, invalidPosition(pos, b.width, b.height)
	}
	return b.liveNeighbours(pos), nil
}

// Patch overlays a patchWidth x patchHeight block of states with its top-left
// corner at origin. Nothing is written when the patch is rejected.
func (b *Board) Patch(origin CellPosition, cells []CellState, patchWidth, patchHeight int) error {
	if !b.Contains(origin) {
		return invalidPosition(origin, b.width, b.height)
	}
	if patchWidth < 0 || patchHeight < 0 || len(cells) != patchWidth*patchHeight {
		return dimensionMismatch(len(cells), patchWidth, patchHeight)
	}
	if origin.Col+patchWidth > b.width || origin.Row+patchHeight > b.height {
		return patchOutOfBounds(origin, patchWidth, patchHeight, b.width, b.height)
	}
	for row := 0; row < patchHeight; row++ {
		start := b.index(CellPosition{Row: origin.Row + row, Col: origin.Col})
		copy(b.cells[start:start+patchWidth], cells[row*patchWidth:(row+1)*patchWidth])
	}
	return nil
}

// Advance moves the whole board one generation forward and returns the cells
// that flipped, in row-major order.
//
// Every next state is computed from the current generation before any cell is
// updated.
func (b *Board) Advance() Delta {
	var delta Delta
	for row := 0; row < b.height; row++ {
		for col := 0; col < b.width; col++ {
			pos := CellPosition{Row: row, Col: col}
			i := b.index(pos)
			current := b.cells[i]
			next := StateOf(Next(current == Alive, b.liveNeighbours(pos)))
			b.next[i] = next
			if next != current {
				delta = append(delta, Change{Pos: pos, State: next})
			}
		}
	}
	b.cells, b.next = b.next, b.cells
	return delta
}

// Next applies Conway's rule to one cell.
func Next(alive bool, liveNeighbours int) bool {
	return liveNeighbours == 3 || (alive && liveNeighbours == 2)
}

// Population counts the live cells.
func (b *Board) Population() int {
	count := 0
	for _, state := range b.cells {
		if state == Alive {
			count++
		}
	}
	return count
}

// AliveCells lists the live cells in row-major order.
func (b *Board) AliveCells() []CellPosition {
	var alive []CellPosition
	for i, state := range b.cells {
		if state == Alive {
			alive = append(alive, CellPosition{Row: i / b.width, Col: i % b.width})
		}
	}
	return alive
}

// States returns a copy of the row-major cell states.
func (b *Board) States() []CellState {
	states := make([]CellState, len(b.cells))
	copy(states, b.cells)
	return states
}

// String renders the board in the X/- pattern format, one row per line.
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow((b.width + 1) * b.height)
	for row := 0; row < b.height; row++ {
		for col := 0; col < b.width; col++ {
			if b.cells[row*b.width+col] == Alive {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('-')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *Board) index(pos CellPosition) int {
	return pos.Row*b.width + pos.Col
}

func (b *Board) neighbours(pos CellPosition, out *[8]CellPosition) {
	n := 0
	for rowOffset := -1; rowOffset <= 1; rowOffset++ {
		for colOffset := -1; colOffset <= 1; colOffset++ {
			if rowOffset == 0 && colOffset == 0 {
				continue
			}
			out[n] = CellPosition{
				Row: wrap(pos.Row+rowOffset, b.height),
				Col: wrap(pos.Col+colOffset, b.width),
			}
			n++
		}
	}
}

func (b *Board) liveNeighbours(pos CellPosition) int {
	var around [8]CellPosition
	b.neighbours(pos, &around)
	count := 0
	for _, neighbour := range around {
		if b.cells[b.index(neighbour)] == Alive {
			count++
		}
	}
	return count
}

// wrap maps a coordinate at most one step off the board back onto it.
func wrap(coord, dim int) int {
	switch {
	case coord < 0:
		return dim - 1
	case coord >= dim:
		return 0
	default:
		return coord
	}
}
