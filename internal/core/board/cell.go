package board

import "fmt"

// CellPosition identifies one grid cell by zero-based row and column.
type CellPosition struct {
	Row int
	Col int
}

// String renders the position as (row, col).
func (p CellPosition) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// CellState is the liveness of a single cell.
type CellState uint8

const (
	// Dead is the zero value so a freshly allocated board is empty.
	Dead CellState = iota
	// Alive marks a populated cell.
	Alive
)

// String returns a lowercase label for the state.
func (s CellState) String() string {
	switch s {
	case Dead:
		return "dead"
	case Alive:
		return "alive"
	default:
		return fmt.Sprintf("CellState(%d)", uint8(s))
	}
}

// StateOf maps a liveness flag to a CellState.
func StateOf(alive bool) CellState {
	if alive {
		return Alive
	}
	return Dead
}

// FromBools converts a flat liveness buffer into cell states.
func FromBools(cells []bool) []CellState {
	states := make([]CellState, len(cells))
	for i, alive := range cells {
		states[i] = StateOf(alive)
	}
	return states
}

// Change records the state a cell moved to during one generation.
type Change struct {
	Pos   CellPosition
	State CellState
}

// Delta lists the cells that flipped during one generation, in row-major order.
type Delta []Change

// Born counts the cells that became alive.
func (d Delta) Born() int {
	born := 0
	for _, change := range d {
		if change.State == Alive {
			born++
		}
	}
	return born
}

// Died counts the cells that became dead.
func (d Delta) Died() int {
	return len(d) - d.Born()
}
