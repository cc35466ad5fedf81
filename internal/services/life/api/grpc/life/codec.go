package life

import (
	"fmt"
	"math"

	"github.com/louisbranch/life/internal/core/board"
	"github.com/louisbranch/life/internal/services/life/simulation"
	"google.golang.org/protobuf/types/known/structpb"
)

// Payload kinds carried in the "type" field of streamed messages.
const (
	kindSnapshot = "snapshot"
	kindFrame    = "frame"
)

func snapshotToStruct(snapshot simulation.Snapshot) (*structpb.Struct, error) {
	alive := make([]any, 0, len(snapshot.Alive))
	for _, pos := range snapshot.Alive {
		alive = append(alive, []any{pos.Row, pos.Col})
	}
	return structpb.NewStruct(map[string]any{
		"type":       kindSnapshot,
		"generation": snapshot.Generation,
		"width":      snapshot.Width,
		"height":     snapshot.Height,
		"alive":      alive,
	})
}

func frameToStruct(frame simulation.Frame) (*structpb.Struct, error) {
	changes := make([]any, 0, len(frame.Delta))
	for _, change := range frame.Delta {
		changes = append(changes, []any{change.Pos.Row, change.Pos.Col, change.State == board.Alive})
	}
	return structpb.NewStruct(map[string]any{
		"type":       kindFrame,
		"generation": frame.Generation,
		"edit":       frame.Edit,
		"changes":    changes,
	})
}

func cellToStruct(pos board.CellPosition, state board.CellState) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"row":   pos.Row,
		"col":   pos.Col,
		"alive": state == board.Alive,
	})
}

func structToSnapshot(msg *structpb.Struct) (simulation.Snapshot, error) {
	fields := msg.GetFields()
	snapshot := simulation.Snapshot{
		Generation: uint64(fields["generation"].GetNumberValue()),
		Width:      int(fields["width"].GetNumberValue()),
		Height:     int(fields["height"].GetNumberValue()),
	}
	for i, value := range fields["alive"].GetListValue().GetValues() {
		pair := value.GetListValue().GetValues()
		if len(pair) != 2 {
			return simulation.Snapshot{}, fmt.Errorf("alive[%d]: want [row, col], got %d values", i, len(pair))
		}
		snapshot.Alive = append(snapshot.Alive, board.CellPosition{
			Row: int(pair[0].GetNumberValue()),
			Col: int(pair[1].GetNumberValue()),
		})
	}
	return snapshot, nil
}

func structToFrame(msg *structpb.Struct) (simulation.Frame, error) {
	fields := msg.GetFields()
	frame := simulation.Frame{
		Generation: uint64(fields["generation"].GetNumberValue()),
		Edit:       fields["edit"].GetBoolValue(),
	}
	for i, value := range fields["changes"].GetListValue().GetValues() {
		triple := value.GetListValue().GetValues()
		if len(triple) != 3 {
			return simulation.Frame{}, fmt.Errorf("changes[%d]: want [row, col, alive], got %d values", i, len(triple))
		}
		frame.Delta = append(frame.Delta, board.Change{
			Pos: board.CellPosition{
				Row: int(triple[0].GetNumberValue()),
				Col: int(triple[1].GetNumberValue()),
			},
			State: board.StateOf(triple[2].GetBoolValue()),
		})
	}
	return frame, nil
}

func structToCell(msg *structpb.Struct) (board.CellPosition, board.CellState, error) {
	fields := msg.GetFields()
	row, okRow := fields["row"].GetKind().(*structpb.Value_NumberValue)
	col, okCol := fields["col"].GetKind().(*structpb.Value_NumberValue)
	if !okRow || !okCol {
		return board.CellPosition{}, board.Dead, fmt.Errorf("row and col are required numbers")
	}
	r, err := coordinate("row", row.NumberValue)
	if err != nil {
		return board.CellPosition{}, board.Dead, err
	}
	c, err := coordinate("col", col.NumberValue)
	if err != nil {
		return board.CellPosition{}, board.Dead, err
	}
	return board.CellPosition{Row: r, Col: c}, board.StateOf(fields["alive"].GetBoolValue()), nil
}

// coordinate converts a JSON number to a cell index without truncating.
func coordinate(name string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Trunc(v) != v {
		return 0, fmt.Errorf("%s must be an integer, got %v", name, v)
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%s %v is out of range", name, v)
	}
	return int(v), nil
}
