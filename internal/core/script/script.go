// Package script builds initial boards from Lua seed scripts.
//
// A seed script must return a Board:
//
//	local b = Board.new(40, 40)
//	b:set(0, 1, true)
//	b:patch(10, 10, "-X-\n--X\nXXX")
//	b:place_file(0, 0, "glider.txt")
//	return b
//
// Positions are (row, col) and zero-based. Relative file paths resolve against
// the directory of the script.
package script

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/louisbranch/life/internal/core/board"
	"github.com/louisbranch/life/internal/core/pattern"
	apperrors "github.com/louisbranch/life/internal/platform/errors"
)

const boardTypeName = "life.board"

// ErrScriptFailed matches every failure to load or run a seed script.
var ErrScriptFailed = apperrors.New(apperrors.CodeScriptFailed, "seed script failed")

// LoadFile runs the seed script at path and returns the board it builds.
func LoadFile(path string) (*board.Board, error) {
	state := newState(filepath.Dir(path))
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, scriptError(path, "load", err)
	}
	return run(state, path)
}

// LoadString runs an in-memory seed script. Relative paths resolve against dir.
func LoadString(name, source, dir string) (*board.Board, error) {
	state := newState(dir)
	if err := lua.LoadBuffer(state, source, name, ""); err != nil {
		return nil, scriptError(name, "load", err)
	}
	return run(state, name)
}

func run(state *lua.State, name string) (*board.Board, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, scriptError(name, "run", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, apperrors.New(apperrors.CodeScriptFailed, fmt.Sprintf("seed script %s must return a Board", name))
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	b, ok := ud.(*board.Board)
	if !ok || b == nil {
		return nil, apperrors.New(apperrors.CodeScriptFailed, fmt.Sprintf("seed script %s returned an invalid Board", name))
	}
	return b, nil
}

func scriptError(name, stage string, err error) *apperrors.Error {
	return apperrors.WrapWithMetadata(
		apperrors.CodeScriptFailed,
		fmt.Sprintf("%s seed script %s: %v", stage, name, err),
		map[string]string{"Script": name, "Stage": stage},
		err,
	)
}

func newState(dir string) *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	b := &bindings{dir: dir}
	b.registerBoardType(state)
	b.registerBoardConstructor(state)
	return state
}

type bindings struct {
	dir string
}

func (b *bindings) registerBoardType(state *lua.State) {
	lua.NewMetaTable(state, boardTypeName)
	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{
		{Name: "width", Function: boardWidth},
		{Name: "height", Function: boardHeight},
		{Name: "set", Function: boardSet},
		{Name: "alive", Function: boardAlive},
		{Name: "patch", Function: boardPatch},
		{Name: "place_file", Function: b.boardPlaceFile},
		{Name: "center", Function: boardCenter},
		{Name: "advance", Function: boardAdvance},
		{Name: "population", Function: boardPopulation},
	}, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func (b *bindings) registerBoardConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{
		{Name: "new", Function: boardNew},
		{Name: "parse", Function: boardParse},
		{Name: "load", Function: b.boardLoad},
	}, 0)
	state.SetGlobal("Board")
}

func boardNew(state *lua.State) int {
	width := lua.CheckInteger(state, 1)
	height := lua.CheckInteger(state, 2)
	created, err := board.New(width, height, nil)
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
		return 0
	}
	pushBoard(state, created)
	return 1
}

func boardParse(state *lua.State) int {
	p := checkPattern(state, 1)
	pushBoard(state, patternBoard(state, p))
	return 1
}

func (b *bindings) boardLoad(state *lua.State) int {
	p := b.checkPatternFile(state, 1)
	pushBoard(state, patternBoard(state, p))
	return 1
}

func boardWidth(state *lua.State) int {
	state.PushInteger(checkBoard(state).Width())
	return 1
}

func boardHeight(state *lua.State) int {
	state.PushInteger(checkBoard(state).Height())
	return 1
}

func boardSet(state *lua.State) int {
	target := checkBoard(state)
	pos := checkPosition(state, 2)
	alive := true
	if !state.IsNoneOrNil(4) {
		alive = state.ToBoolean(4)
	}
	if err := target.Set(pos, board.StateOf(alive)); err != nil {
		lua.Errorf(state, "%s", err.Error())
	}
	return 0
}

func boardAlive(state *lua.State) int {
	target := checkBoard(state)
	alive, err := target.Alive(checkPosition(state, 2))
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
		return 0
	}
	state.PushBoolean(alive)
	return 1
}

func boardPatch(state *lua.State) int {
	target := checkBoard(state)
	origin := checkPosition(state, 2)
	place(state, target, origin, checkPattern(state, 4))
	return 0
}

func (b *bindings) boardPlaceFile(state *lua.State) int {
	target := checkBoard(state)
	origin := checkPosition(state, 2)
	place(state, target, origin, b.checkPatternFile(state, 4))
	return 0
}

// boardCenter returns the row and column that centre a pattern on the board.
func boardCenter(state *lua.State) int {
	target := checkBoard(state)
	p := checkPattern(state, 2)
	origin, err := p.Center(target.Width(), target.Height())
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
		return 0
	}
	state.PushInteger(origin.Row)
	state.PushInteger(origin.Col)
	return 2
}

func boardAdvance(state *lua.State) int {
	target := checkBoard(state)
	generations := lua.OptInteger(state, 2, 1)
	if generations < 0 {
		lua.ArgumentError(state, 2, "generations must not be negative")
		return 0
	}
	for i := 0; i < generations; i++ {
		target.Advance()
	}
	state.PushInteger(target.Population())
	return 1
}

func boardPopulation(state *lua.State) int {
	state.PushInteger(checkBoard(state).Population())
	return 1
}

func pushBoard(state *lua.State, b *board.Board) {
	state.PushUserData(b)
	lua.SetMetaTableNamed(state, boardTypeName)
}

func checkBoard(state *lua.State) *board.Board {
	ud := lua.CheckUserData(state, 1, boardTypeName)
	if b, ok := ud.(*board.Board); ok && b != nil {
		return b
	}
	lua.ArgumentError(state, 1, "board expected")
	return nil
}

func checkPosition(state *lua.State, index int) board.CellPosition {
	return board.CellPosition{
		Row: lua.CheckInteger(state, index),
		Col: lua.CheckInteger(state, index+1),
	}
}

func checkPattern(state *lua.State, index int) pattern.Pattern {
	p, err := pattern.ParseString(lua.CheckString(state, index))
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
	}
	return p
}

func (b *bindings) checkPatternFile(state *lua.State, index int) pattern.Pattern {
	path := strings.TrimSpace(lua.CheckString(state, index))
	if !filepath.IsAbs(path) && b.dir != "" {
		path = filepath.Join(b.dir, path)
	}
	p, err := pattern.LoadFile(path)
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
	}
	return p
}

func patternBoard(state *lua.State, p pattern.Pattern) *board.Board {
	created, err := p.Board()
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
		return nil
	}
	return created
}

func place(state *lua.State, target *board.Board, origin board.CellPosition, p pattern.Pattern) {
	if err := p.Place(target, origin); err != nil {
		lua.Errorf(state, "%s", err.Error())
	}
}
