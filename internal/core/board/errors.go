package board

import (
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/life/internal/platform/errors"
)

var (
	// ErrInvalidDimensions indicates a board with a non-positive width or height.
	ErrInvalidDimensions = apperrors.New(apperrors.CodeBoardInvalidDimensions, "board dimensions must be positive")
	// ErrInvalidPosition indicates a position outside the board.
	ErrInvalidPosition = apperrors.New(apperrors.CodeBoardInvalidPosition, "position is outside the board")
	// ErrPatchOutOfBounds indicates a patch that does not fit from its origin.
	ErrPatchOutOfBounds = apperrors.New(apperrors.CodeBoardPatchOutOfBounds, "patch exceeds board size")
	// ErrDimensionMismatch indicates a state buffer whose length does not match its dimensions.
	ErrDimensionMismatch = apperrors.New(apperrors.CodeBoardDimensionMismatch, "state length does not match dimensions")
)

func invalidDimensions(width, height int) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeBoardInvalidDimensions,
		fmt.Sprintf("board dimensions must be positive: %dx%d", width, height),
		map[string]string{"Width": strconv.Itoa(width), "Height": strconv.Itoa(height)},
	)
}

func invalidPosition(pos CellPosition, width, height int) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeBoardInvalidPosition,
		fmt.Sprintf("position %s is outside %dx%d board", pos, width, height),
		map[string]string{
			"Row":    strconv.Itoa(pos.Row),
			"Col":    strconv.Itoa(pos.Col),
			"Width":  strconv.Itoa(width),
			"Height": strconv.Itoa(height),
		},
	)
}

func patchOutOfBounds(origin CellPosition, patchWidth, patchHeight, width, height int) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeBoardPatchOutOfBounds,
		fmt.Sprintf("%dx%d patch at %s exceeds %dx%d board", patchWidth, patchHeight, origin, width, height),
		map[string]string{
			"Row":         strconv.Itoa(origin.Row),
			"Col":         strconv.Itoa(origin.Col),
			"PatchWidth":  strconv.Itoa(patchWidth),
			"PatchHeight": strconv.Itoa(patchHeight),
			"Width":       strconv.Itoa(width),
			"Height":      strconv.Itoa(height),
		},
	)
}

func dimensionMismatch(got, width, height int) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeBoardDimensionMismatch,
		fmt.Sprintf("state length %d does not match %dx%d", got, width, height),
		map[string]string{
			"Length": strconv.Itoa(got),
			"Width":  strconv.Itoa(width),
			"Height": strconv.Itoa(height),
		},
	)
}
