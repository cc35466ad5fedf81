// Package errors provides structured domain errors with gRPC status mapping.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Board errors
	CodeBoardInvalidDimensions Code = "BOARD_INVALID_DIMENSIONS"
	CodeBoardInvalidPosition   Code = "BOARD_INVALID_POSITION"
	CodeBoardPatchOutOfBounds  Code = "BOARD_PATCH_OUT_OF_BOUNDS"
	CodeBoardDimensionMismatch Code = "BOARD_DIMENSION_MISMATCH"

	// Pattern errors
	CodePatternMalformed Code = "PATTERN_MALFORMED"
	CodePatternTooLarge  Code = "PATTERN_TOO_LARGE"

	// Script errors
	CodeScriptFailed Code = "SCRIPT_FAILED"

	// Simulation errors
	CodeSimulationClosed Code = "SIMULATION_CLOSED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeBoardInvalidDimensions,
		CodeBoardDimensionMismatch,
		CodePatternMalformed,
		CodeScriptFailed:
		return codes.InvalidArgument

	// OutOfRange - positions or regions outside the board
	case CodeBoardInvalidPosition,
		CodeBoardPatchOutOfBounds,
		CodePatternTooLarge:
		return codes.OutOfRange

	// Unavailable - the simulation is shutting down
	case CodeSimulationClosed:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
