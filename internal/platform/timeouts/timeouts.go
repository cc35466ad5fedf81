// Package timeouts defines the timeout defaults shared by the life commands.
package timeouts

import "time"

// GRPCDial caps the wait for a gRPC peer to connect and report SERVING.
const GRPCDial = 2 * time.Second

// ReadHeader limits how long the websocket server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers and telemetry wait for in-flight work
// during graceful shutdown.
const Shutdown = 5 * time.Second
