// Package mcp provides an MCP (Model Context Protocol) server adapter for historycourt.
// It lets assistants generate rounds from a history, review a history and play
// stored cases.
package mcp

import "errors"

// ErrMissingGenerator is returned when the round generator is not provided.
var ErrMissingGenerator = errors.New("mcp: round generator is required")

// ErrMissingHistoryService is returned when the history service is not provided.
var ErrMissingHistoryService = errors.New("mcp: history service is required")

// ErrGameUnavailable is returned by case tools when no game service is configured.
var ErrGameUnavailable = errors.New("mcp: case storage is not available")
