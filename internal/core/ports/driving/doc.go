// Package driving defines the ports the CLI, HTTP API and MCP server call
// into: history upload and review, round generation, case play and
// settings.
//
// Implementations live in internal/core/services.
package driving
