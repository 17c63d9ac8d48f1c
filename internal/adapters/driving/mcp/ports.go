package mcp

import (
	"github.com/custodia-labs/historycourt/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Generator produces rounds from a history.
	Generator driving.RoundGenerator

	// History reviews histories and exposes the taxonomy.
	History driving.HistoryService

	// Game plays stored cases. Optional; case tools report an error without it.
	Game driving.GameService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Generator == nil {
		return ErrMissingGenerator
	}
	if p.History == nil {
		return ErrMissingHistoryService
	}
	return nil
}
