package driven

import "github.com/custodia-labs/historycourt/internal/core/domain"

// PoolCache keeps curated pools so edits to a case do not re-curate.
type PoolCache interface {
	// Get returns a cached pool.
	Get(key string) ([]domain.RealItem, bool)

	// Add stores a pool, evicting the least recently used entry when full.
	Add(key string, pool []domain.RealItem)
}
