// Package domain defines the core business entities for History Court.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - HistoryEntry: A raw browsing-history record as uploaded
//   - CandidateItem: A cleaned, tagged history item
//   - RealItem: A curated pool item the generator may reference by index
//   - Round: Three cards, one of which is the fabricated lie
//   - Session and Case: Persisted uploads and generated games
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
