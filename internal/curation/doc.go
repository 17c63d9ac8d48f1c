// Package curation turns raw browsing history into tagged, scored candidates.
//
// The pipeline is pure and deterministic:
//
//   - Normalisation: canonical hosts, cleaned titles, generic-title detection
//   - Tagging: host type map, then per-category host and keyword rules
//   - Selection: interestingness scoring with per-host caps and dedupe
//   - Shrinking: staged reduction of large uploads with early exit
//   - Summaries: per-category counts for review and case setup screens
//
// A Taxonomy is built once at startup and shared read-only between requests.
package curation
