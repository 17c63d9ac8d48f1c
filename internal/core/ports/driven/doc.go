// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SessionStore: uploaded history persistence
//   - CaseStore: generated case persistence with serialised edits
//   - ConfigStore: application configuration
//   - PromptStore: generation prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: generative curation and rounds. Without it, rounds are synthesised locally.
//   - AuditLog: generation audit trail.
//   - PoolCache: curated pool reuse across edits.
//   - Metrics: generation observations.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
