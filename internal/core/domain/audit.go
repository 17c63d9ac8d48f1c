package domain

import (
	"encoding/json"
	"time"
)

// AuditRecord is one line of the generation audit log.
type AuditRecord struct {
	Timestamp time.Time `json:"ts"`

	// Meta is caller-supplied context such as session and case ids.
	Meta map[string]any `json:"meta"`

	// Request summarises the outbound call without the full pool.
	Request map[string]any `json:"request"`

	// ResponseRaw is the service's reply text, verbatim.
	ResponseRaw string `json:"response_raw"`

	// Normalized is the validated result, or null.
	Normalized json.RawMessage `json:"normalized"`

	// Error is the failure message, or null.
	Error *string `json:"error"`
}
