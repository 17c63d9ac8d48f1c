package domain

// StageCount records how many items survived a shrink stage.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// UploadResult describes a stored history upload.
type UploadResult struct {
	SessionID  string       `json:"session_id"`
	TotalIn    int          `json:"total_in"`
	TotalSaved int          `json:"total_saved"`
	Stages     []StageCount `json:"stages"`
}

// GenerateRequest asks for a batch of rounds.
type GenerateRequest struct {
	// History is the material to draw truths from.
	History []HistoryEntry

	// Rounds is the exact number of rounds to return.
	Rounds int

	// Seed makes local synthesis reproducible and varies generative calls.
	Seed string

	// Tags restricts round categories. Empty means all.
	Tags []string

	// PoolKey identifies the history for curated pool caching. Empty disables caching.
	PoolKey string

	// Meta is copied into audit records.
	Meta map[string]any
}

// GenerateResult is a batch of rounds and the strategy that produced it.
type GenerateResult struct {
	Rounds   []Round `json:"rounds"`
	Strategy string  `json:"strategy"`
}

// SessionTags is the per-category breakdown of a stored session.
type SessionTags struct {
	Tags      []TagSummary `json:"tags"`
	Total     int          `json:"total"`
	MinPerTag int          `json:"min_per_tag"`
}
