package driven

// Metrics receives generation and pipeline observations.
type Metrics interface {
	// ObserveGeneration records one strategy attempt.
	ObserveGeneration(strategy, outcome string, seconds float64)

	// ObserveValidationFailure records a rejected document by rule.
	ObserveValidationFailure(rule string)

	// ObserveHistoryStage records item counts through the upload shrink.
	ObserveHistoryStage(stage string, items int)
}
