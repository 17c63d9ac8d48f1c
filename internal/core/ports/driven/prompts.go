package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the embedded default
	// or an error when none exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. These constants are the contract between prompt
// consumers and providers.
const (
	// PromptRoundsSystem instructs the model to write rounds from REAL_ITEMS.
	// This prompt has no format placeholders.
	PromptRoundsSystem = "rounds_system"

	// PromptCuratorSystem instructs the model to pick interesting raw items.
	// This prompt has no format placeholders.
	PromptCuratorSystem = "curator_system"

	// PromptRepair is sent with the previous output and validation error
	// when a rounds document is rejected.
	PromptRepair = "repair_instructions"
)
