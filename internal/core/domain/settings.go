package domain

const unknownDescription = "Unknown"

// GenerationMode selects how rounds are produced.
type GenerationMode string

// Available generation modes.
const (
	// GenerationModeLocal uses only the deterministic local synthesizer.
	GenerationModeLocal GenerationMode = "local"

	// GenerationModeSingle asks the generative service for whole rounds in one call.
	GenerationModeSingle GenerationMode = "single"

	// GenerationModeTwoStage curates a pool first, then builds rounds from it.
	GenerationModeTwoStage GenerationMode = "two_stage"
)

// IsValid returns true if the generation mode is recognised.
func (m GenerationMode) IsValid() bool {
	switch m {
	case GenerationModeLocal, GenerationModeSingle, GenerationModeTwoStage:
		return true
	default:
		return false
	}
}

// RequiresLLM returns true if this mode needs an LLM provider.
func (m GenerationMode) RequiresLLM() bool {
	return m == GenerationModeSingle || m == GenerationModeTwoStage
}

// String returns the string representation.
func (m GenerationMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m GenerationMode) Description() string {
	switch m {
	case GenerationModeLocal:
		return "Local (no LLM)"
	case GenerationModeSingle:
		return "Single-stage (LLM writes rounds)"
	case GenerationModeTwoStage:
		return "Two-stage (LLM curates, then writes rounds)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible chat completions API,
	// including OpenRouter.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the round-writing model name.
	Model string

	// CuratorModel is the model used for pool curation; empty means Model.
	CuratorModel string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature for round writing.
	Temperature float64

	// RequestsPerSecond throttles outbound calls; zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings holds round generation configuration.
type GenerationSettings struct {
	Mode GenerationMode

	// PickN is how many items the curator selects in two-stage mode.
	PickN int

	// RoundsDefault is used when a request does not name a count.
	RoundsDefault int

	// LegacyTitles makes the local synthesizer use the shorter legacy title cleaner.
	LegacyTitles bool
}

// Default generation parameters.
const (
	DefaultPickN              = 300
	MinPickN                  = 50
	MaxPickN                  = 400
	DefaultStopThreshold      = 1000
	DefaultRoundTemperature   = 0.35
	DefaultCuratorTemperature = 0.2
	DefaultPoolCacheSize      = 128
	DefaultServerAddr         = "127.0.0.1:5000"
)

// ClampPickN bounds the curator pool size, defaulting zero.
func ClampPickN(n int) int {
	if n == 0 {
		return DefaultPickN
	}
	return min(max(n, MinPickN), MaxPickN)
}

// HistorySettings tunes upload processing.
type HistorySettings struct {
	// StopThreshold ends the staged shrink once the item count is at most this.
	StopThreshold int
}

// TaxonomySettings customises tagging.
type TaxonomySettings struct {
	// Order lists category ids in tie-break order; empty keeps the built-in order.
	Order []string

	// TypeMapPath is a CSV of host to site type; empty disables the lookup.
	TypeMapPath string
}

// StorageSettings locates persistent state.
type StorageSettings struct {
	// DataDir holds the database; empty uses the config directory.
	DataDir string

	// DBPath overrides the database file; empty uses DataDir and InMemoryDB
	// keeps sessions in memory.
	DBPath string

	// AuditPath is the JSONL generation audit log; empty uses the config
	// directory and AuditDisabled turns it off.
	AuditPath string

	// PoolCacheSize bounds the curated pool cache.
	PoolCacheSize int
}

// AuditDisabled as an audit path turns the audit log off.
const AuditDisabled = "off"

// InMemoryDB as a database path keeps sessions and cases in memory.
const InMemoryDB = ":memory:"

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM        LLMSettings
	Generation GenerationSettings
	History    HistorySettings
	Taxonomy   TaxonomySettings
	Storage    StorageSettings
	Server     ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is left unconfigured; generation then stays local.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Temperature: DefaultRoundTemperature,
		},
		Generation: GenerationSettings{
			Mode:          GenerationModeSingle,
			PickN:         DefaultPickN,
			RoundsDefault: DefaultCaseRounds,
		},
		History: HistorySettings{
			StopThreshold: DefaultStopThreshold,
		},
		Storage: StorageSettings{
			PoolCacheSize: DefaultPoolCacheSize,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// AllGenerationModes returns all available generation modes.
func AllGenerationModes() []GenerationMode {
	return []GenerationMode{
		GenerationModeLocal,
		GenerationModeSingle,
		GenerationModeTwoStage,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-5",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
