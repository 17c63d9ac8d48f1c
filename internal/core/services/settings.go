package services

import (
	"fmt"
	"os"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
	"github.com/custodia-labs/historycourt/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMCuratorModel  = "llm.curator_model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTemperature   = "llm.temperature"
	keyLLMRPS           = "llm.requests_per_second"
	keyGenMode          = "generation.mode"
	keyGenPickN         = "generation.pick_n"
	keyGenRoundsDefault = "generation.rounds_default"
	keyGenLegacyTitles  = "generation.legacy_titles"
	keyStopThreshold    = "history.stop_threshold"
	keyTaxonomyOrder    = "taxonomy.order"
	keyTypeMapPath      = "taxonomy.type_map_path"
	keyDataDir          = "storage.data_dir"
	keyAuditPath        = "audit.path"
	keyServerAddr       = "server.addr"
	keyCacheSize        = "cache.size"
)

// Environment variables that take precedence over the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvAPIKey        = "HISTORYCOURT_LLM_API_KEY"
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvTypeMapPath   = "TYPE_MAP_PATH"
	EnvDatabasePath  = "HISTORYCOURT_DB"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings, with environment overrides
// applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.configStore.GetString(keyLLMModel),
			CuratorModel:      s.configStore.GetString(keyLLMCuratorModel),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			Temperature:       s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			RequestsPerSecond: s.configStore.GetFloat(keyLLMRPS),
		},
		Generation: domain.GenerationSettings{
			Mode:          s.getGenerationMode(defaults.Generation.Mode),
			PickN:         domain.ClampPickN(s.configStore.GetInt(keyGenPickN)),
			RoundsDefault: domain.ClampCaseRounds(s.configStore.GetInt(keyGenRoundsDefault)),
			LegacyTitles:  s.configStore.GetBool(keyGenLegacyTitles),
		},
		History: domain.HistorySettings{
			StopThreshold: s.getInt(keyStopThreshold, defaults.History.StopThreshold),
		},
		Taxonomy: domain.TaxonomySettings{
			Order:       s.configStore.GetStringSlice(keyTaxonomyOrder),
			TypeMapPath: s.configStore.GetString(keyTypeMapPath),
		},
		Storage: domain.StorageSettings{
			DataDir:       s.configStore.GetString(keyDataDir),
			AuditPath:     s.configStore.GetString(keyAuditPath),
			PoolCacheSize: s.getInt(keyCacheSize, defaults.Storage.PoolCacheSize),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv overrides file settings from the environment.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	keys := []string{EnvAPIKey}
	switch settings.LLM.Provider {
	case domain.AIProviderOpenAI:
		keys = append(keys, EnvOpenRouterKey, EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		keys = append(keys, EnvAnthropicKey)
	}
	for _, k := range keys {
		if v := s.getenv(k); v != "" {
			settings.LLM.APIKey = v
			break
		}
	}
	if v := s.getenv(EnvTypeMapPath); v != "" {
		settings.Taxonomy.TypeMapPath = v
	}
	if v := s.getenv(EnvDatabasePath); v != "" {
		settings.Storage.DBPath = v
	}
}

// Save persists the user-editable settings. Environment overrides are
// never written back, and an empty API key keeps the stored one.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMCuratorModel, settings.LLM.CuratorModel},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMRPS, settings.LLM.RequestsPerSecond},
		{keyGenMode, settings.Generation.Mode.String()},
		{keyGenPickN, settings.Generation.PickN},
		{keyGenRoundsDefault, settings.Generation.RoundsDefault},
		{keyGenLegacyTitles, settings.Generation.LegacyTitles},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != s.envAPIKey(settings.LLM.Provider) {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}
	return nil
}

func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	probe := &domain.AppSettings{LLM: domain.LLMSettings{Provider: provider}}
	s.applyEnv(probe)
	return probe.LLM.APIKey
}

// SetGenerationMode updates the generation mode.
func (s *SettingsService) SetGenerationMode(mode domain.GenerationMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid generation mode: %s", mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Generation.Mode = mode
	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" && settings.LLM.Provider == provider {
		apiKey = settings.LLM.APIKey
	}
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if settings.LLM.Provider != provider {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	// Local providers need a base URL
	if provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = defaultOllamaURL
	}

	settings.LLM.APIKey = apiKey
	return s.Save(settings)
}

// Validate checks if current settings are valid for the configured mode.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Generation.Mode.IsValid() {
		return fmt.Errorf("invalid generation mode: %s", settings.Generation.Mode)
	}
	if settings.Generation.Mode.RequiresLLM() && !settings.LLM.IsConfigured() {
		return fmt.Errorf(
			"generation mode %q requires LLM provider to be configured",
			settings.Generation.Mode.Description(),
		)
	}
	return nil
}

// RequiresLLM returns true if current mode needs LLM.
func (s *SettingsService) RequiresLLM() bool {
	settings, err := s.Get()
	if err != nil {
		return false
	}
	return settings.Generation.Mode.RequiresLLM()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getGenerationMode(defaultVal domain.GenerationMode) domain.GenerationMode {
	val := s.configStore.GetString(keyGenMode)
	if val == "" {
		return defaultVal
	}
	mode := domain.GenerationMode(val)
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
