package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	settings := &mockSettingsService{settings: domain.DefaultAppSettings()}
	settings.settings.Generation.Mode = domain.GenerationModeTwoStage
	settings.settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-5",
		APIKey:   "sk-1234567890abcdef",
	}

	out, err := executeCommand(t, Services{Settings: settings}, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Two-stage")
	assert.Contains(t, out, "Curated pool: 300")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Address: 127.0.0.1:5000")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_InvalidConfig(t *testing.T) {
	settings := &mockSettingsService{
		settings:    domain.DefaultAppSettings(),
		validateErr: errors.New("LLM provider not configured"),
	}

	out, err := executeCommand(t, Services{Settings: settings}, "", "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: LLM provider not configured")
	assert.Contains(t, out, "Status: not configured")
}

func TestSettingsMode(t *testing.T) {
	t.Run("argument", func(t *testing.T) {
		settings := &mockSettingsService{settings: domain.DefaultAppSettings()}
		out, err := executeCommand(t, Services{Settings: settings}, "", "settings", "mode", "local")
		require.NoError(t, err)
		assert.Equal(t, domain.GenerationModeLocal, settings.settings.Generation.Mode)
		assert.NotContains(t, out, "Note:")
	})

	t.Run("menu", func(t *testing.T) {
		settings := &mockSettingsService{settings: domain.DefaultAppSettings()}
		out, err := executeCommand(t, Services{Settings: settings}, "3\n", "settings", "mode")
		require.NoError(t, err)
		assert.Equal(t, domain.GenerationModeTwoStage, settings.settings.Generation.Mode)
		assert.Contains(t, out, "settings llm")
	})

	t.Run("invalid argument", func(t *testing.T) {
		settings := &mockSettingsService{settings: domain.DefaultAppSettings()}
		_, err := executeCommand(t, Services{Settings: settings}, "", "settings", "mode", "fast")
		assert.ErrorContains(t, err, "invalid generation mode")
	})

	t.Run("invalid menu choice", func(t *testing.T) {
		settings := &mockSettingsService{settings: domain.DefaultAppSettings()}
		_, err := executeCommand(t, Services{Settings: settings}, "9\n", "settings", "mode")
		assert.ErrorContains(t, err, "invalid selection")
	})
}

func TestSettingsLLM(t *testing.T) {
	settings := &mockSettingsService{settings: domain.DefaultAppSettings()}

	out, err := executeCommand(t, Services{Settings: settings}, "2\n\nsk-test-key-123\n", "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.lastProvider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderOpenAI], settings.lastModel)
	assert.Equal(t, "sk-test-key-123", settings.lastKey)
	assert.Contains(t, out, "Validating configuration... OK")
}

func TestSettingsLLM_MissingKey(t *testing.T) {
	settings := &mockSettingsService{settings: domain.DefaultAppSettings()}

	_, err := executeCommand(t, Services{Settings: settings}, "3\nclaude\n\n", "settings", "llm")

	assert.ErrorContains(t, err, "API key is required")
	assert.Empty(t, settings.lastProvider)
}

func TestSettingsLLM_ValidationFails(t *testing.T) {
	settings := &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		llmErr:   errors.New("connection refused"),
	}

	out, err := executeCommand(t, Services{Settings: settings}, "1\nllama3.2\n", "settings", "llm")

	assert.ErrorContains(t, err, "validation failed")
	assert.Contains(t, out, "FAILED: connection refused")
	assert.Equal(t, domain.AIProviderOllama, settings.lastProvider)
}

func TestSettingsWizard_Local(t *testing.T) {
	settings := &mockSettingsService{settings: domain.DefaultAppSettings()}

	out, err := executeCommand(t, Services{Settings: settings}, "1\n", "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.GenerationModeLocal, settings.settings.Generation.Mode)
	assert.Contains(t, out, "LLM Provider (skipped)")
	assert.Empty(t, settings.lastProvider)
}
