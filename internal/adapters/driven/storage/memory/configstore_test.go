package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("llm.provider", "ollama"))

	val, ok := store.Get("llm.provider")
	assert.True(t, ok)
	assert.Equal(t, "ollama", val)

	_, ok = store.Get("llm.model")
	assert.False(t, ok)
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStoreFrom(map[string]any{
		"generation.mode":           "two_stage",
		"generation.pick_n":         int64(120),
		"generation.rounds_default": 7.0,
		"generation.legacy_titles":  true,
		"llm.temperature":           0.4,
		"llm.requests_per_second":   2,
		"taxonomy.order":            []any{"news", 3, "social"},
		"server.addr":               42,
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("generation.mode"), "two_stage"},
		{"string wrong type", store.GetString("server.addr"), ""},
		{"int from int64", store.GetInt("generation.pick_n"), 120},
		{"int from float", store.GetInt("generation.rounds_default"), 7},
		{"int missing", store.GetInt("cache.size"), 0},
		{"bool", store.GetBool("generation.legacy_titles"), true},
		{"bool wrong type", store.GetBool("generation.mode"), false},
		{"float", store.GetFloat("llm.temperature"), 0.4},
		{"float from int", store.GetFloat("llm.requests_per_second"), 2.0},
		{"float wrong type", store.GetFloat("generation.mode"), 0.0},
		{"slice skips non-strings", store.GetStringSlice("taxonomy.order"), []string{"news", "social"}},
		{"slice missing", store.GetStringSlice("missing"), []string(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SeedIsCopied(t *testing.T) {
	seed := map[string]any{"llm.model": "a"}
	store := NewConfigStoreFrom(seed)
	seed["llm.model"] = "b"

	assert.Equal(t, "a", store.GetString("llm.model"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("k.%d", i), i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("k.%d", i))
		}()
	}
	wg.Wait()

	for i := range 50 {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("k.%d", i)))
	}
}
