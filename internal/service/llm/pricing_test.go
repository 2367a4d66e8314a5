package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	table := NewPricingTable()

	tests := []struct {
		name       string
		model      string
		wantFound  bool
		wantPrompt string
	}{
		{name: "exact match", model: "claude-haiku-4-5", wantFound: true, wantPrompt: "0.80"},
		{name: "dated identifier prefix match", model: "claude-haiku-4-5-20251001", wantFound: true, wantPrompt: "0.80"},
		{name: "openai exact", model: "gpt-4o-mini", wantFound: true, wantPrompt: "0.15"},
		{name: "unknown model", model: "llama-3-70b", wantFound: false},
		{name: "empty model", model: "", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := table.Lookup(tt.model)
			assert.Equal(t, tt.wantFound, ok)
			if tt.wantFound {
				assert.True(t, p.PromptPerMillion.Equal(decimal.RequireFromString(tt.wantPrompt)),
					"prompt rate: got %s", p.PromptPerMillion)
			}
		})
	}
}

func TestEstimate(t *testing.T) {
	table := NewPricingTable()

	// claude-haiku-4-5: 0.80 prompt, 4.00 completion per million
	// 1M prompt + 500k completion = 0.80 + 2.00 = 2.80
	cost, ok := table.Estimate("claude-haiku-4-5", 1_000_000, 500_000)
	require.True(t, ok)
	assert.True(t, cost.Equal(decimal.RequireFromString("2.80")), "got %s", cost)

	// Small counts stay exact in decimal: 100 prompt tokens of gpt-4o at
	// 2.50/M = 0.00025
	cost, ok = table.Estimate("gpt-4o", 100, 0)
	require.True(t, ok)
	assert.True(t, cost.Equal(decimal.RequireFromString("0.00025")), "got %s", cost)

	// Zero tokens cost zero
	cost, ok = table.Estimate("claude-sonnet-4", 0, 0)
	require.True(t, ok)
	assert.True(t, cost.IsZero())

	// Unknown model reports no pricing, never zero-cost
	_, ok = table.Estimate("mystery-model", 100, 100)
	assert.False(t, ok)
}

func TestLoadPricingTableOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")

	content := `claude-haiku-4-5:
  prompt_per_million: "1.00"
  completion_per_million: "5.00"
custom-model:
  prompt_per_million: "0.10"
  completion_per_million: "0.20"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadPricingTable(path)
	require.NoError(t, err)

	// Overridden rate wins over the built-in
	p, ok := table.Lookup("claude-haiku-4-5")
	require.True(t, ok)
	assert.True(t, p.PromptPerMillion.Equal(decimal.RequireFromString("1.00")))

	// New model is added
	p, ok = table.Lookup("custom-model")
	require.True(t, ok)
	assert.True(t, p.CompletionPerMillion.Equal(decimal.RequireFromString("0.20")))

	// Untouched builtin survives the merge
	_, ok = table.Lookup("gpt-4o")
	assert.True(t, ok)
}

func TestLoadPricingTableErrors(t *testing.T) {
	_, err := LoadPricingTable("/nonexistent/pricing.yaml")
	require.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  prompt_per_million: \"not-a-number\"\n  completion_per_million: \"1.0\"\n"), 0o644))

	_, err = LoadPricingTable(path)
	require.Error(t, err)
}

func TestLoadPricingTableEmptyPath(t *testing.T) {
	table, err := LoadPricingTable("")
	require.NoError(t, err)
	_, ok := table.Lookup("claude-haiku-4-5")
	assert.True(t, ok)
}
