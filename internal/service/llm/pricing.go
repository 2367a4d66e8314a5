package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ModelPricing holds the per-million-token rates for a model. Rates are
// decimals end to end; floating point never touches cost math.
type ModelPricing struct {
	PromptPerMillion     decimal.Decimal
	CompletionPerMillion decimal.Decimal
}

// defaultRates are the built-in USD rates per million tokens. A YAML file
// given via PRICING_FILE overrides or extends these.
var defaultRates = map[string]struct{ prompt, completion string }{
	// Claude models - full identifiers and short aliases
	"claude-opus-4":     {"15.00", "75.00"},
	"claude-sonnet-4":   {"3.00", "15.00"},
	"claude-sonnet-4-5": {"3.00", "15.00"},
	"claude-haiku-4-5":  {"0.80", "4.00"},

	// OpenAI models
	"gpt-4o":      {"2.50", "10.00"},
	"gpt-4o-mini": {"0.15", "0.60"},
	"gpt-4-turbo": {"10.00", "30.00"},

	// Gemini models
	"gemini-2.5-pro":   {"1.25", "10.00"},
	"gemini-2.5-flash": {"0.30", "2.50"},
}

var oneMillion = decimal.NewFromInt(1_000_000)

// PricingTable maps model identifiers to their token rates.
type PricingTable struct {
	rates map[string]ModelPricing
}

// NewPricingTable builds a table from the built-in default rates.
func NewPricingTable() *PricingTable {
	rates := make(map[string]ModelPricing, len(defaultRates))
	for model, r := range defaultRates {
		rates[model] = ModelPricing{
			PromptPerMillion:     decimal.RequireFromString(r.prompt),
			CompletionPerMillion: decimal.RequireFromString(r.completion),
		}
	}
	return &PricingTable{rates: rates}
}

// pricingFile is the YAML shape of a pricing override file:
//
//	claude-haiku-4-5:
//	  prompt_per_million: "0.80"
//	  completion_per_million: "4.00"
type pricingFile map[string]struct {
	PromptPerMillion     string `yaml:"prompt_per_million"`
	CompletionPerMillion string `yaml:"completion_per_million"`
}

// LoadPricingTable builds a table from the defaults merged with the given
// YAML file. An empty path returns the defaults unchanged.
func LoadPricingTable(path string) (*PricingTable, error) {
	table := NewPricingTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}

	var file pricingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}

	for model, r := range file {
		prompt, err := decimal.NewFromString(r.PromptPerMillion)
		if err != nil {
			return nil, fmt.Errorf("pricing for %s: bad prompt rate %q: %w", model, r.PromptPerMillion, err)
		}
		completion, err := decimal.NewFromString(r.CompletionPerMillion)
		if err != nil {
			return nil, fmt.Errorf("pricing for %s: bad completion rate %q: %w", model, r.CompletionPerMillion, err)
		}
		table.rates[model] = ModelPricing{
			PromptPerMillion:     prompt,
			CompletionPerMillion: completion,
		}
	}

	return table, nil
}

// Lookup returns the rates for the given model. It first attempts an exact
// match, then falls back to a prefix match so dated identifiers like
// "claude-haiku-4-5-20251001" map to their base model. The second return
// value reports whether pricing was found.
func (t *PricingTable) Lookup(model string) (ModelPricing, bool) {
	if p, ok := t.rates[model]; ok {
		return p, true
	}

	for name, p := range t.rates {
		if strings.HasPrefix(model, name) {
			return p, true
		}
	}

	return ModelPricing{}, false
}

// Estimate calculates the estimated USD cost for the given token counts on
// the specified model. The second return value is false when the model has
// no known pricing - callers must record the cost as unknown, not zero.
func (t *PricingTable) Estimate(model string, promptTokens, completionTokens int) (decimal.Decimal, bool) {
	p, ok := t.Lookup(model)
	if !ok {
		return decimal.Zero, false
	}

	promptCost := decimal.NewFromInt(int64(promptTokens)).Mul(p.PromptPerMillion)
	completionCost := decimal.NewFromInt(int64(completionTokens)).Mul(p.CompletionPerMillion)

	return promptCost.Add(completionCost).Div(oneMillion), true
}
