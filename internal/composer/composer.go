// Package composer builds the natural-language answer: an external
// generation call over a constructed prompt, with a deterministic
// template fallback.
package composer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/domain"
	"github.com/kailas-cloud/cartwise/internal/metrics"
)

// promptProducts caps how many products the prompt embeds.
const promptProducts = 3

// Generator is the external text generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Composer produces responses. Generation failures degrade to the
// template fallback and never propagate.
type Composer struct {
	llm    Generator
	logger *zap.Logger
}

// New creates a composer.
func New(llm Generator, logger *zap.Logger) *Composer {
	return &Composer{llm: llm, logger: logger}
}

// Compose renders a response for the query and its matches, consulting
// the session's accumulated preferences.
func (c *Composer) Compose(
	ctx context.Context, q domain.StructuredQuery, products []domain.Product, prefs domain.Preferences,
) string {
	if len(products) == 0 {
		return Fallback(q, products)
	}

	prompt := BuildPrompt(q, products, prefs)
	text, err := c.llm.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		c.logger.Warn("response generation failed, using template fallback", zap.Error(err))
		metrics.PipelineFallbacksTotal.WithLabelValues("generate").Inc()
		return Fallback(q, products)
	}
	return text
}

// BuildPrompt constructs the generation prompt: intent, category, filter
// conditions, up to three products, and session preferences.
func BuildPrompt(q domain.StructuredQuery, products []domain.Product, prefs domain.Preferences) string {
	intent := capitalize(string(q.Intent))
	if intent == "" {
		intent = "Recommend"
	}
	category := q.Category
	if category == "" {
		category = "products"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a retail shopping assistant. %s %s for a customer.\n", intent, category)
	b.WriteString("Consider these requirements:\n")

	for _, key := range sortedKeys(q.Filters) {
		if key == "nutrition_focus" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", key, flattenValue(q.Filters[key]))
	}
	if q.NutritionFocus() {
		b.WriteString("- Focus on nutrition and health attributes\n")
	}

	if len(products) > 0 {
		if q.Intent == domain.IntentCompare {
			b.WriteString("\nCompare the following products:\n")
		} else {
			b.WriteString("\nRelevant products:\n")
		}
		for i, p := range products {
			if i == promptProducts {
				break
			}
			fmt.Fprintf(&b, "- %s (%s): %.2f | %s\n", p.Name, p.Brand, p.Price, p.Features)
		}
	}

	if len(prefs.PreferredBrands) > 0 {
		fmt.Fprintf(&b, "\nCustomer prefers brands: %s\n", strings.Join(prefs.PreferredBrands, ", "))
	}
	if prefs.PriceRange != nil {
		fmt.Fprintf(&b, "Try to stay under %s\n", flattenValue(prefs.PriceRange))
	}
	if len(prefs.Tags) > 0 {
		fmt.Fprintf(&b, "Customer prefers products tagged: %s\n", strings.Join(prefs.Tags, ", "))
	}

	b.WriteString("\nRespond in 2-3 concise bullet points. Highlight sustainability where applicable.")
	return b.String()
}

// Fallback renders the deterministic template response: applied filters,
// a found-these line with the price ceiling when set, a nutrition note,
// and up to three product lines.
func Fallback(q domain.StructuredQuery, products []domain.Product) string {
	category := q.Category
	if category == "" {
		category = "products"
	}

	var lines []string
	if n := len(q.Filters); n > 0 {
		pairs := make([]string, 0, n)
		for _, key := range sortedKeys(q.Filters) {
			pairs = append(pairs, fmt.Sprintf("%s: %s", key, flattenValue(q.Filters[key])))
		}
		lines = append(lines, "Filters applied: "+strings.Join(pairs, ", "))
	}

	if price, ok := q.Filters["price"]; ok {
		lines = append(lines, fmt.Sprintf("I found these %s under %s:", category, flattenValue(price)))
	} else {
		lines = append(lines, fmt.Sprintf("I found these %s:", category))
	}
	if q.NutritionFocus() {
		lines = append(lines, "(Nutrition/health focus applied)")
	}

	if len(products) == 0 {
		lines = append(lines, fmt.Sprintf("Sorry, no %s products found matching your criteria.", category))
		return strings.Join(lines, "\n")
	}
	for i, p := range products {
		if i == promptProducts {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %.2f", p.Name, p.Brand, p.Price))
	}
	return strings.Join(lines, "\n")
}

func flattenValue(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, flattenValue(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range sortedKeys(v) {
			parts = append(parts, fmt.Sprintf("%s %s", k, flattenValue(v[k])))
		}
		return strings.Join(parts, ", ")
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
