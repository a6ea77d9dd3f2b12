// Package matcher applies a structured query against the in-memory
// catalog: per-filter-key semantics, category gating with health
// expansion, and price-ordered truncation.
package matcher

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/cartwise/internal/domain"
	"github.com/kailas-cloud/cartwise/internal/nlp/category"
)

// MaxResults caps the matched product list.
const MaxResults = 5

// defaultBudgetCeiling applies when a "budget"/"premium" price filter hits
// a category with no configured threshold.
const defaultBudgetCeiling = 1000

var wordRe = regexp.MustCompile(`\w+`)

var stopwords = map[string]struct{}{
	"is": {}, "are": {}, "the": {}, "a": {}, "an": {}, "available": {},
	"in": {}, "on": {}, "at": {}, "of": {}, "for": {}, "to": {},
	"with": {}, "do": {}, "does": {}, "hey": {},
}

var implicitHealthTerms = []string{"organic", "healthy", "natural", "nutrition"}

// Matcher matches products against structured queries. Read-only with
// respect to the catalog; safe for concurrent use.
type Matcher struct {
	categories       *category.Normalizer
	budgetThresholds map[string]float64
	accessors        map[string]func(domain.Product) string
}

// New creates a matcher. budgetThresholds maps category to the price
// ceiling used by "budget"/"premium" string filters.
func New(categories *category.Normalizer, budgetThresholds map[string]float64) *Matcher {
	return &Matcher{
		categories:       categories,
		budgetThresholds: budgetThresholds,
		// Allow-listed keys without dedicated semantics resolve through this
		// table; keys absent here ("item", "organic") are no-ops against
		// every product.
		accessors: map[string]func(domain.Product) string{
			"name": func(p domain.Product) string { return p.Name },
		},
	}
}

// ExactProduct returns the single product whose name contains every
// non-stopword of the raw query text, if one exists. Exact product hits
// take precedence over category and filter search.
func ExactProduct(rawQuery string, catalog []domain.Product) (domain.Product, bool) {
	words := significantWords(rawQuery)
	if len(words) == 0 {
		return domain.Product{}, false
	}
	for _, p := range catalog {
		name := strings.ToLower(p.Name)
		all := true
		for _, w := range words {
			if !strings.Contains(name, w) {
				all = false
				break
			}
		}
		if all {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Match applies the query against the catalog and returns at most
// MaxResults products, stable-sorted ascending by price.
func (m *Matcher) Match(q domain.StructuredQuery, catalog []domain.Product) []domain.Product {
	if q.OriginalQuery != "" {
		if p, ok := ExactProduct(q.OriginalQuery, catalog); ok {
			return []domain.Product{p}
		}
	}

	cat := strings.ToLower(q.Category)
	if cat == "" {
		return nil
	}

	healthTerms := m.healthTerms(cat, q.Filters)

	var results []domain.Product
	for _, p := range catalog {
		if m.categories.Normalize(p.Category) != cat {
			continue
		}
		if !m.matchesFilters(p, q) {
			continue
		}
		if len(healthTerms) > 0 && !containsAnyTerm(p.CombinedText(), healthTerms) {
			continue
		}
		results = append(results, p)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Price < results[j].Price
	})
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}

// healthTerms collects the implicit health vocabulary for health-flavored
// categories plus any health_attributes list entries.
func (m *Matcher) healthTerms(cat string, flts map[string]any) []string {
	var terms []string
	if strings.Contains(cat, "health") {
		terms = append(terms, implicitHealthTerms...)
	}
	if attrs, ok := flts["health_attributes"].([]any); ok {
		for _, a := range attrs {
			if s, ok := a.(string); ok {
				terms = append(terms, strings.ToLower(s))
			}
		}
	}
	return terms
}

func (m *Matcher) matchesFilters(p domain.Product, q domain.StructuredQuery) bool {
	for key, val := range q.Filters {
		switch key {
		case "price":
			if !m.matchesPrice(p, val, q.Category) {
				return false
			}
		case "brand":
			if !matchesBrand(p, val) {
				return false
			}
		case "tags":
			if !matchesTags(p, val) {
				return false
			}
		case "health_attributes":
			if s, ok := val.(string); ok {
				if !strings.Contains(p.HealthText(), strings.ToLower(s)) {
					return false
				}
			}
			// list form feeds the health-term expansion instead
		case "nutrition_focus":
			if b, ok := val.(bool); ok && b {
				if !domain.ContainsNutritionTerm(p.HealthText()) {
					return false
				}
			}
		case "type", "strength":
			if !containsAnyValue(val, strings.ToLower(p.Name)+" "+strings.ToLower(p.Features)) {
				return false
			}
		case "fat_content":
			if !containsAnyValue(val, p.CombinedText()) {
				return false
			}
		default:
			accessor, ok := m.accessors[key]
			if !ok {
				continue
			}
			if !containsAnyValue(val, strings.ToLower(accessor(p))) {
				return false
			}
		}
	}
	return true
}

var nonNumericRe = regexp.MustCompile(`[^0-9.]`)

// matchesPrice implements the price band semantics: numeric ceiling,
// "budget"/"cheap" and "expensive"/"premium" threshold bands, numeric
// strings with currency noise, and {min,max} ranges. Unparsable strings
// are a no-op for the product.
func (m *Matcher) matchesPrice(p domain.Product, val any, cat string) bool {
	threshold := func() float64 {
		if t, ok := m.budgetThresholds[strings.ToLower(cat)]; ok {
			return t
		}
		return defaultBudgetCeiling
	}

	switch v := val.(type) {
	case float64:
		return p.Price <= v
	case int:
		return p.Price <= float64(v)
	case int64:
		return p.Price <= float64(v)
	case string:
		lower := strings.ToLower(v)
		switch {
		case strings.Contains(lower, "budget") || strings.Contains(lower, "cheap"):
			return p.Price <= threshold()
		case strings.Contains(lower, "expensive") || strings.Contains(lower, "premium"):
			return p.Price >= threshold()
		default:
			stripped := nonNumericRe.ReplaceAllString(v, "")
			ceiling, err := strconv.ParseFloat(stripped, 64)
			if err != nil {
				return true
			}
			return p.Price <= ceiling
		}
	case map[string]any:
		if maxVal, ok := asFloat(v["max"]); ok && p.Price > maxVal {
			return false
		}
		if minVal, ok := asFloat(v["min"]); ok && p.Price < minVal {
			return false
		}
		return true
	}
	return true
}

func matchesBrand(p domain.Product, val any) bool {
	brand := strings.ToLower(p.Brand)
	switch v := val.(type) {
	case string:
		return strings.Contains(brand, strings.ToLower(v))
	case []any:
		for _, b := range v {
			if s, ok := b.(string); ok && strings.Contains(brand, strings.ToLower(s)) {
				return true
			}
		}
		return false
	case []string:
		for _, s := range v {
			if strings.Contains(brand, strings.ToLower(s)) {
				return true
			}
		}
		return false
	}
	return false
}

// matchesTags intersects the comma-separated query tags with the
// product's tag set.
func matchesTags(p domain.Product, val any) bool {
	var queryTags []string
	switch v := val.(type) {
	case string:
		for _, t := range strings.Split(v, ",") {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				queryTags = append(queryTags, t)
			}
		}
	case []any:
		for _, t := range v {
			if s, ok := t.(string); ok {
				queryTags = append(queryTags, strings.ToLower(strings.TrimSpace(s)))
			}
		}
	}
	if len(queryTags) == 0 {
		return false
	}
	productTags := make(map[string]struct{}, len(p.Tags))
	for _, t := range p.Tags {
		productTags[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range queryTags {
		if _, ok := productTags[t]; ok {
			return true
		}
	}
	return false
}

// containsAnyValue reports whether any scalar in val (string or string
// list) is contained in text.
func containsAnyValue(val any, text string) bool {
	switch v := val.(type) {
	case string:
		return strings.Contains(text, strings.ToLower(v))
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.Contains(text, strings.ToLower(s)) {
				return true
			}
		}
		return false
	case []string:
		for _, s := range v {
			if strings.Contains(text, strings.ToLower(s)) {
				return true
			}
		}
		return false
	}
	// non-string values never gate containment checks
	return true
}

func containsAnyTerm(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func asFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func significantWords(query string) []string {
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(query), -1) {
		if _, skip := stopwords[w]; !skip {
			out = append(out, w)
		}
	}
	return out
}
