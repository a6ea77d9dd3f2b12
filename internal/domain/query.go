package domain

import "strings"

// Intent is the user's high-level goal. The vocabulary is open-ended:
// unknown values coming back from the classifier are carried as-is.
type Intent string

// Known intents.
const (
	IntentSearch    Intent = "search"
	IntentCompare   Intent = "compare"
	IntentExplain   Intent = "explain"
	IntentRecommend Intent = "recommend"
	IntentAnalyze   Intent = "analyze"
	IntentReview    Intent = "review"
)

// StructuredQuery is the normalized {intent, category, filters} triple
// produced from raw text. Filter values are scalars, scalar lists, or a
// {min,max} range; anything else is dropped by filter normalization.
type StructuredQuery struct {
	Intent        Intent         `json:"intent"`
	Category      string         `json:"category"`
	Filters       map[string]any `json:"filters"`
	OriginalQuery string         `json:"original_query,omitempty"`
}

// NewStructuredQuery creates a query with an initialized filter map.
func NewStructuredQuery(intent Intent, category string) StructuredQuery {
	return StructuredQuery{
		Intent:   intent,
		Category: category,
		Filters:  make(map[string]any),
	}
}

// Clone deep-copies the query so follow-up rewrites never alias the
// session's stored copy.
func (q StructuredQuery) Clone() StructuredQuery {
	out := q
	out.Filters = make(map[string]any, len(q.Filters))
	for k, v := range q.Filters {
		out.Filters[k] = v
	}
	return out
}

// PriceRange is the {min,max} shape of a range price filter; both bounds
// are optional.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// NutritionFocus reports whether the synthetic nutrition flag is set.
func (q StructuredQuery) NutritionFocus() bool {
	v, ok := q.Filters["nutrition_focus"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// NutritionTerms are the health keywords a product's text must contain
// when nutrition focus is active.
var NutritionTerms = []string{"protein", "vitamin", "nutritious", "nutrition", "healthy", "organic"}

// ContainsNutritionTerm reports whether text contains any nutrition keyword.
func ContainsNutritionTerm(text string) bool {
	text = strings.ToLower(text)
	for _, term := range NutritionTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
