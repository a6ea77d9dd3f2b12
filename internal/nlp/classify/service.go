// Package classify turns raw query text into a structured query, using an
// external classification call with a deterministic local fallback.
package classify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/domain"
	"github.com/kailas-cloud/cartwise/internal/metrics"
	"github.com/kailas-cloud/cartwise/internal/nlp/filters"
)

var compareKeywords = []string{"compare", "vs", "versus", "difference between"}

var nutritionKeywords = []string{
	"nutrition", "nutritious", "protein", "vitamin", "calorie",
	"healthy", "health", "organic",
}

// Service classifies queries. Never fails: any external-call failure or
// malformed completion degrades to LocalParse.
type Service struct {
	llm      Classifier
	products []domain.Product
	logger   *zap.Logger
}

// New creates a classification service over the loaded catalog.
func New(llm Classifier, products []domain.Product, logger *zap.Logger) *Service {
	return &Service{llm: llm, products: products, logger: logger}
}

// Classify produces a structured query for the text. The external
// classifier's intent is trusted except for comparison, where the local
// keyword signal takes precedence; nutrition keywords force the synthetic
// nutrition_focus filter either way.
func (s *Service) Classify(ctx context.Context, query string) domain.StructuredQuery {
	lower := strings.ToLower(query)
	compareDetected := containsAny(lower, compareKeywords)
	nutritionDetected := containsAny(lower, nutritionKeywords)

	parsed := s.classifyExternal(ctx, query)

	if compareDetected {
		parsed.Intent = domain.IntentCompare
	}
	if parsed.Intent == "" {
		parsed.Intent = domain.IntentSearch
	}
	if nutritionDetected {
		parsed.Filters["nutrition_focus"] = true
	}

	parsed.Filters = filters.Normalize(parsed.Filters)
	parsed.OriginalQuery = query
	return parsed
}

// classifyExternal attempts the remote call, degrading to LocalParse on
// any error or unusable completion. No retry here: a failed call falls
// through immediately.
func (s *Service) classifyExternal(ctx context.Context, query string) domain.StructuredQuery {
	raw, err := s.llm.Classify(ctx, query)
	if err != nil {
		s.logger.Warn("external classification failed, using local parser",
			zap.String("query", query), zap.Error(err))
		metrics.PipelineFallbacksTotal.WithLabelValues("classify").Inc()
		return LocalParse(query, s.products)
	}

	obj, ok := ExtractJSON(raw)
	if !ok {
		s.logger.Warn("classifier returned no parsable JSON, using local parser",
			zap.String("query", query))
		metrics.PipelineFallbacksTotal.WithLabelValues("classify").Inc()
		return LocalParse(query, s.products)
	}

	return s.fromClassifierObject(obj)
}

// fromClassifierObject maps the untyped classifier JSON onto a structured
// query. A filters field of the wrong shape is coerced to empty with a
// diagnostic rather than failing the request.
func (s *Service) fromClassifierObject(obj map[string]any) domain.StructuredQuery {
	parsed := domain.NewStructuredQuery(domain.IntentSearch, "")

	if intent, ok := obj["intent"].(string); ok {
		parsed.Intent = domain.Intent(strings.ToLower(strings.TrimSpace(intent)))
	}
	if cat, ok := obj["category"].(string); ok {
		parsed.Category = strings.ToLower(strings.TrimSpace(cat))
	}
	switch f := obj["filters"].(type) {
	case nil:
	case map[string]any:
		parsed.Filters = f
	default:
		s.logger.Warn("classifier filters field has wrong shape, dropping",
			zap.Any("filters", f))
	}

	return parsed
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
