package assistant

import (
	"context"
	"strings"

	"github.com/kailas-cloud/cartwise/internal/domain"
	"github.com/kailas-cloud/cartwise/internal/metrics"
)

// Single-word follow-ups rewrite the previous query's filters.
var priceFollowups = map[string]struct{}{
	"cheaper": {}, "budget": {}, "cheap": {},
}

var nutritionFollowups = map[string]struct{}{
	"healthier": {}, "nutrition": {}, "nutritious": {}, "protein": {}, "healthy": {},
}

// resolveFollowup handles conversational follow-ups against the previous
// resolved query. Returns false when the text is not a follow-up and the
// regular pipeline should run.
func (s *Service) resolveFollowup(ctx context.Context, sess *domain.SessionContext, text string) (Result, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	words := strings.Fields(lower)

	if len(words) == 1 {
		_, isPrice := priceFollowups[words[0]]
		_, isNutrition := nutritionFollowups[words[0]]
		if !isPrice && !isNutrition {
			return Result{}, false
		}
		if sess.LastQuery == nil {
			metrics.QueriesTotal.WithLabelValues("clarify").Inc()
			return Result{SessionID: sess.ID, Response: msgNeedContext}, true
		}

		rewritten := sess.LastQuery.Clone()
		if isPrice {
			rewritten.Filters["price"] = "budget"
		} else {
			rewritten.Filters["nutrition_focus"] = true
		}
		rewritten.OriginalQuery = strings.Join(
			[]string{string(rewritten.Intent), rewritten.Category, "with", words[0]}, " ")
		return s.resolveRewritten(ctx, sess, text, rewritten), true
	}

	// Multi-word follow-ups referencing another brand exclude the brands
	// already preferred this conversation.
	if sess.LastQuery != nil && mentionsOtherBrand(lower) {
		rewritten := sess.LastQuery.Clone()
		if excluded := brandExclusions(sess, s.catalog); len(excluded) > 0 {
			rewritten.Filters["brand"] = excluded
		} else {
			delete(rewritten.Filters, "brand")
		}
		// a category named in the follow-up switches the search
		for _, cat := range s.vocab.SortedCategories {
			if strings.Contains(lower, cat) {
				rewritten.Category = cat
				break
			}
		}
		rewritten.OriginalQuery = text
		return s.resolveRewritten(ctx, sess, text, rewritten), true
	}

	return Result{}, false
}

// resolveRewritten re-runs match and compose over a rewritten query,
// bypassing classification: the structure is already known.
func (s *Service) resolveRewritten(
	ctx context.Context, sess *domain.SessionContext, rawText string, q domain.StructuredQuery,
) Result {
	sess.Remember(q)

	products := s.matchRelaxed(q)
	response := s.compose.Compose(ctx, q, products, sess.Preferences)

	s.sink.Append(domain.NewLogEntry(sess.ID, rawText, q, len(products), response))

	outcome := "ok"
	if len(products) == 0 {
		outcome = "no_match"
	}
	metrics.QueriesTotal.WithLabelValues(outcome).Inc()

	return Result{SessionID: sess.ID, Response: response, Products: truncate(products)}
}

func mentionsOtherBrand(lower string) bool {
	if !strings.Contains(lower, "brand") {
		return false
	}
	return strings.Contains(lower, "other") || strings.Contains(lower, "another")
}

// brandExclusions computes catalog brands minus the brands the session
// has already preferred.
func brandExclusions(sess *domain.SessionContext, catalog []domain.Product) []string {
	excluded := make(map[string]struct{})
	for _, b := range sess.Preferences.PreferredBrands {
		excluded[strings.ToLower(b)] = struct{}{}
	}
	if len(excluded) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var remaining []string
	for _, p := range catalog {
		brand := strings.ToLower(p.Brand)
		if brand == "" {
			continue
		}
		if _, skip := excluded[brand]; skip {
			continue
		}
		if _, dup := seen[brand]; dup {
			continue
		}
		seen[brand] = struct{}{}
		remaining = append(remaining, brand)
	}
	return remaining
}
