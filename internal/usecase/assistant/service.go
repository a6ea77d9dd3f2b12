// Package assistant orchestrates the query pipeline: lexical correction,
// classification, category resolution, matching, composition, and session
// bookkeeping, with bounded retries around the whole sequence.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/domain"
	"github.com/kailas-cloud/cartwise/internal/matcher"
	"github.com/kailas-cloud/cartwise/internal/metrics"
	"github.com/kailas-cloud/cartwise/internal/nlp/lexical"
	"github.com/kailas-cloud/cartwise/internal/session"
)

// Canned responses for the non-pipeline outcomes.
const (
	msgEmptyQuery  = "Please enter a product or category to search for."
	msgNonsense    = "Sorry, I couldn't understand your request. Could you rephrase or specify a product/category?"
	msgNoCategory  = "I'm not sure which category you're referring to. Could you be more specific?"
	msgTryLater    = "I'm having trouble processing your request. Please try again later."
	msgNeedContext = "Sorry, I need more context to help with that."
)

// maxReturned caps the product list in the response payload.
const maxReturned = 3

var nonsensePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[^a-zA-Z0-9]+$`),
	regexp.MustCompile(`^[a-zA-Z]$`),
}

// vagueCategories are classifier outputs that carry no category signal;
// a price-only query with one of these inherits the session's last category.
var vagueCategories = map[string]struct{}{
	"": {}, "general": {}, "product": {}, "item": {},
	"unspecified": {}, "unknown": {}, "none": {},
}

// Result is the outcome of one processed query.
type Result struct {
	SessionID string
	Response  string
	Products  []domain.Product
}

// Service is the conversational pipeline. One instance serves all
// conversations; per-conversation state lives in the session manager.
type Service struct {
	classifier QueryClassifier
	match      ProductMatcher
	compose    ResponseComposer
	categories CategoryResolver
	locator    Locator
	sink       InteractionSink
	sessions   *session.Manager
	catalog    []domain.Product
	vocab      domain.Vocabulary
	maxRetries int
	logger     *zap.Logger
}

// New creates the assistant service over a loaded catalog.
func New(
	classifier QueryClassifier,
	match ProductMatcher,
	compose ResponseComposer,
	categories CategoryResolver,
	locator Locator,
	sink InteractionSink,
	sessions *session.Manager,
	catalog []domain.Product,
	maxRetries int,
	logger *zap.Logger,
) *Service {
	return &Service{
		classifier: classifier,
		match:      match,
		compose:    compose,
		categories: categories,
		locator:    locator,
		sink:       sink,
		sessions:   sessions,
		catalog:    catalog,
		vocab:      domain.BuildVocabulary(catalog),
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// ProcessQuery runs the full pipeline for one query in the given
// conversation. Always returns a usable result; external failures degrade
// internally and unexpected ones are retried up to the configured bound.
func (s *Service) ProcessQuery(ctx context.Context, sessionID, text string) Result {
	sess := s.sessions.Acquire(sessionID)
	text = strings.TrimSpace(text)

	if text == "" {
		metrics.QueriesTotal.WithLabelValues("clarify").Inc()
		return Result{SessionID: sess.ID, Response: msgEmptyQuery}
	}
	for _, pat := range nonsensePatterns {
		if pat.MatchString(text) {
			metrics.QueriesTotal.WithLabelValues("clarify").Inc()
			return Result{SessionID: sess.ID, Response: msgNonsense}
		}
	}

	if loc, ok := locationQuery(text); ok {
		metrics.QueriesTotal.WithLabelValues("ok").Inc()
		return Result{SessionID: sess.ID, Response: s.locator.Locate(loc)}
	}

	if res, ok := s.answerExactProduct(sess, text); ok {
		metrics.QueriesTotal.WithLabelValues("ok").Inc()
		return res
	}

	if res, ok := s.resolveFollowup(ctx, sess, text); ok {
		return res
	}

	return s.runPipeline(ctx, sess, text)
}

// runPipeline executes correct -> classify -> resolve category -> match ->
// compose, retrying the whole sequence on unexpected failure.
func (s *Service) runPipeline(ctx context.Context, sess *domain.SessionContext, text string) Result {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		res, err := s.attempt(ctx, sess, text)
		if err == nil {
			return res
		}
		s.logger.Error("pipeline attempt failed",
			zap.Int("attempt", attempt), zap.String("query", text), zap.Error(err))
	}
	metrics.QueriesTotal.WithLabelValues("error").Inc()
	return Result{SessionID: sess.ID, Response: msgTryLater}
}

// attempt is one idempotent pass of the pipeline. Panics are converted to
// errors so the retry bound applies to them too.
func (s *Service) attempt(ctx context.Context, sess *domain.SessionContext, text string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	corrected := lexical.Correct(text, s.vocab.Terms())
	parsed := s.classifier.Classify(ctx, corrected)
	parsed.OriginalQuery = text

	parsed.Category = s.categories.Normalize(parsed.Category)

	// A price-only query with no category signal continues the previous
	// category.
	if _, vague := vagueCategories[parsed.Category]; vague {
		if _, hasPrice := parsed.Filters["price"]; hasPrice && sess.LastCategory() != "" {
			parsed.Category = sess.LastCategory()
		}
	}
	if parsed.Category == "" {
		metrics.QueriesTotal.WithLabelValues("clarify").Inc()
		return Result{SessionID: sess.ID, Response: msgNoCategory}, nil
	}

	sess.Remember(parsed)

	products := s.matchRelaxed(parsed)

	response := s.compose.Compose(ctx, parsed, products, sess.Preferences)

	s.sink.Append(domain.NewLogEntry(sess.ID, text, parsed, len(products), response))

	outcome := "ok"
	if len(products) == 0 {
		outcome = "no_match"
	}
	metrics.QueriesTotal.WithLabelValues(outcome).Inc()

	return Result{SessionID: sess.ID, Response: response, Products: truncate(products)}, nil
}

// matchRelaxed matches, and on an empty result with a price filter
// present, drops the price filter and retries once.
func (s *Service) matchRelaxed(q domain.StructuredQuery) []domain.Product {
	products := s.match.Match(q, s.catalog)
	if len(products) > 0 {
		return products
	}
	if _, hasPrice := q.Filters["price"]; !hasPrice {
		return products
	}
	relaxed := q.Clone()
	delete(relaxed.Filters, "price")
	s.logger.Info("no matches, retrying without price filter",
		zap.String("category", q.Category))
	return s.match.Match(relaxed, s.catalog)
}

// answerExactProduct answers availability questions that name a single
// product, suggesting the cheapest same-category alternatives.
func (s *Service) answerExactProduct(sess *domain.SessionContext, text string) (Result, bool) {
	p, ok := matcher.ExactProduct(text, s.catalog)
	if !ok {
		return Result{}, false
	}

	last := domain.NewStructuredQuery(domain.IntentSearch, strings.ToLower(p.Category))
	sess.Remember(last)

	var suggestions []domain.Product
	for _, other := range s.catalog {
		if other.ID == p.ID || !strings.EqualFold(other.Category, p.Category) {
			continue
		}
		suggestions = append(suggestions, other)
	}
	sortByPrice(suggestions)

	products := append([]domain.Product{p}, suggestions...)
	response := fmt.Sprintf("Yes, %s is available! Price: %.2f.", p.Name, p.Price)

	s.sink.Append(domain.NewLogEntry(sess.ID, text, last, len(products), response))

	return Result{SessionID: sess.ID, Response: response, Products: truncate(products)}, true
}

func sortByPrice(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Price < products[j].Price
	})
}

// locationQuery detects "where is <product>" questions.
func locationQuery(text string) (string, bool) {
	lower := strings.ToLower(text)
	if !strings.HasPrefix(lower, "where is") {
		return "", false
	}
	name := strings.Trim(strings.TrimSpace(text[len("where is"):]), " ?")
	if name == "" {
		return "", false
	}
	return name, true
}

func truncate(products []domain.Product) []domain.Product {
	if len(products) > maxReturned {
		return products[:maxReturned]
	}
	return products
}
