package assistant

import (
	"context"

	"github.com/kailas-cloud/cartwise/internal/domain"
)

// QueryClassifier turns raw text into a structured query. Never fails.
type QueryClassifier interface {
	Classify(ctx context.Context, query string) domain.StructuredQuery
}

// ProductMatcher applies a structured query against the catalog.
type ProductMatcher interface {
	Match(q domain.StructuredQuery, catalog []domain.Product) []domain.Product
}

// ResponseComposer renders the final answer.
type ResponseComposer interface {
	Compose(ctx context.Context, q domain.StructuredQuery, products []domain.Product, prefs domain.Preferences) string
}

// CategoryResolver maps raw categories onto the catalog vocabulary.
type CategoryResolver interface {
	Normalize(raw string) string
}

// Locator answers "where is" lookups.
type Locator interface {
	Locate(productName string) string
}

// InteractionSink records resolved queries, append-only.
type InteractionSink interface {
	Append(entry domain.LogEntry)
}
