package assistant

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/domain"
	"github.com/kailas-cloud/cartwise/internal/session"
)

// --- mocks ---

type mockClassifier struct {
	queue []domain.StructuredQuery
	calls int
}

func (m *mockClassifier) Classify(ctx context.Context, query string) domain.StructuredQuery {
	m.calls++
	if len(m.queue) == 0 {
		return domain.NewStructuredQuery(domain.IntentSearch, "")
	}
	next := m.queue[0]
	if len(m.queue) > 1 {
		m.queue = m.queue[1:]
	}
	out := next.Clone()
	out.OriginalQuery = query
	return out
}

type mockMatcher struct {
	fn      func(q domain.StructuredQuery, catalog []domain.Product) []domain.Product
	calls   int
	queries []domain.StructuredQuery
}

func (m *mockMatcher) Match(q domain.StructuredQuery, catalog []domain.Product) []domain.Product {
	m.calls++
	m.queries = append(m.queries, q.Clone())
	if m.fn == nil {
		return nil
	}
	return m.fn(q, catalog)
}

type mockComposer struct {
	response string
	calls    int
	lastQ    domain.StructuredQuery
}

func (m *mockComposer) Compose(ctx context.Context, q domain.StructuredQuery, products []domain.Product, prefs domain.Preferences) string {
	m.calls++
	m.lastQ = q.Clone()
	return m.response
}

type passthroughResolver struct{ known map[string]struct{} }

func (r passthroughResolver) Normalize(raw string) string {
	if _, ok := r.known[raw]; ok {
		return raw
	}
	return ""
}

type mockLocator struct{ lastName string }

func (m *mockLocator) Locate(productName string) string {
	m.lastName = productName
	return "It is in Aisle 1."
}

type mockSink struct{ entries []domain.LogEntry }

func (m *mockSink) Append(entry domain.LogEntry) { m.entries = append(m.entries, entry) }

// --- fixture ---

func assistantCatalog() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Amul Gold Milk", Brand: "Amul", Price: 60, Category: "milk"},
		{ID: "p2", Name: "Nestle Slim Milk", Brand: "Nestle", Price: 55, Category: "milk"},
		{ID: "p3", Name: "Mother Dairy Toned Milk", Brand: "Mother Dairy", Price: 48, Category: "milk"},
		{ID: "p4", Name: "Heritage Cow Milk", Brand: "Heritage", Price: 52, Category: "milk"},
		{ID: "p5", Name: "Lays Classic Chips", Brand: "Lays", Price: 25, Category: "snacks"},
	}
}

type testEnv struct {
	svc        *Service
	classifier *mockClassifier
	matcher    *mockMatcher
	composer   *mockComposer
	locator    *mockLocator
	sink       *mockSink
	sessions   *session.Manager
}

func newTestEnv(t *testing.T, maxRetries int) *testEnv {
	t.Helper()
	env := &testEnv{
		classifier: &mockClassifier{},
		matcher:    &mockMatcher{},
		composer:   &mockComposer{response: "Here you go."},
		locator:    &mockLocator{},
		sink:       &mockSink{},
		sessions:   session.NewManager(),
	}
	resolver := passthroughResolver{known: map[string]struct{}{"milk": {}, "snacks": {}}}
	env.svc = New(
		env.classifier, env.matcher, env.composer, resolver, env.locator,
		env.sink, env.sessions, assistantCatalog(), maxRetries, zap.NewNop(),
	)
	return env
}

func milkQuery(price any) domain.StructuredQuery {
	q := domain.NewStructuredQuery(domain.IntentSearch, "milk")
	if price != nil {
		q.Filters["price"] = price
	}
	return q
}

// --- ProcessQuery tests ---

func TestProcessQuery_EmptyQueryClarifies(t *testing.T) {
	env := newTestEnv(t, 2)
	res := env.svc.ProcessQuery(context.Background(), "", "   ")
	if res.Response != msgEmptyQuery {
		t.Errorf("response = %q, want clarification", res.Response)
	}
	if res.SessionID == "" {
		t.Error("session ID must be assigned even for empty queries")
	}
	if env.classifier.calls != 0 || env.matcher.calls != 0 || env.composer.calls != 0 {
		t.Error("empty query must not reach the pipeline")
	}
}

func TestProcessQuery_NonsenseClarifies(t *testing.T) {
	env := newTestEnv(t, 2)
	for _, q := range []string{"???", "!!!", "x"} {
		res := env.svc.ProcessQuery(context.Background(), "s1", q)
		if res.Response != msgNonsense {
			t.Errorf("ProcessQuery(%q) = %q, want nonsense clarification", q, res.Response)
		}
	}
	if env.classifier.calls != 0 {
		t.Error("nonsense queries must not reach the classifier")
	}
}

func TestProcessQuery_LocationQuestion(t *testing.T) {
	env := newTestEnv(t, 2)
	res := env.svc.ProcessQuery(context.Background(), "s1", "Where is Amul Gold Milk?")
	if res.Response != "It is in Aisle 1." {
		t.Errorf("response = %q", res.Response)
	}
	if env.locator.lastName != "Amul Gold Milk" {
		t.Errorf("locator got %q, want trimmed product name", env.locator.lastName)
	}
	if env.classifier.calls != 0 {
		t.Error("location questions must bypass classification")
	}
}

func TestProcessQuery_ExactProductAvailability(t *testing.T) {
	env := newTestEnv(t, 2)
	res := env.svc.ProcessQuery(context.Background(), "s1", "is Amul Gold Milk available")

	if res.Response != "Yes, Amul Gold Milk is available! Price: 60.00." {
		t.Errorf("response = %q", res.Response)
	}
	if env.classifier.calls != 0 {
		t.Error("exact product hit must bypass classification")
	}
	if len(res.Products) != maxReturned {
		t.Fatalf("got %d products, want %d", len(res.Products), maxReturned)
	}
	if res.Products[0].ID != "p1" {
		t.Errorf("first product = %s, want the named one", res.Products[0].ID)
	}
	// suggestions are same-category, cheapest first
	if res.Products[1].ID != "p3" || res.Products[2].ID != "p4" {
		t.Errorf("suggestions = %s, %s, want p3, p4", res.Products[1].ID, res.Products[2].ID)
	}
	sess := env.sessions.Acquire("s1")
	if sess.LastCategory() != "milk" {
		t.Errorf("session category = %q, want milk", sess.LastCategory())
	}
	if len(env.sink.entries) != 1 {
		t.Errorf("sink entries = %d, want 1", len(env.sink.entries))
	}
}

func TestProcessQuery_PipelineHappyPath(t *testing.T) {
	env := newTestEnv(t, 2)
	env.classifier.queue = []domain.StructuredQuery{milkQuery(60.0)}
	env.matcher.fn = func(q domain.StructuredQuery, catalog []domain.Product) []domain.Product {
		return catalog[:4]
	}

	res := env.svc.ProcessQuery(context.Background(), "s1", "milk under 60")

	if res.Response != "Here you go." {
		t.Errorf("response = %q, want composer output", res.Response)
	}
	if len(res.Products) != maxReturned {
		t.Errorf("got %d products, want truncation to %d", len(res.Products), maxReturned)
	}
	if env.classifier.calls != 1 || env.matcher.calls != 1 || env.composer.calls != 1 {
		t.Errorf("calls classifier/matcher/composer = %d/%d/%d, want 1/1/1",
			env.classifier.calls, env.matcher.calls, env.composer.calls)
	}
	if len(env.sink.entries) != 1 {
		t.Fatalf("sink entries = %d, want 1", len(env.sink.entries))
	}
	if env.sink.entries[0].Query != "milk under 60" {
		t.Errorf("logged query = %q", env.sink.entries[0].Query)
	}
	sess := env.sessions.Acquire("s1")
	if sess.LastCategory() != "milk" {
		t.Errorf("session category = %q, want milk", sess.LastCategory())
	}
	if sess.Preferences.PriceRange != 60.0 {
		t.Errorf("price preference = %v, want 60", sess.Preferences.PriceRange)
	}
}

func TestProcessQuery_UnresolvedCategoryClarifies(t *testing.T) {
	env := newTestEnv(t, 2)
	env.classifier.queue = []domain.StructuredQuery{domain.NewStructuredQuery(domain.IntentSearch, "spaceships")}

	res := env.svc.ProcessQuery(context.Background(), "s1", "show me spaceships")
	if res.Response != msgNoCategory {
		t.Errorf("response = %q, want category clarification", res.Response)
	}
	if env.matcher.calls != 0 {
		t.Error("unresolved category must not reach matching")
	}
}

func TestProcessQuery_PriceOnlyInheritsLastCategory(t *testing.T) {
	env := newTestEnv(t, 2)
	vague := domain.NewStructuredQuery(domain.IntentSearch, "general")
	vague.Filters["price"] = 50.0
	env.classifier.queue = []domain.StructuredQuery{milkQuery(nil), vague}
	env.matcher.fn = func(q domain.StructuredQuery, catalog []domain.Product) []domain.Product {
		return catalog[:1]
	}

	env.svc.ProcessQuery(context.Background(), "s1", "show me milk")
	env.svc.ProcessQuery(context.Background(), "s1", "under 50")

	if len(env.matcher.queries) != 2 {
		t.Fatalf("matcher saw %d queries, want 2", len(env.matcher.queries))
	}
	second := env.matcher.queries[1]
	if second.Category != "milk" {
		t.Errorf("inherited category = %q, want milk", second.Category)
	}
	if second.Filters["price"] != 50.0 {
		t.Errorf("price = %v, want 50", second.Filters["price"])
	}
}

func TestProcessQuery_RetriesBoundedOnPanic(t *testing.T) {
	env := newTestEnv(t, 1)
	env.classifier.queue = []domain.StructuredQuery{milkQuery(nil)}
	env.matcher.fn = func(q domain.StructuredQuery, catalog []domain.Product) []domain.Product {
		panic("catalog corrupted")
	}

	res := env.svc.ProcessQuery(context.Background(), "s1", "show me milk")
	if res.Response != msgTryLater {
		t.Errorf("response = %q, want degraded answer", res.Response)
	}
	if env.matcher.calls != 2 {
		t.Errorf("matcher called %d times, want 2 (initial + one retry)", env.matcher.calls)
	}
}

func TestProcessQuery_RecoverOnSecondAttempt(t *testing.T) {
	env := newTestEnv(t, 2)
	env.classifier.queue = []domain.StructuredQuery{milkQuery(nil)}
	attempts := 0
	env.matcher.fn = func(q domain.StructuredQuery, catalog []domain.Product) []domain.Product {
		attempts++
		if attempts == 1 {
			panic("transient")
		}
		return catalog[:1]
	}

	res := env.svc.ProcessQuery(context.Background(), "s1", "show me milk")
	if res.Response != "Here you go." {
		t.Errorf("response = %q, want composed answer after retry", res.Response)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestProcessQuery_RelaxesPriceOnEmptyMatch(t *testing.T) {
	env := newTestEnv(t, 2)
	env.classifier.queue = []domain.StructuredQuery{milkQuery(5.0)}
	env.matcher.fn = func(q domain.StructuredQuery, catalog []domain.Product) []domain.Product {
		if _, hasPrice := q.Filters["price"]; hasPrice {
			return nil
		}
		return catalog[:2]
	}

	res := env.svc.ProcessQuery(context.Background(), "s1", "milk under 5")
	if len(res.Products) != 2 {
		t.Errorf("got %d products, want 2 from the relaxed pass", len(res.Products))
	}
	if env.matcher.calls != 2 {
		t.Errorf("matcher called %d times, want 2 (strict + relaxed)", env.matcher.calls)
	}
	last := env.matcher.queries[len(env.matcher.queries)-1]
	if _, hasPrice := last.Filters["price"]; hasPrice {
		t.Error("relaxed pass must drop the price filter")
	}
}

func TestProcessQuery_NoRelaxWithoutPriceFilter(t *testing.T) {
	env := newTestEnv(t, 2)
	env.classifier.queue = []domain.StructuredQuery{milkQuery(nil)}

	env.svc.ProcessQuery(context.Background(), "s1", "show me milk")
	if env.matcher.calls != 1 {
		t.Errorf("matcher called %d times, want 1 (no price to relax)", env.matcher.calls)
	}
}

func TestLocationQuery_Parsing(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"where is milk?", "milk", true},
		{"Where is Amul Gold Milk", "Amul Gold Milk", true},
		{"where is   ", "", false},
		{"show me milk", "", false},
	}
	for _, tt := range tests {
		got, ok := locationQuery(tt.text)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("locationQuery(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestProcessQuery_SessionIDPreserved(t *testing.T) {
	env := newTestEnv(t, 2)
	env.classifier.queue = []domain.StructuredQuery{milkQuery(nil)}
	res := env.svc.ProcessQuery(context.Background(), "conv-42", "show me milk")
	if res.SessionID != "conv-42" {
		t.Errorf("session ID = %q, want conv-42", res.SessionID)
	}
	if !strings.HasPrefix(res.SessionID, "conv-") {
		t.Errorf("session ID mangled: %q", res.SessionID)
	}
}
