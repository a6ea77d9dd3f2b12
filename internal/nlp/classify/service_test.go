package classify

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/domain"
)

// --- Service tests ---

type stubClassifier struct {
	response string
	err      error
	calls    int
}

func (s *stubClassifier) Classify(ctx context.Context, query string) (string, error) {
	s.calls++
	return s.response, s.err
}

func newTestService(t *testing.T, llm Classifier) *Service {
	t.Helper()
	return New(llm, localParseCatalog(), zap.NewNop())
}

func TestClassify_ExternalSuccess(t *testing.T) {
	llm := &stubClassifier{response: `{"intent":"recommend","category":"snacks","filters":{"price":30}}`}
	svc := newTestService(t, llm)

	parsed := svc.Classify(context.Background(), "recommend snacks under 30")
	if parsed.Intent != domain.IntentRecommend {
		t.Errorf("intent = %q, want recommend", parsed.Intent)
	}
	if parsed.Category != "snacks" {
		t.Errorf("category = %q, want snacks", parsed.Category)
	}
	if parsed.Filters["price"] != 30.0 {
		t.Errorf("price = %v, want 30", parsed.Filters["price"])
	}
	if parsed.OriginalQuery != "recommend snacks under 30" {
		t.Errorf("original query = %q", parsed.OriginalQuery)
	}
}

func TestClassify_ExternalErrorFallsBackLocal(t *testing.T) {
	llm := &stubClassifier{err: errors.New("connection refused")}
	svc := newTestService(t, llm)

	parsed := svc.Classify(context.Background(), "chips under 30")
	if parsed.Category != "snacks" {
		t.Errorf("category = %q, want snacks via local parse", parsed.Category)
	}
	if parsed.Filters["price"] != 30.0 {
		t.Errorf("price = %v, want 30 via local parse", parsed.Filters["price"])
	}
}

func TestClassify_UnparsableCompletionFallsBackLocal(t *testing.T) {
	llm := &stubClassifier{response: "I'm sorry, I cannot help with that."}
	svc := newTestService(t, llm)

	parsed := svc.Classify(context.Background(), "milk under 60")
	if parsed.Category != "milk" {
		t.Errorf("category = %q, want milk via local parse", parsed.Category)
	}
}

func TestClassify_CompareKeywordOverridesExternal(t *testing.T) {
	llm := &stubClassifier{response: `{"intent":"search","category":"smartphone"}`}
	svc := newTestService(t, llm)

	queries := []string{
		"compare galaxy and iphone",
		"galaxy vs iphone",
		"difference between galaxy and iphone",
	}
	for _, q := range queries {
		parsed := svc.Classify(context.Background(), q)
		if parsed.Intent != domain.IntentCompare {
			t.Errorf("Classify(%q) intent = %q, want compare", q, parsed.Intent)
		}
	}
}

func TestClassify_NutritionKeywordForcesFocus(t *testing.T) {
	llm := &stubClassifier{response: `{"intent":"search","category":"milk","filters":{}}`}
	svc := newTestService(t, llm)

	parsed := svc.Classify(context.Background(), "healthy milk options")
	if parsed.Filters["nutrition_focus"] != true {
		t.Errorf("nutrition_focus missing: %#v", parsed.Filters)
	}
}

func TestClassify_EmptyIntentDefaultsToSearch(t *testing.T) {
	llm := &stubClassifier{response: `{"category":"snacks"}`}
	svc := newTestService(t, llm)

	parsed := svc.Classify(context.Background(), "snacks")
	if parsed.Intent != domain.IntentSearch {
		t.Errorf("intent = %q, want search default", parsed.Intent)
	}
}

func TestClassify_WrongShapeFiltersDropped(t *testing.T) {
	llm := &stubClassifier{response: `{"intent":"search","category":"snacks","filters":["price"]}`}
	svc := newTestService(t, llm)

	parsed := svc.Classify(context.Background(), "snacks")
	if len(parsed.Filters) != 0 {
		t.Errorf("filters = %#v, want empty after coercion", parsed.Filters)
	}
}

func TestClassify_DisallowedFilterKeysStripped(t *testing.T) {
	llm := &stubClassifier{response: `{"intent":"search","category":"snacks","filters":{"price":30,"color":"red"}}`}
	svc := newTestService(t, llm)

	parsed := svc.Classify(context.Background(), "snacks under 30")
	if _, ok := parsed.Filters["color"]; ok {
		t.Errorf("disallowed key survived: %#v", parsed.Filters)
	}
	if parsed.Filters["price"] != 30.0 {
		t.Errorf("price = %v, want 30", parsed.Filters["price"])
	}
}
