package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/domain"
	"github.com/kailas-cloud/cartwise/internal/session"
	"github.com/kailas-cloud/cartwise/internal/usecase/assistant"
	healthuc "github.com/kailas-cloud/cartwise/internal/usecase/health"
)

// --- pipeline stubs ---

type fixedClassifier struct{}

func (fixedClassifier) Classify(ctx context.Context, query string) domain.StructuredQuery {
	q := domain.NewStructuredQuery(domain.IntentSearch, "milk")
	q.OriginalQuery = query
	return q
}

type fixedMatcher struct{}

func (fixedMatcher) Match(q domain.StructuredQuery, catalog []domain.Product) []domain.Product {
	return catalog
}

type fixedComposer struct{}

func (fixedComposer) Compose(ctx context.Context, q domain.StructuredQuery, products []domain.Product, prefs domain.Preferences) string {
	return "Found some milk for you."
}

type identityResolver struct{}

func (identityResolver) Normalize(raw string) string { return raw }

type noopLocator struct{}

func (noopLocator) Locate(productName string) string { return "Aisle 1." }

type noopSink struct{}

func (noopSink) Append(entry domain.LogEntry) {}

type stubTranscriber struct {
	text string
	err  error
}

func (s stubTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	return s.text, s.err
}

func testServer(t *testing.T, catalogSize int, tr Transcriber) *Server {
	t.Helper()
	catalog := []domain.Product{
		{ID: "p1", Name: "Amul Gold Milk", Brand: "Amul", Price: 60, Category: "milk"},
	}
	svc := assistant.New(
		fixedClassifier{}, fixedMatcher{}, fixedComposer{}, identityResolver{},
		noopLocator{}, noopSink{}, session.NewManager(), catalog, 1, zap.NewNop(),
	)
	health := healthuc.New(catalogSize, nil)
	return NewServer(svc, health, tr, zap.NewNop())
}

// --- Chat tests ---

func TestChat(t *testing.T) {
	srv := testServer(t, 1, nil)

	body := `{"session_id":"s1","query":"show me milk"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "s1" {
		t.Errorf("session_id = %q, want s1", resp.SessionID)
	}
	if resp.Response != "Found some milk for you." {
		t.Errorf("response = %q", resp.Response)
	}
	if len(resp.Products) != 1 {
		t.Errorf("got %d products, want 1", len(resp.Products))
	}
}

func TestChat_InvalidBody(t *testing.T) {
	srv := testServer(t, 1, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Chat(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != "bad_request" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestChat_EmptyQueryStillOK(t *testing.T) {
	srv := testServer(t, 1, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"query":""}`))
	rec := httptest.NewRecorder()
	srv.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (clarification, not error)", rec.Code)
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("a session must be assigned")
	}
	if resp.Products == nil {
		t.Error("products must encode as [], not null")
	}
}

// --- Voice tests ---

func voiceRequest(t *testing.T, sessionID string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "query.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("fake-audio-bytes")); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	if sessionID != "" {
		if err := mw.WriteField("session_id", sessionID); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/voice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestVoice(t *testing.T) {
	srv := testServer(t, 1, stubTranscriber{text: "show me milk"})
	rec := httptest.NewRecorder()
	srv.Voice(rec, voiceRequest(t, "s1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "Found some milk for you." {
		t.Errorf("response = %q", resp.Response)
	}
}

func TestVoice_TranscriptionErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"timeout", domain.ErrTranscriptionTimeout, http.StatusGatewayTimeout, "transcription_timeout"},
		{"unintelligible", domain.ErrUnintelligibleAudio, http.StatusUnprocessableEntity, "unintelligible_audio"},
		{"service failure", domain.ErrTranscriptionService, http.StatusBadGateway, "transcription_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, 1, stubTranscriber{err: tt.err})
			rec := httptest.NewRecorder()
			srv.Voice(rec, voiceRequest(t, ""))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestVoice_Disabled(t *testing.T) {
	srv := testServer(t, 1, nil)
	rec := httptest.NewRecorder()
	srv.Voice(rec, voiceRequest(t, ""))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestVoice_MissingAudio(t *testing.T) {
	srv := testServer(t, 1, stubTranscriber{text: "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/voice", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=none")
	rec := httptest.NewRecorder()
	srv.Voice(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// --- Health tests ---

func TestHealth(t *testing.T) {
	tests := []struct {
		name        string
		catalogSize int
		wantStatus  int
	}{
		{"healthy", 5, http.StatusOK},
		{"empty catalog", 0, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, tt.catalogSize, nil)
			rec := httptest.NewRecorder()
			srv.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
