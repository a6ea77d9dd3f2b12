// Package chi exposes the HTTP API: the chat query surface, voice
// transcription, and health.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/domain"
	"github.com/kailas-cloud/cartwise/internal/usecase/assistant"
	healthuc "github.com/kailas-cloud/cartwise/internal/usecase/health"
)

// maxAudioBytes bounds voice uploads.
const maxAudioBytes = 25 << 20

// Transcriber converts uploaded audio to raw text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Server handles the HTTP routes.
type Server struct {
	assistant   *assistant.Service
	health      *healthuc.Service
	transcriber Transcriber
	logger      *zap.Logger
}

// NewServer creates the HTTP API server. transcriber may be nil to
// disable the voice surface.
func NewServer(
	assistantSvc *assistant.Service,
	healthSvc *healthuc.Service,
	transcriber Transcriber,
	logger *zap.Logger,
) *Server {
	return &Server{
		assistant:   assistantSvc,
		health:      healthSvc,
		transcriber: transcriber,
		logger:      logger,
	}
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Query     string `json:"query"`
}

type chatResponse struct {
	SessionID string           `json:"session_id"`
	Response  string           `json:"response"`
	Products  []domain.Product `json:"products"`
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	result := s.assistant.ProcessQuery(r.Context(), req.SessionID, req.Query)
	writeJSON(w, http.StatusOK, toChatResponse(result))
}

// Voice handles POST /api/voice: a multipart "audio" file is transcribed
// and the text runs through the same pipeline. The three transcription
// failure modes map to distinct error codes.
func (s *Server) Voice(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		writeError(w, http.StatusNotImplemented, "voice_disabled", "Voice input is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Missing audio file: "+err.Error())
		return
	}
	defer file.Close()

	text, err := s.transcriber.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		s.writeTranscriptionError(w, err)
		return
	}

	sessionID := r.FormValue("session_id")
	result := s.assistant.ProcessQuery(r.Context(), sessionID, text)
	writeJSON(w, http.StatusOK, toChatResponse(result))
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	st := s.health.Check(r.Context())
	status := http.StatusOK
	if !st.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}

func (s *Server) writeTranscriptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTranscriptionTimeout):
		writeError(w, http.StatusGatewayTimeout, "transcription_timeout", "No speech detected before the deadline")
	case errors.Is(err, domain.ErrUnintelligibleAudio):
		writeError(w, http.StatusUnprocessableEntity, "unintelligible_audio", "Sorry, the audio could not be understood")
	default:
		writeError(w, http.StatusBadGateway, "transcription_error", "Speech service failed")
	}
	s.logger.Warn("transcription failed", zap.Error(err))
}

func toChatResponse(r assistant.Result) chatResponse {
	products := r.Products
	if products == nil {
		products = []domain.Product{}
	}
	return chatResponse{SessionID: r.SessionID, Response: r.Response, Products: products}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
