// Package interaction appends one record per resolved query to a JSONL
// file. Write failures are logged and swallowed; logging never aborts a
// response.
package interaction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/domain"
)

// Sink is an append-only interaction log.
type Sink struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewSink creates a JSONL sink, creating the parent directory if needed.
func NewSink(path string, logger *zap.Logger) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}
	return &Sink{path: path, logger: logger}, nil
}

// Append writes one entry. Failure is logged locally, never returned to
// the pipeline.
func (s *Sink) Append(entry domain.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error("failed to encode interaction entry", zap.Error(err))
		return
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Error("failed to open interaction log", zap.String("path", s.path), zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		s.logger.Error("failed to append interaction entry", zap.Error(err))
	}
}
