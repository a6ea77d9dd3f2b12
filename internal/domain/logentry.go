package domain

import "time"

// LogEntry is one append-only interaction record. Write-once, produced by
// the pipeline and owned by the logging sink; the core never reads it back.
type LogEntry struct {
	Timestamp       time.Time       `json:"timestamp"`
	SessionID       string          `json:"session_id"`
	Query           string          `json:"query"`
	Parsed          StructuredQuery `json:"parsed_query"`
	ProductsMatched int             `json:"products_matched"`
	ResponsePreview string          `json:"response_preview"`
}

// NewLogEntry builds an entry, truncating the response preview to 100 runes.
func NewLogEntry(sessionID, query string, parsed StructuredQuery, matched int, response string) LogEntry {
	preview := response
	if runes := []rune(response); len(runes) > 100 {
		preview = string(runes[:100]) + "..."
	}
	return LogEntry{
		Timestamp:       time.Now().UTC(),
		SessionID:       sessionID,
		Query:           query,
		Parsed:          parsed,
		ProductsMatched: matched,
		ResponsePreview: preview,
	}
}
