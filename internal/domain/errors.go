package domain

import "errors"

var (
	// ErrTranscriptionTimeout signals no speech arrived before the deadline.
	ErrTranscriptionTimeout = errors.New("transcription timeout")
	// ErrUnintelligibleAudio signals audio that could not be recognized.
	ErrUnintelligibleAudio = errors.New("unintelligible audio")
	// ErrTranscriptionService signals a transcription provider failure.
	ErrTranscriptionService = errors.New("transcription service error")

	// ErrClassificationDegraded signals the external classifier was unusable
	// and the local parser produced the structure. Recorded, never surfaced.
	ErrClassificationDegraded = errors.New("classification degraded")
	// ErrGenerationDegraded signals the external generator was unusable and
	// the template fallback produced the response. Recorded, never surfaced.
	ErrGenerationDegraded = errors.New("generation degraded")

	// ErrCatalogUnavailable signals the catalog provider could not supply products.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrSessionNotFound signals an unknown conversation ID.
	ErrSessionNotFound = errors.New("session not found")
)
