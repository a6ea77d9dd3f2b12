package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/cartwise/internal/domain"
)

// Transcribe converts uploaded audio to raw text. The three failure
// conditions are surfaced as distinct errors and never retried here:
// timeout, unintelligible audio, and provider failure.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", classifyTranscriptionError(err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", domain.ErrUnintelligibleAudio
	}
	return text, nil
}

func classifyTranscriptionError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTranscriptionTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 {
		return fmt.Errorf("%w: %s", domain.ErrUnintelligibleAudio, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 {
		return fmt.Errorf("%w: %s", domain.ErrUnintelligibleAudio, string(reqErr.Body))
	}

	return fmt.Errorf("%w: %w", domain.ErrTranscriptionService, err)
}
