// Package speech wraps the upstream text-to-speech endpoint.
package speech

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/vidiria/verilo-ai/internal/provider"
)

// ErrEmptyText is returned when there is nothing to synthesize.
var ErrEmptyText = errors.New("text is required")

// Synthesizer converts text to an mp3 audio stream. The stream is handed to
// the caller unbuffered; closing it is the caller's responsibility.
type Synthesizer struct {
	client       *openai.Client
	defaultVoice string
}

// NewSynthesizer creates a speech synthesizer.
func NewSynthesizer(apiKey, defaultVoice string) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return &Synthesizer{client: openai.NewClient(apiKey), defaultVoice: defaultVoice}, nil
}

// NewSynthesizerWithConfig creates a synthesizer against a custom endpoint,
// used by tests.
func NewSynthesizerWithConfig(cfg openai.ClientConfig, defaultVoice string) *Synthesizer {
	return &Synthesizer{client: openai.NewClientWithConfig(cfg), defaultVoice: defaultVoice}
}

// Synthesize requests mp3 audio for text with the given voice.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if voice == "" {
		voice = s.defaultVoice
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &provider.UpstreamError{Status: apiErr.HTTPStatusCode, Detail: apiErr.Message}
		}
		return nil, err
	}

	return resp, nil
}
