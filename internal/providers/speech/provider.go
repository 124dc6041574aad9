// Package speech wraps the synthesis and transcription endpoints behind
// the voice features of the widget.
package speech

import (
	"context"
	"errors"
	"io"
)

type SynthesisRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type Transcription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type Provider interface {
	// Synthesize returns an MP3 stream for the given text. The caller owns
	// the reader and must close it.
	Synthesize(ctx context.Context, req SynthesisRequest) (io.ReadCloser, error)
	Transcribe(ctx context.Context, audio io.Reader, filename string) (*Transcription, error)
}

var (
	ErrMissingText   = errors.New("missing_text")
	ErrMissingAudio  = errors.New("missing_audio")
	ErrMissingAPIKey = errors.New("missing_api_key")
)
