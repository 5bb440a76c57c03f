// Package speech converts between audio and pt-BR text.
package speech

import (
	"context"
	"errors"
)

// ErrNoSpeech means the audio held nothing that could be transcribed.
var ErrNoSpeech = errors.New("speech: nothing recognized")

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Synthesizer renders text as audio. An empty voice selects the
// implementation's default.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}
