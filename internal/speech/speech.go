// Package speech defines the audio collaborators of the conversation loop:
// a Transcriber that turns agent speech into text and a Speaker that voices
// the persona's replies.
package speech

import (
	"context"
	"errors"
	"time"
)

// ErrUnintelligible is returned when audio was captured but could not be
// transcribed. The caller retries the same listening state.
var ErrUnintelligible = errors.New("speech: audio not understood")

// ErrListenTimeout is returned when no speech was detected within the listen
// timeout. Terminal for the turn.
var ErrListenTimeout = errors.New("speech: no speech detected")

// ErrServiceUnavailable is returned when the transcription service could not
// be reached or answered with an error. The audio is lost but the service
// may recover, so the caller retries the same listening state.
var ErrServiceUnavailable = errors.New("speech: transcription service unavailable")

// Transcriber captures one utterance of agent speech and returns its text.
//
// timeout bounds the wait for speech to start; phraseLimit bounds the length
// of the captured phrase. Returns ErrUnintelligible, ErrServiceUnavailable,
// or ErrListenTimeout for the recoverable/terminal outcomes; any other error
// is unexpected.
type Transcriber interface {
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error)
}

// Speaker voices text, blocking until playback completes. Failures are
// reported but the conversation proceeds without the utterance being heard.
type Speaker interface {
	Say(ctx context.Context, text string) error
}
