package convo

import (
	"context"
	"time"

	"callcheck/internal/speech"
)

// --- scriptedTranscriber ---

// scriptedTranscriber replays a fixed sequence of listen outcomes. An entry
// with a non-nil err is returned as-is; otherwise the text is returned.
type scriptedTranscriber struct {
	script []listenResult
	calls  int
}

type listenResult struct {
	text string
	err  error
}

func (s *scriptedTranscriber) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	if s.calls >= len(s.script) {
		return "", speech.ErrListenTimeout
	}
	r := s.script[s.calls]
	s.calls++
	return r.text, r.err
}

// --- recordingSpeaker ---

// recordingSpeaker records everything spoken; Err, when set, is returned on
// every Say call to exercise the log-and-swallow path.
type recordingSpeaker struct {
	spoken []string
	Err    error
}

func (s *recordingSpeaker) Say(ctx context.Context, text string) error {
	s.spoken = append(s.spoken, text)
	return s.Err
}

// --- scriptedLLM ---

// scriptedLLM replays canned replies and captures the prompts it was given.
type scriptedLLM struct {
	replies []string
	err     error
	calls   int
	prompts []string
	systems []string
}

func (m *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *scriptedLLM) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	m.systems = append(m.systems, system)
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if m.calls >= len(m.replies) {
		return "Okay.", nil
	}
	r := m.replies[m.calls]
	m.calls++
	return r, nil
}

// --- lineRecorder ---

type lineRecorder struct {
	lines []string
}

func (r *lineRecorder) Record(line string) {
	r.lines = append(r.lines, line)
}
