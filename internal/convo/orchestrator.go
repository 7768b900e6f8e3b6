package convo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"callcheck/internal/llm"
	"callcheck/internal/speech"
)

// Agent phrasings that mean the order is done and the call is wrapping up.
// "cvv" is intentionally NOT in this list: the agent may ask for the CVV
// mid-call, and the persona must answer it before the session can end.
var orderCompletePhrases = []string{
	"transfer", "payment",
	"thank you for your order",
	"order has been placed", "has been placed",
	"placed successfully", "order is confirmed",
	"order confirmed", "successfully placed",
}

// Persona phrasings that close the conversation from our side.
var personaEndPhrases = []string{"goodbye", "thanks, bye"}

// closingAck is what the persona says when the agent hands off to payment.
const closingAck = "Thank you."

// fallbackUtterance is spoken when generation fails; the conversation
// continues rather than aborting on a single model error.
const fallbackUtterance = "Sorry, could you say that again?"

// Recorder receives each utterance as it is produced, in order. Used to
// stream the transcript log to disk while the conversation runs.
type Recorder interface {
	Record(line string)
}

// Options bound a conversation.
type Options struct {
	// MaxTurns bounds the agent/persona loop.
	MaxTurns int
	// MaxListenRetries bounds in-place retries on unintelligible audio and
	// transcription-service outages.
	MaxListenRetries int
	// ListenTimeout bounds the wait for agent speech each turn.
	ListenTimeout time.Duration
	// PhraseTimeLimit bounds a single captured phrase.
	PhraseTimeLimit time.Duration
}

// Orchestrator runs the turn-taking conversation between the live agent and
// the scripted persona. Single-threaded by design: listen, transcribe,
// generate, and speak run strictly sequentially, and the transcript and
// constraint sets are owned by this instance for the conversation's
// lifetime.
type Orchestrator struct {
	transcriber speech.Transcriber
	speaker     speech.Speaker
	client      llm.Client
	tracker     *ConstraintTracker
	composer    *Composer

	persona  string // system prompt for the persona
	opts     Options
	recorder Recorder
	logger   *zap.Logger
}

// NewOrchestrator wires a conversation. persona is the persona system
// prompt; personaName is how the persona appears in transcript lines.
func NewOrchestrator(
	transcriber speech.Transcriber,
	speaker speech.Speaker,
	client llm.Client,
	persona, personaName string,
	opts Options,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 40
	}
	if opts.MaxListenRetries <= 0 {
		opts.MaxListenRetries = 5
	}
	if opts.ListenTimeout <= 0 {
		opts.ListenTimeout = 45 * time.Second
	}
	if opts.PhraseTimeLimit <= 0 {
		opts.PhraseTimeLimit = 30 * time.Second
	}
	return &Orchestrator{
		transcriber: transcriber,
		speaker:     speaker,
		client:      client,
		tracker:     NewConstraintTracker(nil, logger),
		composer:    NewComposer(personaName),
		persona:     persona,
		opts:        opts,
		logger:      logger,
	}
}

// SetRecorder attaches a transcript line sink.
func (o *Orchestrator) SetRecorder(r Recorder) {
	o.recorder = r
}

// SetClassifier replaces the default phrase-trigger classifier.
func (o *Orchestrator) SetClassifier(c Classifier) {
	o.tracker = NewConstraintTracker(c, o.logger)
}

// Run drives the conversation until a terminal state. The transcript
// accumulated so far is always returned, even on error or interruption, so
// verification can proceed on partial data.
func (o *Orchestrator) Run(ctx context.Context) (*Transcript, TerminalState, error) {
	transcript := NewTranscript(o.composer.PersonaName)

	for turn := 1; turn <= o.opts.MaxTurns; turn++ {
		// Cancellation is cooperative: checked once per turn boundary,
		// never mid-step.
		if ctx.Err() != nil {
			return transcript, Interrupted, nil
		}

		o.logger.Info("turn start", zap.Int("turn", turn))

		agentText, state, err := o.listen(ctx)
		if err != nil {
			return transcript, Errored, err
		}
		if state != "" {
			return transcript, state, nil
		}

		o.append(transcript, Utterance{Role: RoleAgent, Text: agentText, Turn: turn})
		o.logger.Info("agent said", zap.Int("turn", turn), zap.String("text", agentText))

		agentLower := strings.ToLower(agentText)

		// Agent closed the session outright.
		if strings.Contains(agentLower, "exit") || strings.Contains(agentLower, "goodbye") {
			o.logger.Info("agent ended the session")
			return transcript, EndedByAgent, nil
		}

		// Agent confirmed the order / handed off to payment: speak the
		// fixed acknowledgment and end.
		if containsAny(agentLower, orderCompletePhrases) {
			o.logger.Info("agent completed the order")
			o.say(ctx, closingAck)
			o.append(transcript, Utterance{Role: RolePersona, Text: closingAck, Turn: turn})
			return transcript, EndedByAgent, nil
		}

		// Constraints must be observed before this turn's reply is
		// generated, so they are never stale by more than one turn.
		o.tracker.ObserveAgentUtterance(agentText)

		reply := o.generate(ctx, transcript)
		o.say(ctx, reply)
		o.append(transcript, Utterance{Role: RolePersona, Text: reply, Turn: turn})
		o.tracker.ObservePersonaUtterance()
		o.logger.Info("persona said", zap.Int("turn", turn), zap.String("text", reply))

		replyLower := strings.ToLower(reply)

		// CVV provided: proof the order is complete, no need to wait for
		// the agent's next turn.
		if strings.Contains(replyLower, "cvv") {
			o.logger.Info("persona provided CVV; order complete")
			return transcript, EndedByPersona, nil
		}
		if containsAny(replyLower, personaEndPhrases) {
			o.logger.Info("persona ended the conversation")
			return transcript, EndedByPersona, nil
		}
	}

	o.logger.Warn("turn budget exhausted", zap.Int("max_turns", o.opts.MaxTurns))
	return transcript, TimedOut, nil
}

// listen waits for agent speech, retrying unintelligible audio and
// transcription-service outages in place up to the configured bound. Returns
// a non-empty TerminalState when listening ended the conversation.
func (o *Orchestrator) listen(ctx context.Context) (string, TerminalState, error) {
	for attempt := 0; ; attempt++ {
		text, err := o.transcriber.Listen(ctx, o.opts.ListenTimeout, o.opts.PhraseTimeLimit)
		switch {
		case err == nil:
			return text, "", nil
		case errors.Is(err, speech.ErrUnintelligible):
			o.record("[Audio not understood]")
			if attempt >= o.opts.MaxListenRetries {
				o.logger.Warn("giving up on unintelligible audio",
					zap.Int("retries", attempt))
				return "", TimedOut, nil
			}
			o.logger.Debug("audio not understood, listening again",
				zap.Int("attempt", attempt+1))
		case errors.Is(err, speech.ErrServiceUnavailable):
			// The utterance is lost but the service may come back; keep
			// listening rather than abandoning the call.
			o.record(fmt.Sprintf("[Request Error: %v]", err))
			if attempt >= o.opts.MaxListenRetries {
				o.logger.Warn("transcription service still unavailable, giving up",
					zap.Int("retries", attempt))
				return "", TimedOut, nil
			}
			o.logger.Warn("transcription request failed, listening again",
				zap.Error(err), zap.Int("attempt", attempt+1))
		case errors.Is(err, speech.ErrListenTimeout):
			o.logger.Warn("no speech detected within listen timeout")
			return "", TimedOut, nil
		case errors.Is(err, context.Canceled) || ctx.Err() != nil:
			return "", Interrupted, nil
		default:
			return "", "", err
		}
	}
}

// generate asks the model for the persona's next utterance. A failed or
// empty generation degrades to a fixed fallback line; a single model error
// never aborts the conversation.
func (o *Orchestrator) generate(ctx context.Context, transcript *Transcript) string {
	prompt := o.composer.Compose(o.tracker.Snapshot(), transcript)

	reply, err := o.client.CompleteWithSystem(ctx, o.persona, prompt)
	if err != nil {
		o.logger.Warn("generation failed, using fallback", zap.Error(err))
		return fallbackUtterance
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return fallbackUtterance
	}
	return reply
}

// say voices text. Speaker failures are logged and swallowed: a playback
// error must not kill the conversation.
func (o *Orchestrator) say(ctx context.Context, text string) {
	if err := o.speaker.Say(ctx, text); err != nil {
		o.logger.Warn("speaker failed", zap.Error(err))
	}
}

func (o *Orchestrator) append(t *Transcript, u Utterance) {
	t.Append(u)
	o.record(t.Line(u))
}

func (o *Orchestrator) record(line string) {
	if o.recorder != nil {
		o.recorder.Record(line)
	}
}
