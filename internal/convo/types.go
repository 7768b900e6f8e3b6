// Package convo implements the conversation side of callcheck: constraint
// tracking over agent speech, prompt composition for the persona, and the
// turn-taking orchestrator that runs a voice conversation to completion.
package convo

import (
	"fmt"
	"strings"
)

// Role identifies who produced an utterance.
type Role string

const (
	RoleAgent   Role = "Agent"
	RolePersona Role = "Persona"
	RoleSystem  Role = "System"
)

// Utterance is one recorded line of the conversation. Immutable once
// appended to a transcript.
type Utterance struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
	Turn int    `json:"turn"`
}

// Transcript is the ordered record of a conversation. Owned exclusively by
// the orchestrator while the conversation runs.
type Transcript struct {
	utterances []Utterance

	// personaName is how the persona role renders in transcript lines.
	personaName string
}

// NewTranscript creates an empty transcript. personaName defaults to
// "Persona" when empty.
func NewTranscript(personaName string) *Transcript {
	if personaName == "" {
		personaName = string(RolePersona)
	}
	return &Transcript{personaName: personaName}
}

// Append records an utterance.
func (t *Transcript) Append(u Utterance) {
	t.utterances = append(t.utterances, u)
}

// Utterances returns the recorded utterances in order.
func (t *Transcript) Utterances() []Utterance {
	return t.utterances
}

// Len returns the number of recorded utterances.
func (t *Transcript) Len() int {
	return len(t.utterances)
}

// Line renders one utterance as a "Speaker: text" transcript line.
func (t *Transcript) Line(u Utterance) string {
	name := string(u.Role)
	if u.Role == RolePersona {
		name = t.personaName
	}
	return fmt.Sprintf("%s: %s", name, u.Text)
}

// String renders the full transcript, one line per utterance.
func (t *Transcript) String() string {
	lines := make([]string, 0, len(t.utterances))
	for _, u := range t.utterances {
		lines = append(lines, t.Line(u))
	}
	return strings.Join(lines, "\n")
}

// TerminalState says how a conversation ended.
type TerminalState string

const (
	// EndedByAgent: the agent closed the session or confirmed the order.
	EndedByAgent TerminalState = "ended_by_agent"
	// EndedByPersona: the persona said goodbye or provided the CVV.
	EndedByPersona TerminalState = "ended_by_persona"
	// TimedOut: no usable agent speech within the listen policy, or the
	// turn budget ran out.
	TimedOut TerminalState = "timed_out"
	// Interrupted: external cancellation honored at a turn boundary.
	Interrupted TerminalState = "interrupted"
	// Errored: an unexpected failure; the partial transcript is still
	// returned.
	Errored TerminalState = "errored"
)
