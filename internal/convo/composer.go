package convo

import (
	"fmt"
	"strings"
)

// Composer assembles the generation prompt for the persona's next utterance.
//
// Constraint blocks are emitted BEFORE the conversation history: a model
// given a long history followed by directives anchors on the dialogue and
// ignores the directives, so the ordering here is load-bearing, not
// stylistic.
type Composer struct {
	// PersonaName is the name used in history lines and the closing
	// instruction.
	PersonaName string
}

// NewComposer builds a composer for the named persona.
func NewComposer(personaName string) *Composer {
	if personaName == "" {
		personaName = string(RolePersona)
	}
	return &Composer{PersonaName: personaName}
}

// Compose renders the prompt from the active constraints and the
// conversation so far. Purely functional over its inputs.
func (c *Composer) Compose(set ConstraintSet, transcript *Transcript) string {
	var b strings.Builder

	if !set.Empty() {
		b.WriteString("RULES FOR THIS RESPONSE — read these BEFORE the conversation:\n")
	}

	if len(set.RejectedItems) > 0 {
		b.WriteString("The agent has confirmed these items are NOT AVAILABLE.\n")
		b.WriteString("You MUST NOT mention, request, or reference any of them again ")
		b.WriteString("in any form (including size variants):\n")
		for _, r := range set.RejectedItems {
			fmt.Fprintf(&b, "  ✗ %s\n", r)
		}
		b.WriteString("If the agent offered alternatives, pick one of those instead.\n")
	}

	if len(set.ConfirmedUpdates) > 0 {
		b.WriteString("The agent has ALREADY CONFIRMED these actions are done. ")
		b.WriteString("Do NOT ask for them again, do NOT reference these items as missing or unresolved. ")
		b.WriteString("Treat them as complete:\n")
		for _, u := range set.ConfirmedUpdates {
			fmt.Fprintf(&b, "  ✓ %s\n", u)
		}
		if len(set.ConfirmedUpdates) >= 2 {
			b.WriteString("WARNING: You have been repeating yourself. ")
			b.WriteString("The agent has confirmed the same thing multiple times. ")
			b.WriteString("Stop asking about it and move the conversation forward. ")
			b.WriteString("If your order is complete, say so and wrap up the call.\n")
		}
	}

	if set.PendingOffer != "" {
		b.WriteString("The agent just asked you to choose. ")
		b.WriteString("You MUST pick a specific option from what they listed. ")
		b.WriteString("Do NOT give a vague answer like 'can we just get a drink'.\n")
		fmt.Fprintf(&b, "Agent's question/offer: %q\n", set.PendingOffer)
	}

	if !set.Empty() {
		b.WriteString("\n")
	}

	b.WriteString("Conversation History:\n")
	b.WriteString(transcript.String())
	fmt.Fprintf(&b, "\n\nYou are %s. Respond with ONLY your spoken words. What do you say next?", c.PersonaName)

	return b.String()
}
