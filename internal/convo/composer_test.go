package convo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTranscript() *Transcript {
	tr := NewTranscript("Ravi")
	tr.Append(Utterance{Role: RoleAgent, Text: "Welcome, what can I get you?", Turn: 1})
	tr.Append(Utterance{Role: RolePersona, Text: "A large pepperoni, please.", Turn: 1})
	return tr
}

func TestComposeWithoutConstraints(t *testing.T) {
	c := NewComposer("Ravi")
	prompt := c.Compose(ConstraintSet{}, sampleTranscript())

	assert.True(t, strings.HasPrefix(prompt, "Conversation History:\n"))
	assert.NotContains(t, prompt, "RULES FOR THIS RESPONSE")
	assert.Contains(t, prompt, "Agent: Welcome, what can I get you?")
	assert.Contains(t, prompt, "Ravi: A large pepperoni, please.")
	assert.Contains(t, prompt, "You are Ravi. Respond with ONLY your spoken words.")
}

func TestComposeConstraintsPrecedeHistory(t *testing.T) {
	c := NewComposer("Ravi")
	set := ConstraintSet{
		RejectedItems:    []string{"Sorry, we don't have Diet Pepsi."},
		ConfirmedUpdates: []string{"I've already added the garlic knots."},
		PendingOffer:     "Which size would you like?",
	}
	prompt := c.Compose(set, sampleTranscript())

	rules := strings.Index(prompt, "RULES FOR THIS RESPONSE")
	rejected := strings.Index(prompt, "✗ Sorry, we don't have Diet Pepsi.")
	confirmed := strings.Index(prompt, "✓ I've already added the garlic knots.")
	offer := strings.Index(prompt, `Agent's question/offer: "Which size would you like?"`)
	history := strings.Index(prompt, "Conversation History:")

	require.NotEqual(t, -1, rules)
	require.NotEqual(t, -1, rejected)
	require.NotEqual(t, -1, confirmed)
	require.NotEqual(t, -1, offer)
	require.NotEqual(t, -1, history)

	// Rejections, then confirmations, then the pending offer, then history.
	assert.Less(t, rules, rejected)
	assert.Less(t, rejected, confirmed)
	assert.Less(t, confirmed, offer)
	assert.Less(t, offer, history)
}

func TestComposeRepetitionWarning(t *testing.T) {
	c := NewComposer("Ravi")

	one := c.Compose(ConstraintSet{
		ConfirmedUpdates: []string{"I've already added the breadsticks."},
	}, sampleTranscript())
	assert.NotContains(t, one, "WARNING: You have been repeating yourself.")

	two := c.Compose(ConstraintSet{
		ConfirmedUpdates: []string{
			"I've already added the breadsticks.",
			"I've already added the breadsticks to your order.",
		},
	}, sampleTranscript())
	assert.Contains(t, two, "WARNING: You have been repeating yourself.")
}

func TestTrackerFeedsComposer(t *testing.T) {
	tr := NewConstraintTracker(nil, nil)
	tr.ObserveAgentUtterance("Sorry, we don't have garlic knots.")
	tr.ObserveAgentUtterance("I've already removed the garlic knots.")

	prompt := NewComposer("Ravi").Compose(tr.Snapshot(), sampleTranscript())

	rejected := strings.Index(prompt, "✗ Sorry, we don't have garlic knots.")
	confirmed := strings.Index(prompt, "✓ I've already removed the garlic knots.")
	require.NotEqual(t, -1, rejected)
	require.NotEqual(t, -1, confirmed)
	assert.Less(t, rejected, confirmed)
	assert.Less(t, confirmed, strings.Index(prompt, "Conversation History:"))
}

func TestComposeDefaultsPersonaName(t *testing.T) {
	c := NewComposer("")
	prompt := c.Compose(ConstraintSet{}, NewTranscript(""))
	assert.Contains(t, prompt, "You are Persona.")
}
