package convo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestTranscriptRendering(t *testing.T) {
	tr := NewTranscript("Ravi")
	tr.Append(Utterance{Role: RoleAgent, Text: "What can I get you?", Turn: 1})
	tr.Append(Utterance{Role: RolePersona, Text: "A large pepperoni.", Turn: 1})
	tr.Append(Utterance{Role: RoleAgent, Text: "Coming right up.", Turn: 2})

	assert.Equal(t, 3, tr.Len())
	assert.Equal(t,
		"Agent: What can I get you?\nRavi: A large pepperoni.\nAgent: Coming right up.",
		tr.String())

	want := []Utterance{
		{Role: RoleAgent, Text: "What can I get you?", Turn: 1},
		{Role: RolePersona, Text: "A large pepperoni.", Turn: 1},
		{Role: RoleAgent, Text: "Coming right up.", Turn: 2},
	}
	if diff := cmp.Diff(want, tr.Utterances()); diff != "" {
		t.Errorf("utterances mismatch (-want +got):\n%s", diff)
	}
}

func TestTranscriptDefaultPersonaName(t *testing.T) {
	tr := NewTranscript("")
	tr.Append(Utterance{Role: RolePersona, Text: "Hello.", Turn: 1})
	assert.Equal(t, "Persona: Hello.", tr.String())
}

func TestTranscriptEmpty(t *testing.T) {
	tr := NewTranscript("Ravi")
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, "", tr.String())
}
