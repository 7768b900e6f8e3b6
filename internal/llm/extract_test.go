package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns a canned response for extraction tests.
type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return f.response, f.err
}

func TestExtractItems(t *testing.T) {
	t.Run("parses plain JSON", func(t *testing.T) {
		c := &fakeClient{response: `{"items": ["1 Large pepperoni pizza", "1 Garlic knots"]}`}
		items, err := ExtractItems(context.Background(), c, "Agent: ...", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"1 Large pepperoni pizza", "1 Garlic knots"}, items)
	})

	t.Run("strips markdown fences and prose", func(t *testing.T) {
		c := &fakeClient{response: "Here you go:\n```json\n{\"items\": [\"2 medium cheese\"]}\n```"}
		items, err := ExtractItems(context.Background(), c, "transcript", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"2 medium cheese"}, items)
	})

	t.Run("empty order yields empty list", func(t *testing.T) {
		c := &fakeClient{response: `{"items": []}`}
		items, err := ExtractItems(context.Background(), c, "transcript", nil)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("drops blank entries", func(t *testing.T) {
		c := &fakeClient{response: `{"items": ["  ", "1 small veggie"]}`}
		items, err := ExtractItems(context.Background(), c, "transcript", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"1 small veggie"}, items)
	})

	t.Run("no JSON is an error", func(t *testing.T) {
		c := &fakeClient{response: "I could not find any items."}
		items, err := ExtractItems(context.Background(), c, "transcript", nil)
		assert.Error(t, err)
		assert.Empty(t, items)
	})

	t.Run("model failure propagates", func(t *testing.T) {
		c := &fakeClient{err: errors.New("connection refused")}
		_, err := ExtractItems(context.Background(), c, "transcript", nil)
		assert.Error(t, err)
	})
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
