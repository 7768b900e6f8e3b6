package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcheck/internal/config"
)

// fakeScraper scripts the screen: a marker flag, successive VisibleTexts
// snapshots, and canned tap responses.
type fakeScraper struct {
	markerVisible bool
	screens       [][]string
	idx           int
	taps          []string
	scrolls       int
	shots         []string
}

func (f *fakeScraper) MarkerPresent(ctx context.Context, marker string) (bool, error) {
	return f.markerVisible, nil
}

func (f *fakeScraper) VisibleTexts(ctx context.Context) ([]string, error) {
	i := f.idx
	if i >= len(f.screens) {
		i = len(f.screens) - 1
	}
	f.idx++
	if i < 0 {
		return nil, nil
	}
	return f.screens[i], nil
}

func (f *fakeScraper) TapText(ctx context.Context, text string) (bool, error) {
	f.taps = append(f.taps, text)
	return text == "Overview" || text == "Order Details", nil
}

func (f *fakeScraper) ScrollOnePage(ctx context.Context) error {
	f.scrolls++
	return nil
}

func (f *fakeScraper) Screenshot(ctx context.Context, path string) error {
	f.shots = append(f.shots, path)
	return nil
}

func (f *fakeScraper) Close() error { return nil }

// fakeExtractor implements llm.Client for the transcript-extraction path.
type fakeExtractor struct{ response string }

func (f *fakeExtractor) Complete(ctx context.Context, prompt string) (string, error) {
	return f.response, nil
}

func (f *fakeExtractor) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return f.response, nil
}

func testScreenConfig() config.ScreenConfig {
	return config.ScreenConfig{
		Marker:          "ORDER COMPLETE",
		WaitTimeoutSec:  1,
		PollIntervalSec: 1,
		MaxScrolls:      8,
		TabRetries:      2,
	}
}

func newTestEngine(scraper *fakeScraper, client *fakeExtractor) *Engine {
	r := NewScreenReconciler(scraper, testScreenConfig(), "", nil)
	r.uiDelay = 0
	if client == nil {
		return NewEngine(r, NewItemMatcher(0.6), nil, 80, nil)
	}
	return NewEngine(r, NewItemMatcher(0.6), client, 80, nil)
}

var overviewScreen = []string{
	"ORDER COMPLETE",
	"Order #38291",
	"2 Items",
	"Payment by Credit Card ...0007",
	"Order Total",
	"$14.99",
}

var detailsScreen = []string{
	"Large Pepperoni",
	"Garlic Knots",
	"$14.99",
	"Subtotal",
	"Show Details",
}

func TestVerifyFullMatchPasses(t *testing.T) {
	scraper := &fakeScraper{
		markerVisible: true,
		screens:       [][]string{overviewScreen, detailsScreen},
	}
	e := newTestEngine(scraper, nil)

	v, err := e.Verify(context.Background(),
		[]string{"1 Large Pepperoni Pizza", "Garlic Knots"}, "")
	require.NoError(t, err)

	assert.True(t, v.Passed)
	assert.Equal(t, 100, v.Score)
	assert.Equal(t, []string{"1 Large Pepperoni Pizza", "Garlic Knots"}, v.MatchedItems)
	assert.Empty(t, v.MissingItems)
	assert.Empty(t, v.ExtraItems)

	require.NotNil(t, v.Overview)
	assert.Equal(t, "Order #38291", v.Overview.OrderNumber)
	assert.Equal(t, "$14.99", v.Overview.OrderTotalAmount)
	assert.NotContains(t, v.Reasoning, "payment card")

	// Both tabs were visited and the details expander was tried.
	assert.Contains(t, scraper.taps, "Overview")
	assert.Contains(t, scraper.taps, "Order Details")
	assert.Contains(t, scraper.taps, "Show Details")
}

func TestVerifyMissingItemFails(t *testing.T) {
	scraper := &fakeScraper{
		markerVisible: true,
		screens:       [][]string{overviewScreen, detailsScreen},
	}
	e := newTestEngine(scraper, nil)

	v, err := e.Verify(context.Background(),
		[]string{"1 Large Pepperoni Pizza", "Garlic Knots", "Diet Pepsi"}, "")
	require.NoError(t, err)

	assert.False(t, v.Passed)
	assert.Equal(t, 66, v.Score)
	assert.Equal(t, []string{"Diet Pepsi"}, v.MissingItems)
	assert.Contains(t, v.Reasoning, "Not found: Diet Pepsi.")
}

func TestVerifyMarkerTimeout(t *testing.T) {
	scraper := &fakeScraper{markerVisible: false}
	e := newTestEngine(scraper, nil)

	expected := []string{"Large Pepperoni"}
	v, err := e.Verify(context.Background(), expected, "")
	require.NoError(t, err)

	assert.False(t, v.Passed)
	assert.Equal(t, 0, v.Score)
	assert.Equal(t, expected, v.MissingItems)
	assert.Contains(t, v.Reasoning, "did not appear within the wait timeout")
}

func TestVerifyNoExpectedItemsFails(t *testing.T) {
	e := newTestEngine(&fakeScraper{markerVisible: true}, nil)

	v, err := e.Verify(context.Background(), nil, "")
	require.NoError(t, err)

	assert.False(t, v.Passed)
	assert.Equal(t, 0, v.Score)
	assert.Contains(t, v.Reasoning, "No expected items")
}

func TestVerifyExtractsExpectedFromTranscript(t *testing.T) {
	scraper := &fakeScraper{
		markerVisible: true,
		screens:       [][]string{overviewScreen, detailsScreen},
	}
	client := &fakeExtractor{response: `{"items": ["1 Large Pepperoni Pizza", "Garlic Knots"]}`}
	e := newTestEngine(scraper, client)

	v, err := e.Verify(context.Background(), nil,
		"Agent: What can I get you?\nRavi: A large pepperoni and garlic knots.")
	require.NoError(t, err)

	assert.True(t, v.Passed)
	assert.Equal(t, 100, v.Score)
}

func TestVerifyNotesUnexpectedPaymentCard(t *testing.T) {
	wrongCard := append([]string{}, overviewScreen...)
	wrongCard[3] = "Payment by Credit Card ...1234"

	scraper := &fakeScraper{
		markerVisible: true,
		screens:       [][]string{wrongCard, detailsScreen},
	}
	e := newTestEngine(scraper, nil)

	v, err := e.Verify(context.Background(), []string{"1 Large Pepperoni Pizza"}, "")
	require.NoError(t, err)

	// Informational only: the wrong card is noted but does not fail the run.
	assert.True(t, v.Passed)
	assert.Contains(t, v.Reasoning, `payment card shown as "Payment by Credit Card ...1234"`)
	assert.Contains(t, v.Reasoning, "expected ...007")
}
