package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"callcheck/internal/llm"
)

// expectedCardSuffix is the last digits of the test payment card. A
// confirmation screen showing a different card is noted in the verdict's
// reasoning but does not fail the run.
const expectedCardSuffix = "007"

// Engine is the verification entry point: it resolves the expected item
// list, waits for the confirmation screen, scrapes it, and scores the
// comparison.
type Engine struct {
	reconciler *ScreenReconciler
	matcher    *ItemMatcher
	client     llm.Client
	passScore  int
	logger     *zap.Logger
}

// NewEngine builds an engine. client may be nil when expected items are
// always supplied explicitly; passScore outside [0,100] falls back to 80.
func NewEngine(reconciler *ScreenReconciler, matcher *ItemMatcher, client llm.Client, passScore int, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if passScore <= 0 || passScore > 100 {
		passScore = 80
	}
	return &Engine{
		reconciler: reconciler,
		matcher:    matcher,
		client:     client,
		passScore:  passScore,
		logger:     logger,
	}
}

// Verify runs the full verification flow. expected may be empty, in which
// case the items are extracted from transcript; an empty resolved set is an
// explicit failure, never a silent pass. The verdict is non-nil whenever the
// error is nil.
func (e *Engine) Verify(ctx context.Context, expected []string, transcript string) (*Verdict, error) {
	expected, err := e.resolveExpected(ctx, expected, transcript)
	if err != nil {
		return nil, err
	}
	if len(expected) == 0 {
		e.logger.Warn("no expected items resolved")
		return failingVerdict(nil, "No expected items to compare against."), nil
	}

	if err := e.reconciler.WaitForConfirmation(ctx); err != nil {
		if errors.Is(err, ErrMarkerTimeout) {
			return failingVerdict(expected,
				"Confirmation screen did not appear within the wait timeout."), nil
		}
		return nil, err
	}

	overview, _, err := e.reconciler.Overview(ctx)
	if err != nil {
		return nil, err
	}

	details, err := e.reconciler.Details(ctx)
	if err != nil {
		return nil, err
	}

	verdict := e.score(expected, details)
	verdict.Overview = &overview

	// Informational only: a wrong card is worth flagging but the item
	// comparison decides pass/fail.
	if overview.Payment != "" && !strings.Contains(overview.Payment, expectedCardSuffix) {
		verdict.Reasoning += fmt.Sprintf(" | Note: payment card shown as %q (expected ...%s)",
			overview.Payment, expectedCardSuffix)
	}

	e.logger.Info("verification complete",
		zap.Bool("passed", verdict.Passed),
		zap.Int("score", verdict.Score),
		zap.Strings("missing", verdict.MissingItems))
	return verdict, nil
}

// resolveExpected returns the explicit items when given, otherwise extracts
// them from the transcript.
func (e *Engine) resolveExpected(ctx context.Context, expected []string, transcript string) ([]string, error) {
	if len(expected) > 0 {
		return expected, nil
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, nil
	}
	if e.client == nil {
		return nil, errors.New("verify: no llm client to extract expected items")
	}
	items, err := llm.ExtractItems(ctx, e.client, transcript, e.logger)
	if err != nil {
		return nil, fmt.Errorf("extract expected items: %w", err)
	}
	return items, nil
}

// score runs the deterministic comparison over noise-filtered screen text.
func (e *Engine) score(expected, screenTexts []string) *Verdict {
	filtered := FilterNoise(screenTexts)
	e.logger.Debug("screen text after noise filter",
		zap.Int("kept", len(filtered)), zap.Int("raw", len(screenTexts)))

	matched, missing := e.matcher.Match(expected, filtered)
	score := Score(len(matched), len(expected))

	reasoning := fmt.Sprintf("Keyword matching: %d/%d expected items found on screen.",
		len(matched), len(expected))
	if len(missing) > 0 {
		reasoning += fmt.Sprintf(" Not found: %s.", strings.Join(missing, ", "))
	}

	return &Verdict{
		Passed:       score >= e.passScore,
		Score:        score,
		MatchedItems: matched,
		MissingItems: missing,
		ExtraItems:   []string{},
		Reasoning:    reasoning,
	}
}
