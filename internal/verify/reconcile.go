package verify

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"callcheck/internal/config"
	"callcheck/internal/screen"
)

// ErrMarkerTimeout reports that the confirmation screen never appeared.
var ErrMarkerTimeout = errors.New("verify: confirmation screen did not appear")

// ScreenReconciler walks the app's confirmation screen: waits for it to
// appear, reads the Overview tab, and collects the full item list from the
// Order Details tab including content below the fold.
type ScreenReconciler struct {
	scraper       screen.Scraper
	cfg           config.ScreenConfig
	screenshotDir string
	logger        *zap.Logger

	// uiDelay is the base pause given to the UI after an interaction.
	uiDelay time.Duration
}

// NewScreenReconciler builds a reconciler. screenshotDir may be empty to
// disable screenshots.
func NewScreenReconciler(scraper screen.Scraper, cfg config.ScreenConfig, screenshotDir string, logger *zap.Logger) *ScreenReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScreenReconciler{
		scraper:       scraper,
		cfg:           cfg,
		screenshotDir: screenshotDir,
		logger:        logger,
		uiDelay:       time.Second,
	}
}

// WaitForConfirmation polls for the marker text until it appears or the wait
// budget runs out. The app takes minutes to reach the confirmation screen
// after the call ends, so the default budget is generous.
func (r *ScreenReconciler) WaitForConfirmation(ctx context.Context) error {
	timeout := r.cfg.WaitTimeout()
	interval := r.cfg.PollInterval()
	deadline := time.Now().Add(timeout)

	r.logger.Info("waiting for confirmation screen",
		zap.String("marker", r.cfg.Marker),
		zap.Duration("timeout", timeout))

	for {
		present, err := r.scraper.MarkerPresent(ctx, r.cfg.Marker)
		if err != nil {
			return fmt.Errorf("check confirmation marker: %w", err)
		}
		if present {
			r.logger.Info("confirmation screen detected")
			r.screenshot(ctx, "order_complete_screen")
			return nil
		}
		if time.Now().Add(interval).After(deadline) {
			r.logger.Warn("confirmation screen never appeared",
				zap.Duration("waited", timeout))
			return ErrMarkerTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Overview navigates to the Overview tab and returns the parsed fields plus
// the raw strings they came from.
func (r *ScreenReconciler) Overview(ctx context.Context) (Overview, []string, error) {
	if !r.clickTab(ctx, "Overview") {
		r.logger.Warn("overview tab not reachable, scraping current screen")
	}

	texts, err := r.scraper.VisibleTexts(ctx)
	if err != nil {
		return Overview{}, nil, fmt.Errorf("scrape overview: %w", err)
	}
	r.screenshot(ctx, "order_complete_overview")

	o := ParseOverview(texts)
	r.logger.Info("overview parsed",
		zap.String("order_number", o.OrderNumber),
		zap.String("item_count", o.ItemCount),
		zap.String("payment", o.Payment),
		zap.String("order_total", o.OrderTotal))
	return o, texts, nil
}

// Details navigates to the Order Details tab, expands collapsed item rows,
// and scrolls through the whole tab collecting every distinct text string.
// Scrolling stops when a pass adds nothing new or the scroll cap is hit.
func (r *ScreenReconciler) Details(ctx context.Context) ([]string, error) {
	if !r.clickTab(ctx, "Order Details") {
		r.logger.Warn("order details tab not reachable, scraping current screen")
	}

	r.expandDetails(ctx)

	seen := make(map[string]struct{})
	var all []string
	add := func(texts []string) int {
		added := 0
		for _, t := range texts {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			all = append(all, t)
			added++
		}
		return added
	}

	initial, err := r.scraper.VisibleTexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape order details: %w", err)
	}
	add(initial)
	r.screenshot(ctx, "order_complete_details")
	r.logger.Debug("details before scrolling", zap.Int("texts", len(all)))

	maxScrolls := r.cfg.MaxScrolls
	if maxScrolls <= 0 {
		maxScrolls = 8
	}
	for i := 1; i <= maxScrolls; i++ {
		if err := r.scraper.ScrollOnePage(ctx); err != nil {
			return nil, fmt.Errorf("scroll order details: %w", err)
		}
		if err := r.settle(ctx, r.uiDelay); err != nil {
			return nil, err
		}

		texts, err := r.scraper.VisibleTexts(ctx)
		if err != nil {
			return nil, fmt.Errorf("scrape order details: %w", err)
		}
		added := add(texts)
		r.logger.Debug("scroll pass",
			zap.Int("scroll", i), zap.Int("added", added), zap.Int("total", len(all)))
		if added == 0 {
			break
		}
	}

	return all, nil
}

// expandDetails clicks every "Show Details" toggle so per-item quantities
// and customizations are visible before scraping. Absent toggles are fine:
// the rows may already be expanded.
func (r *ScreenReconciler) expandDetails(ctx context.Context) {
	const maxToggles = 10
	clicked := 0
	for clicked < maxToggles {
		hit, err := r.scraper.TapText(ctx, "Show Details")
		if err != nil || !hit {
			break
		}
		clicked++
		if err := r.settle(ctx, r.uiDelay/2); err != nil {
			return
		}
	}
	if clicked > 0 {
		r.logger.Info("expanded item details", zap.Int("sections", clicked))
		_ = r.settle(ctx, r.uiDelay)
	}
}

// clickTab taps the named tab with bounded retries. Returns false when the
// tab could not be found; callers scrape whatever is on screen anyway.
func (r *ScreenReconciler) clickTab(ctx context.Context, name string) bool {
	retries := r.cfg.TabRetries
	if retries <= 0 {
		retries = 3
	}
	for attempt := 1; attempt <= retries; attempt++ {
		hit, err := r.scraper.TapText(ctx, name)
		if err == nil && hit {
			_ = r.settle(ctx, 2*r.uiDelay)
			r.logger.Debug("tab selected", zap.String("tab", name), zap.Int("attempt", attempt))
			return true
		}
		if err != nil {
			r.logger.Warn("tab tap failed", zap.String("tab", name), zap.Error(err))
		}
		if attempt < retries {
			if settleErr := r.settle(ctx, 2*r.uiDelay); settleErr != nil {
				return false
			}
		}
	}
	return false
}

// settle waits for the UI to catch up with an interaction.
func (r *ScreenReconciler) settle(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (r *ScreenReconciler) screenshot(ctx context.Context, name string) {
	if r.screenshotDir == "" {
		return
	}
	path := filepath.Join(r.screenshotDir, name+".png")
	if err := r.scraper.Screenshot(ctx, path); err != nil {
		r.logger.Warn("screenshot failed", zap.String("name", name), zap.Error(err))
	}
}
