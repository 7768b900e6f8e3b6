// Package screen reads the ordering app's UI. The scraper exposes the small
// surface verification needs: visible text, marker checks, taps, scrolling,
// and screenshots.
package screen

import "context"

// Scraper is the read/interact surface over the live app screen.
type Scraper interface {
	// MarkerPresent reports whether the given text is visible anywhere on
	// the current screen.
	MarkerPresent(ctx context.Context, marker string) (bool, error)
	// VisibleTexts returns the text of every visible element, top to
	// bottom. Texts are raw: no normalization, no noise filtering.
	VisibleTexts(ctx context.Context) ([]string, error)
	// TapText clicks the first visible element whose text contains the
	// given string. Returns false when no such element exists.
	TapText(ctx context.Context, text string) (bool, error)
	// ScrollOnePage scrolls the viewport down by roughly one page.
	ScrollOnePage(ctx context.Context) error
	// Screenshot writes a PNG of the current viewport to path.
	Screenshot(ctx context.Context, path string) error
	// Close releases the underlying browser resources.
	Close() error
}
