package screen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"callcheck/internal/config"
)

// visibleTextsJS collects the text of visible leaf-ish elements in document
// order. An element counts as visible when it has layout, is not
// display:none/hidden/transparent, and carries its own text rather than only
// its children's.
const visibleTextsJS = `
() => {
	const out = [];
	for (const el of document.querySelectorAll('body *')) {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') continue;
		if (rect.width <= 0 || rect.height <= 0) continue;

		let own = '';
		for (const child of el.childNodes) {
			if (child.nodeType === Node.TEXT_NODE) own += child.textContent;
		}
		own = own.trim();
		if (own) out.push(own);
	}
	return out;
}
`

// tapTextJS clicks the first visible element whose text contains the needle.
const tapTextJS = `
(needle) => {
	for (const el of document.querySelectorAll('body *')) {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') continue;
		if (rect.width <= 0 || rect.height <= 0) continue;
		const text = (el.innerText || '').trim();
		if (text && text.includes(needle)) {
			el.click();
			return true;
		}
	}
	return false;
}
`

// RodScraper drives the ordering app through Chrome DevTools.
type RodScraper struct {
	browser  *rod.Browser
	page     *rod.Page
	launched *launcher.Launcher // nil when attached to an external Chrome
	logger   *zap.Logger
}

// NewRodScraper connects to Chrome (attaching to cfg.DebuggerURL when set,
// launching a browser otherwise) and opens the app page.
func NewRodScraper(ctx context.Context, cfg config.ScreenConfig, logger *zap.Logger) (*RodScraper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &RodScraper{logger: logger}

	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if len(cfg.Launch) > 0 {
			l = l.Bin(cfg.Launch[0])
			for _, rawFlag := range cfg.Launch[1:] {
				name, val, hasVal := strings.Cut(strings.TrimLeft(rawFlag, "-"), "=")
				if hasVal {
					l = l.Set(flags.Flag(name), val)
				} else {
					l = l.Set(flags.Flag(name))
				}
			}
		}
		url, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
		s.launched = l
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	s.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: cfg.AppURL})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open app page: %w", err)
	}
	s.page = page

	logger.Info("screen scraper connected", zap.String("app_url", cfg.AppURL))
	return s, nil
}

// MarkerPresent reports whether the marker text is visible on screen.
func (s *RodScraper) MarkerPresent(ctx context.Context, marker string) (bool, error) {
	texts, err := s.VisibleTexts(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range texts {
		if strings.Contains(t, marker) {
			return true, nil
		}
	}
	return false, nil
}

// VisibleTexts snapshots the visible text of the current screen.
func (s *RodScraper) VisibleTexts(ctx context.Context) ([]string, error) {
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           visibleTextsJS,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot screen text: %w", err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal screen text: %w", err)
	}
	var texts []string
	if err := json.Unmarshal(raw, &texts); err != nil {
		return nil, fmt.Errorf("decode screen text: %w", err)
	}
	return texts, nil
}

// TapText clicks the first visible element containing text.
func (s *RodScraper) TapText(ctx context.Context, text string) (bool, error) {
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           tapTextJS,
		JSArgs:       []interface{}{text},
		ByValue:      true,
		AwaitPromise: true,
		UserGesture:  true,
	})
	if err != nil {
		return false, fmt.Errorf("tap %q: %w", text, err)
	}
	tapped := res.Value.Bool()
	s.logger.Debug("tap attempt", zap.String("text", text), zap.Bool("hit", tapped))
	return tapped, nil
}

// ScrollOnePage scrolls down by most of a viewport height, keeping some
// overlap so no row is skipped between snapshots.
func (s *RodScraper) ScrollOnePage(ctx context.Context) error {
	_, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           `() => { window.scrollBy(0, Math.floor(window.innerHeight * 0.8)); }`,
		ByValue:      true,
		AwaitPromise: true,
		UserGesture:  true,
	})
	if err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// Screenshot writes the current viewport to path as PNG.
func (s *RodScraper) Screenshot(ctx context.Context, path string) error {
	data, err := s.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	s.logger.Info("screenshot saved", zap.String("path", path))
	return nil
}

// Close shuts the page and browser down, and kills the launched Chrome when
// this scraper started it.
func (s *RodScraper) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launched != nil {
		s.launched.Kill()
	}
	return err
}
