package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromeDriver implements PageDriver on the registry's focused tab. The
// first operation lazily opens the initial tab.
type ChromeDriver struct {
	registry   *Registry
	navTimeout time.Duration
	logger     *zap.Logger
}

// NewChromeDriver builds a driver bound to the given registry.
func NewChromeDriver(registry *Registry, navTimeout time.Duration, logger *zap.Logger) *ChromeDriver {
	return &ChromeDriver{
		registry:   registry,
		navTimeout: navTimeout,
		logger:     logger.Named("chrome_driver"),
	}
}

var _ PageDriver = (*ChromeDriver)(nil)

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	tabCtx, err := d.registry.Ensure(ctx)
	if err != nil {
		return err
	}
	runCtx, cancel := d.bounded(tabCtx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	d.registry.setFocusedURL(url)
	return nil
}

func (d *ChromeDriver) Click(ctx context.Context, selector string) error {
	tabCtx, err := d.registry.Ensure(ctx)
	if err != nil {
		return err
	}
	runCtx, cancel := d.bounded(tabCtx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (d *ChromeDriver) Type(ctx context.Context, selector, text string) error {
	tabCtx, err := d.registry.Ensure(ctx)
	if err != nil {
		return err
	}
	runCtx, cancel := d.bounded(tabCtx)
	defer cancel()

	err = chromedp.Run(runCtx,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

func (d *ChromeDriver) Extract(ctx context.Context, selector string) (string, error) {
	tabCtx, err := d.registry.Ensure(ctx)
	if err != nil {
		return "", err
	}
	runCtx, cancel := d.bounded(tabCtx)
	defer cancel()

	var text string
	if err := chromedp.Run(runCtx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("extract %s: %w", selector, err)
	}
	return text, nil
}

func (d *ChromeDriver) Snapshot(ctx context.Context) (PageState, error) {
	tabCtx, err := d.registry.Ensure(ctx)
	if err != nil {
		return PageState{}, err
	}
	runCtx, cancel := d.bounded(tabCtx)
	defer cancel()

	var state PageState
	err = chromedp.Run(runCtx,
		chromedp.Location(&state.URL),
		chromedp.Title(&state.Title),
		chromedp.Text("body", &state.Content, chromedp.ByQuery),
	)
	if err != nil {
		return PageState{}, fmt.Errorf("snapshot page: %w", err)
	}
	return state, nil
}

func (d *ChromeDriver) bounded(tabCtx context.Context) (context.Context, context.CancelFunc) {
	if d.navTimeout <= 0 {
		return context.WithCancel(tabCtx)
	}
	return context.WithTimeout(tabCtx, d.navTimeout)
}
