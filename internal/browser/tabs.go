package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/dkaplan88/hireflow/internal/assistant"
)

// Tab is one open browser tab. Its chromedp context stays valid until the
// tab is closed.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	url    string
	title  string
}

// Registry manages the ordered set of tabs for one session. Tabs keep their
// creation order; indices are zero-based and stable until the registry is
// closed.
type Registry struct {
	mu      sync.Mutex
	tabs    []*Tab
	focused int
	logger  *zap.Logger

	// Hooks for the browser plumbing, replaceable in tests.
	newTab   func(ctx context.Context, url string) (*Tab, error)
	activate func(ctx context.Context, t *Tab) error
	onClose  func()
}

var _ assistant.TabRegistry = (*Registry)(nil)

// NewRegistry builds a Registry whose tabs are derived from the manager's
// browser process.
func NewRegistry(m *Manager, logger *zap.Logger) *Registry {
	r := &Registry{
		focused: -1,
		logger:  logger.Named("tab_registry"),
		onClose: m.tabClosed,
	}
	r.newTab = func(ctx context.Context, url string) (*Tab, error) {
		tabCtx, cancel := chromedp.NewContext(m.AllocatorContext())
		if url == "" {
			url = "about:blank"
		}
		if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to open tab at %s: %w", url, err)
		}
		m.tabOpened()
		return &Tab{ctx: tabCtx, cancel: cancel, url: url}, nil
	}
	r.activate = func(_ context.Context, t *Tab) error {
		return chromedp.Run(t.ctx, page.BringToFront())
	}
	return r
}

// OpenTab opens a new tab, focuses it, and navigates to url when url is
// non-empty.
func (r *Registry) OpenTab(ctx context.Context, url string) (assistant.TabInfo, error) {
	tab, err := r.newTab(ctx, url)
	if err != nil {
		return assistant.TabInfo{}, err
	}
	tab.refreshTitle()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tabs = append(r.tabs, tab)
	r.focused = len(r.tabs) - 1

	r.logger.Info("opened tab", zap.Int("index", r.focused), zap.String("url", tab.url))
	return r.infoLocked(r.focused), nil
}

// SwitchTab focuses the tab addressed by target: a zero-based index, or a
// case-insensitive title fragment when the index is negative. The first tab
// in creation order wins a fragment tie.
func (r *Registry) SwitchTab(ctx context.Context, target assistant.TabTarget) (assistant.TabInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.tabs) == 0 {
		return assistant.TabInfo{}, ErrNotInitialized
	}

	idx := target.Index
	if idx < 0 {
		// Titles drift as pages navigate; refresh before matching.
		for _, t := range r.tabs {
			t.refreshTitle()
		}
		fragment := strings.ToLower(target.Title)
		idx = -1
		for i, t := range r.tabs {
			if strings.Contains(strings.ToLower(t.title), fragment) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return assistant.TabInfo{}, fmt.Errorf("%w: %q", ErrTabNotFound, target.Title)
		}
	} else if idx >= len(r.tabs) {
		return assistant.TabInfo{}, fmt.Errorf("%w: tab %d of %d", ErrTabIndexOutOfRange, idx+1, len(r.tabs))
	}

	if err := r.activate(ctx, r.tabs[idx]); err != nil {
		return assistant.TabInfo{}, fmt.Errorf("failed to focus tab %d: %w", idx+1, err)
	}
	r.focused = idx

	r.logger.Info("switched tab", zap.Int("index", idx))
	return r.infoLocked(idx), nil
}

// Tabs lists the open tabs in creation order.
func (r *Registry) Tabs(_ context.Context) ([]assistant.TabInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]assistant.TabInfo, len(r.tabs))
	for i := range r.tabs {
		infos[i] = r.infoLocked(i)
	}
	return infos, nil
}

// Current returns the chromedp context of the focused tab. It fails with
// ErrNotInitialized until the first tab is opened.
func (r *Registry) Current() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.focused < 0 {
		return nil, ErrNotInitialized
	}
	return r.tabs[r.focused].ctx, nil
}

// Ensure opens the initial tab if none exists yet and returns the focused
// tab's context.
func (r *Registry) Ensure(ctx context.Context) (context.Context, error) {
	if tabCtx, err := r.Current(); err == nil {
		return tabCtx, nil
	}
	if _, err := r.OpenTab(ctx, ""); err != nil {
		return nil, err
	}
	return r.Current()
}

// Close closes every tab. The registry is unusable afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tabs {
		if t.cancel != nil {
			t.cancel()
		}
		if r.onClose != nil {
			r.onClose()
		}
	}
	r.tabs = nil
	r.focused = -1
}

// setFocusedURL records the focused tab's last navigated URL.
func (r *Registry) setFocusedURL(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.focused >= 0 {
		r.tabs[r.focused].url = url
	}
}

func (r *Registry) infoLocked(i int) assistant.TabInfo {
	t := r.tabs[i]
	return assistant.TabInfo{Index: i, URL: t.url, Title: t.title}
}

// refreshTitle updates the cached title from the live page, best effort.
func (t *Tab) refreshTitle() {
	if t.ctx == nil {
		return
	}
	titleCtx, cancel := context.WithTimeout(t.ctx, 2*time.Second)
	defer cancel()

	var title string
	if err := chromedp.Run(titleCtx, chromedp.Title(&title)); err == nil {
		t.title = title
	}
}
