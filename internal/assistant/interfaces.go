package assistant

import "context"

// TabTarget addresses a tab either by zero-based index or by a
// case-insensitive title fragment. A negative Index means address by Title.
type TabTarget struct {
	Index int
	Title string
}

// TabInfo is a read-only snapshot of one open tab.
type TabInfo struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Automation is the capability boundary to the browser-driving agent. Perform
// executes one natural-language task to completion and returns the agent's
// final payload verbatim. Failures inside the automation layer are reported
// in-band as a JSON object with an "error" key; an error return is reserved
// for the surrounding machinery (context cancellation, dead browser).
type Automation interface {
	Perform(ctx context.Context, task string) (string, error)
}

// TabRegistry manages the ordered set of open browser tabs for one session.
type TabRegistry interface {
	// OpenTab opens a new tab, focuses it, and navigates to url when url is
	// non-empty. It returns the new tab's info.
	OpenTab(ctx context.Context, url string) (TabInfo, error)

	// SwitchTab focuses the tab addressed by target.
	SwitchTab(ctx context.Context, target TabTarget) (TabInfo, error)

	// Tabs lists the open tabs in creation order.
	Tabs(ctx context.Context) ([]TabInfo, error)
}

// Notifier receives the final response text for a command, for delivery to
// whatever surface the session is attached to.
type Notifier interface {
	Notify(ctx context.Context, sessionID, message string)
}
