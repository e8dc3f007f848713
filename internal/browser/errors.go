package browser

import "errors"

var (
	// ErrNotInitialized is returned by tab operations before the registry has
	// opened its first tab.
	ErrNotInitialized = errors.New("browser session is not initialized")

	// ErrTabIndexOutOfRange is returned when a tab index does not address an
	// open tab.
	ErrTabIndexOutOfRange = errors.New("tab index is out of range")

	// ErrTabNotFound is returned when no open tab title contains the
	// requested fragment.
	ErrTabNotFound = errors.New("no tab matches the given title")

	// ErrVerificationTimeout is returned when a verification challenge was
	// still present after the configured wait budget.
	ErrVerificationTimeout = errors.New("verification challenge was not cleared in time")
)
