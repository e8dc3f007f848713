package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/dkaplan88/hireflow/internal/config"
)

// challengeSelectors match the verification interstitials the dashboard and
// its CDN put in front of logins: CAPTCHA frames and Cloudflare challenge
// pages.
var challengeSelectors = []string{
	"iframe[src*='captcha']",
	"iframe[src*='recaptcha']",
	"iframe[src*='hcaptcha']",
	"iframe[title*='challenge']",
	"#challenge-running",
	"#challenge-form",
	"div.cf-browser-verification",
}

const challengeProbeScript = `
(function(sels) {
	for (const sel of sels) {
		if (document.querySelector(sel) !== null) { return true; }
	}
	return false;
})(%s)`

// ProbeFunc reports whether a verification challenge is currently visible.
type ProbeFunc func(ctx context.Context) (bool, error)

// Gate blocks automation while a verification challenge is on screen. It
// polls at a fixed interval within a bounded budget instead of sleeping a
// fixed length, so a challenge the operator solves quickly releases the
// pipeline immediately.
type Gate struct {
	budget   time.Duration
	interval time.Duration
	probe    ProbeFunc
	logger   *zap.Logger
}

// NewGate builds a gate with the given probe. A nil probe makes Wait a
// no-op, for callers that run without a browser.
func NewGate(cfg config.VerificationConfig, probe ProbeFunc, logger *zap.Logger) *Gate {
	return &Gate{
		budget:   cfg.WaitBudget,
		interval: cfg.PollInterval,
		probe:    probe,
		logger:   logger.Named("verification_gate"),
	}
}

// ChallengeProbe builds a ProbeFunc that checks the given tab for challenge
// markers.
func ChallengeProbe(tabCtx context.Context) ProbeFunc {
	selectors, _ := json.MarshalToString(challengeSelectors)
	script := fmt.Sprintf(challengeProbeScript, selectors)
	return func(ctx context.Context) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		// chromedp actions must run on the tab's context chain.
		probeCtx, cancel := context.WithTimeout(tabCtx, 5*time.Second)
		defer cancel()

		var present bool
		if err := chromedp.Run(probeCtx, chromedp.Evaluate(script, &present)); err != nil {
			return false, err
		}
		return present, nil
	}
}

// RegistryProbe builds a ProbeFunc that checks the registry's focused tab.
// Before the first tab exists there is nothing to verify.
func RegistryProbe(r *Registry) ProbeFunc {
	return func(ctx context.Context) (bool, error) {
		tabCtx, err := r.Current()
		if err != nil {
			return false, nil
		}
		return ChallengeProbe(tabCtx)(ctx)
	}
}

// Wait returns nil as soon as no challenge is visible. If a challenge is
// still visible once the budget is spent, it fails with
// ErrVerificationTimeout. The caller's context cancels the wait early.
func (g *Gate) Wait(ctx context.Context) error {
	if g.probe == nil {
		return nil
	}

	present, err := g.probe(ctx)
	if err != nil {
		return fmt.Errorf("verification probe failed: %w", err)
	}
	if !present {
		return nil
	}

	g.logger.Warn("Verification challenge detected. Waiting for it to be solved...",
		zap.Duration("budget", g.budget))

	deadline := time.NewTimer(g.budget)
	defer deadline.Stop()
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrVerificationTimeout
		case <-ticker.C:
			present, err := g.probe(ctx)
			if err != nil {
				return fmt.Errorf("verification probe failed: %w", err)
			}
			if !present {
				g.logger.Info("Verification challenge cleared.")
				return nil
			}
		}
	}
}
