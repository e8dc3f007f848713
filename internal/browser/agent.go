package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/dkaplan88/hireflow/internal/assistant"
	"github.com/dkaplan88/hireflow/internal/llmclient"
	"github.com/dkaplan88/hireflow/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const agentSystemPrompt = `You are a browser automation agent operating an employer hiring dashboard.
You are given a task and, each turn, the current page state and the history of your previous actions.
Respond with exactly one JSON object choosing your next action:
  {"action": "navigate", "url": "<absolute url>"}
  {"action": "click", "selector": "<css selector>"}
  {"action": "type", "selector": "<css selector>", "text": "<text to type>"}
  {"action": "extract", "selector": "<css selector>"}
  {"action": "finish", "result": "<final answer for the task>"}
When the task asks for JSON output, the "result" field of your finish action must contain only that JSON.
If the task cannot be completed, finish with a JSON object of the form {"error": "<reason>"}.`

// PageState is the observable state of the focused tab, summarized for the
// model.
type PageState struct {
	URL     string
	Title   string
	Content string
}

// PageDriver executes primitive page operations on the focused tab.
type PageDriver interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Extract(ctx context.Context, selector string) (string, error)
	Snapshot(ctx context.Context) (PageState, error)
}

// decision is one step chosen by the model.
type decision struct {
	Action   string `json:"action"`
	URL      string `json:"url,omitempty"`
	Selector string `json:"selector,omitempty"`
	Text     string `json:"text,omitempty"`
	Result   string `json:"result,omitempty"`
}

// Agent drives the browser through an observe, decide, act loop until the
// task finishes or the step budget runs out. It implements
// assistant.Automation: everything that goes wrong inside a task is reported
// in-band as a JSON error payload, and a returned error is reserved for the
// machinery around the task (context cancellation, dead browser).
type Agent struct {
	driver      PageDriver
	llm         llmclient.LLMClient
	gate        *Gate
	maxSteps    int
	temperature float64
	logger      *zap.Logger
}

var _ assistant.Automation = (*Agent)(nil)

// NewAgent assembles an agent. The gate may be nil when verification
// handling is disabled.
func NewAgent(driver PageDriver, llm llmclient.LLMClient, gate *Gate, maxSteps int, temperature float64, logger *zap.Logger) *Agent {
	return &Agent{
		driver:      driver,
		llm:         llm,
		gate:        gate,
		maxSteps:    maxSteps,
		temperature: temperature,
		logger:      logger.Named("agent"),
	}
}

// Perform runs one task to completion and returns the model's final payload
// verbatim.
func (a *Agent) Perform(ctx context.Context, task string) (string, error) {
	start := time.Now()
	result, err := a.run(ctx, task)

	outcome := "success"
	switch {
	case err != nil:
		outcome = "aborted"
	case strings.HasPrefix(strings.TrimSpace(result), `{"error"`):
		outcome = "failed"
	}
	metrics.ObserveAutomation(outcome, time.Since(start))
	return result, err
}

func (a *Agent) run(ctx context.Context, task string) (string, error) {
	var history []string

	for step := 0; step < a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		state, err := a.driver.Snapshot(ctx)
		if err != nil {
			// A dead tab cannot recover mid-task.
			return a.inBandError(fmt.Errorf("failed to observe page: %w", err)), nil
		}

		raw, err := a.llm.GenerateResponse(ctx, llmclient.GenerationRequest{
			SystemPrompt:    agentSystemPrompt,
			UserPrompt:      a.buildPrompt(task, state, history),
			Temperature:     a.temperature,
			ForceJSONFormat: true,
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return a.inBandError(fmt.Errorf("model request failed: %w", err)), nil
		}

		dec, err := parseDecision(raw)
		if err != nil {
			history = append(history, fmt.Sprintf("step %d: your previous response was not a valid action: %v", step+1, err))
			continue
		}

		a.logger.Debug("agent step",
			zap.Int("step", step+1),
			zap.String("action", dec.Action),
			zap.String("url", dec.URL),
			zap.String("selector", dec.Selector))

		if dec.Action == "finish" {
			return dec.Result, nil
		}

		observation, err := a.act(ctx, dec)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			// Action failures are fed back so the model can self-correct.
			history = append(history, fmt.Sprintf("step %d: %s failed: %v", step+1, dec.Action, err))
			continue
		}
		history = append(history, fmt.Sprintf("step %d: %s ok. %s", step+1, dec.Action, observation))
	}

	return a.inBandError(fmt.Errorf("task did not finish within %d steps", a.maxSteps)), nil
}

func (a *Agent) act(ctx context.Context, dec decision) (string, error) {
	switch dec.Action {
	case "navigate":
		if err := a.driver.Navigate(ctx, dec.URL); err != nil {
			return "", err
		}
		// Navigation is where challenge interstitials appear.
		if a.gate != nil {
			if err := a.gate.Wait(ctx); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("navigated to %s", dec.URL), nil
	case "click":
		if err := a.driver.Click(ctx, dec.Selector); err != nil {
			return "", err
		}
		return fmt.Sprintf("clicked %s", dec.Selector), nil
	case "type":
		if err := a.driver.Type(ctx, dec.Selector, dec.Text); err != nil {
			return "", err
		}
		return fmt.Sprintf("typed into %s", dec.Selector), nil
	case "extract":
		text, err := a.driver.Extract(ctx, dec.Selector)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("extracted from %s: %s", dec.Selector, truncate(text, 2000)), nil
	default:
		return "", fmt.Errorf("unknown action %q", dec.Action)
	}
}

func (a *Agent) buildPrompt(task string, state PageState, history []string) string {
	var b strings.Builder
	b.WriteString("Task:\n")
	b.WriteString(task)
	b.WriteString("\n\nCurrent page:\n")
	fmt.Fprintf(&b, "URL: %s\nTitle: %s\n", state.URL, state.Title)
	if state.Content != "" {
		fmt.Fprintf(&b, "Visible content:\n%s\n", truncate(state.Content, 8000))
	}
	if len(history) > 0 {
		b.WriteString("\nHistory:\n")
		for _, h := range history {
			b.WriteString(h)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nChoose your next action.")
	return b.String()
}

// inBandError folds a task failure into the payload contract.
func (a *Agent) inBandError(err error) string {
	a.logger.Warn("automation task failed", zap.Error(err))
	out, merr := json.MarshalToString(map[string]string{"error": err.Error()})
	if merr != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return out
}

// parseDecision tolerates models that wrap the JSON in a markdown fence.
func parseDecision(raw string) (decision, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var dec decision
	if err := json.UnmarshalFromString(trimmed, &dec); err != nil {
		return decision{}, err
	}
	if dec.Action == "" {
		return decision{}, fmt.Errorf("decision has no action")
	}
	return dec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
