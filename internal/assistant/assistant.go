package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dkaplan88/hireflow/internal/metrics"
)

const helpText = `I didn't understand that command. Here's what I can do:
- Log in to the employer dashboard
- Open a job post (e.g. "open the QA Engineer job post")
- Get applicants for a job (e.g. "show applicants for the QA Engineer job")
- Send interview invites (to one applicant or all of them)
- Update an applicant's status (e.g. "update the status of John Doe to Interviewed")
- Search for jobs (e.g. "search for engineering jobs")
- Create a new job post
- Open a new tab
- Switch between tabs (by number or by title)`

// Dependencies are the collaborators one Assistant needs. Automation is
// required; the rest degrade gracefully when nil.
type Dependencies struct {
	Automation Automation
	Tabs       TabRegistry
	Notifier   Notifier
	Recorder   Recorder

	// Timeout bounds each automation call. Zero means no bound.
	Timeout      time.Duration
	DashboardURL string
}

// Recorder persists command/response pairs for a session transcript.
type Recorder interface {
	Record(ctx context.Context, sessionID, command, response string) error
}

// Assistant interprets free-text commands for one session and drives the
// automation capability. It is not safe for concurrent use; the Manager
// serializes commands per session.
type Assistant struct {
	session    *Session
	classifier *Classifier
	deps       Dependencies
	logger     *zap.Logger
}

// New builds an Assistant for the given session ID.
func New(sessionID string, deps Dependencies, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		session:    &Session{ID: sessionID},
		classifier: NewClassifier(),
		deps:       deps,
		logger:     logger.With(zap.String("session_id", sessionID)),
	}
}

// Session exposes the current session state, primarily for tests and the
// status endpoint.
func (a *Assistant) Session() *Session {
	return a.session
}

// ProcessCommand classifies and executes one command, returning the response
// text. It never returns an error: every failure, including automation and
// tab failures, is folded into a human-readable response so the conversation
// keeps flowing.
func (a *Assistant) ProcessCommand(ctx context.Context, command string) string {
	start := time.Now()
	cls := a.classifier.Classify(command)

	a.logger.Info("classified command",
		zap.String("intent", string(cls.Intent.Kind)),
		zap.String("rule", cls.Rule),
		zap.Strings("matched_rules", cls.Matches))

	response := a.dispatch(ctx, cls.Intent)
	metrics.ObserveCommand(string(cls.Intent.Kind), time.Since(start))

	if a.deps.Recorder != nil {
		if err := a.deps.Recorder.Record(ctx, a.session.ID, command, response); err != nil {
			a.logger.Warn("failed to record transcript entry", zap.Error(err))
		}
	}
	if a.deps.Notifier != nil {
		a.deps.Notifier.Notify(ctx, a.session.ID, response)
	}
	return response
}

func (a *Assistant) dispatch(ctx context.Context, intent Intent) string {
	if intent.Kind == IntentUnrecognized {
		return helpText
	}
	if intent.Kind != IntentLogin && !a.session.Authenticated {
		return "Please log in first."
	}

	switch intent.Kind {
	case IntentLogin:
		return a.handleLogin(ctx)
	case IntentOpenJob:
		return a.handleOpenJob(ctx, intent)
	case IntentGetApplicants:
		return a.handleGetApplicants(ctx, intent)
	case IntentSendInvite:
		return a.handleSendInvite(ctx, intent)
	case IntentUpdateStatus:
		return a.handleUpdateStatus(ctx, intent)
	case IntentSearchJobs:
		return a.handleSearchJobs(ctx, intent)
	case IntentCreateJob:
		return a.handleCreateJob(ctx, intent)
	case IntentOpenNewTab:
		return a.handleOpenNewTab(ctx, intent)
	case IntentSwitchTab:
		return a.handleSwitchTab(ctx, intent)
	default:
		return helpText
	}
}

// perform runs one automation task under the configured timeout and folds
// every failure path into an AutomationResult.
func (a *Assistant) perform(ctx context.Context, task string) AutomationResult {
	if a.deps.Automation == nil {
		return errorResult(fmt.Errorf("automation is not available"))
	}
	if a.deps.Notifier != nil {
		// Progress note only; correctness never depends on its delivery.
		a.deps.Notifier.Notify(ctx, a.session.ID, "Working on it. This may take a moment...")
	}
	if a.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.deps.Timeout)
		defer cancel()
	}

	raw, err := a.deps.Automation.Perform(ctx, task)
	if err != nil {
		a.logger.Error("automation call failed", zap.Error(err))
		return errorResult(err)
	}
	return ParseResult(raw)
}

func (a *Assistant) handleLogin(ctx context.Context) string {
	if a.session.Authenticated {
		return "You are already logged in."
	}

	res := a.perform(ctx, loginTask(a.deps.DashboardURL))
	if msg, ok := res.ErrorMessage(); ok {
		return fmt.Sprintf("Failed to log in: %s", msg)
	}

	a.session.Authenticated = true
	return "Successfully logged in to the employer dashboard."
}

func (a *Assistant) handleOpenJob(ctx context.Context, intent Intent) string {
	if intent.InNewTab {
		if a.deps.Tabs == nil {
			return "Tab management is not available."
		}
		if _, err := a.deps.Tabs.OpenTab(ctx, a.deps.DashboardURL); err != nil {
			return fmt.Sprintf("Failed to open a new tab: %s", err)
		}
	}

	task := openJobTask(intent.JobTitle)
	if intent.InNewTab {
		task = openJobInTabTask(intent.JobTitle)
	}

	res := a.perform(ctx, task)
	if msg, ok := res.ErrorMessage(); ok {
		return fmt.Sprintf("Failed to open job post: %s", msg)
	}

	if res.IsStructured() && !res.IsList() {
		var job JobRef
		if err := res.Decode(&job); err == nil && job.Title != "" {
			a.session.CurrentJob = &job
			a.session.CurrentApplicants = nil
			if job.JobID != "" {
				return fmt.Sprintf("Successfully opened the job post '%s' (ID: %s).", job.Title, job.JobID)
			}
			return fmt.Sprintf("Successfully opened the job post '%s'.", job.Title)
		}
	}

	// The agent completed but did not return the structured summary; pass
	// its report through untouched and leave the session as it was.
	return fmt.Sprintf("Job post result: %s", res.Text())
}

func (a *Assistant) handleGetApplicants(ctx context.Context, intent Intent) string {
	res := a.perform(ctx, getApplicantsTask(intent.JobTitle))
	if msg, ok := res.ErrorMessage(); ok {
		return fmt.Sprintf("Failed to get applicants: %s", msg)
	}

	if res.IsList() {
		var applicants []ApplicantRecord
		if err := res.Decode(&applicants); err == nil {
			a.session.CurrentApplicants = applicants
			return fmt.Sprintf("Found %d applicants for '%s'.", len(applicants), intent.JobTitle)
		}
	}
	return fmt.Sprintf("Applicants result: %s", res.Text())
}

func (a *Assistant) handleSendInvite(ctx context.Context, intent Intent) string {
	res := a.perform(ctx, sendInviteTask(intent.JobTitle, intent.Applicant))
	if msg, ok := res.ErrorMessage(); ok {
		return fmt.Sprintf("Failed to send invite: %s", msg)
	}

	if intent.Applicant != "" {
		return fmt.Sprintf("Successfully sent an interview invite to %s for '%s'.", intent.Applicant, intent.JobTitle)
	}
	return fmt.Sprintf("Successfully sent interview invites to all applicants for '%s'.", intent.JobTitle)
}

func (a *Assistant) handleUpdateStatus(ctx context.Context, intent Intent) string {
	if a.session.CurrentJob == nil {
		return "Please open a job post first."
	}

	res := a.perform(ctx, updateStatusTask(a.session.CurrentJob.Title, intent.Applicant, intent.NewStatus))
	if msg, ok := res.ErrorMessage(); ok {
		return fmt.Sprintf("Failed to update status: %s", msg)
	}

	// Keep the cached snapshot consistent with what the dashboard now shows.
	for i := range a.session.CurrentApplicants {
		if strings.EqualFold(a.session.CurrentApplicants[i].Name, intent.Applicant) {
			a.session.CurrentApplicants[i].Status = ApplicantStatus(intent.NewStatus)
		}
	}
	return fmt.Sprintf("Successfully updated the status of %s to %s.", intent.Applicant, intent.NewStatus)
}

func (a *Assistant) handleSearchJobs(ctx context.Context, intent Intent) string {
	res := a.perform(ctx, searchJobsTask(intent.Query))
	if msg, ok := res.ErrorMessage(); ok {
		return fmt.Sprintf("Failed to search for jobs: %s", msg)
	}

	if res.IsList() {
		var jobs []JobRef
		if err := res.Decode(&jobs); err == nil {
			return fmt.Sprintf("Found %d jobs matching '%s'.", len(jobs), intent.Query)
		}
	}
	return fmt.Sprintf("Search result: %s", res.Text())
}

func (a *Assistant) handleCreateJob(ctx context.Context, intent Intent) string {
	task, err := createJobTask(intent.JobTitle)
	if err != nil {
		return fmt.Sprintf("Failed to create job post: %s", err)
	}

	res := a.perform(ctx, task)
	if msg, ok := res.ErrorMessage(); ok {
		return fmt.Sprintf("Failed to create job post: %s", msg)
	}
	return fmt.Sprintf("Successfully created the job post '%s'. %s", intent.JobTitle, res.Text())
}

func (a *Assistant) handleOpenNewTab(ctx context.Context, intent Intent) string {
	if a.deps.Tabs == nil {
		return "Tab management is not available."
	}

	info, err := a.deps.Tabs.OpenTab(ctx, intent.URL)
	if err != nil {
		return fmt.Sprintf("Failed to open a new tab: %s", err)
	}
	if intent.URL != "" {
		return fmt.Sprintf("Opened a new tab (tab %d) at %s.", info.Index+1, intent.URL)
	}
	return fmt.Sprintf("Opened a new tab (tab %d).", info.Index+1)
}

func (a *Assistant) handleSwitchTab(ctx context.Context, intent Intent) string {
	if a.deps.Tabs == nil {
		return "Tab management is not available."
	}

	target := TabTarget{Index: intent.TabIndex, Title: intent.TabTitle}
	info, err := a.deps.Tabs.SwitchTab(ctx, target)
	if err != nil {
		return fmt.Sprintf("Failed to switch tabs: %s", err)
	}
	if info.Title != "" {
		return fmt.Sprintf("Switched to tab %d: %s.", info.Index+1, info.Title)
	}
	return fmt.Sprintf("Switched to tab %d.", info.Index+1)
}
