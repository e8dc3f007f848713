package assistant

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAutomation scripts Perform responses and records every task it was
// asked to run.
type mockAutomation struct {
	mu        sync.Mutex
	responses []string
	err       error
	tasks     []string
}

func (m *mockAutomation) Perform(_ context.Context, task string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "Done.", nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *mockAutomation) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

type mockTabs struct {
	mu       sync.Mutex
	tabs     []TabInfo
	switched []TabTarget
	openErr  error
	swErr    error
}

func (m *mockTabs) OpenTab(_ context.Context, url string) (TabInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return TabInfo{}, m.openErr
	}
	info := TabInfo{Index: len(m.tabs), URL: url}
	m.tabs = append(m.tabs, info)
	return info, nil
}

func (m *mockTabs) SwitchTab(_ context.Context, target TabTarget) (TabInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.swErr != nil {
		return TabInfo{}, m.swErr
	}
	m.switched = append(m.switched, target)
	if target.Index >= 0 && target.Index < len(m.tabs) {
		return m.tabs[target.Index], nil
	}
	return TabInfo{Index: 0, Title: target.Title}, nil
}

func (m *mockTabs) Tabs(_ context.Context) ([]TabInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TabInfo(nil), m.tabs...), nil
}

func setupAssistant(t *testing.T, auto *mockAutomation) (*Assistant, *mockTabs) {
	t.Helper()
	tabs := &mockTabs{}
	a := New("test-session", Dependencies{
		Automation:   auto,
		Tabs:         tabs,
		DashboardURL: "https://employers.example.com/",
	}, zap.NewNop())
	return a, tabs
}

func login(t *testing.T, a *Assistant) {
	t.Helper()
	resp := a.ProcessCommand(context.Background(), "log in")
	require.Equal(t, "Successfully logged in to the employer dashboard.", resp)
	require.True(t, a.Session().Authenticated)
}

func TestProcessCommandLoginGuard(t *testing.T) {
	t.Parallel()

	auto := &mockAutomation{}
	a, _ := setupAssistant(t, auto)

	guarded := []string{
		"open the QA Engineer job post",
		"show applicants for the QA Engineer job",
		"send invites to all applicants for the QA Engineer job",
		"update the status of John Doe to Interviewed",
		"search for engineering jobs",
		"create a new job post for QA Engineer",
		"open a new tab",
		"switch to tab 2",
	}
	for _, cmd := range guarded {
		resp := a.ProcessCommand(context.Background(), cmd)
		assert.Equal(t, "Please log in first.", resp, cmd)
	}
	// The guard must reject before the automation layer is ever invoked.
	assert.Zero(t, auto.callCount())
}

func TestProcessCommandLogin(t *testing.T) {
	t.Parallel()

	t.Run("success flips the authenticated flag", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{"Logged in successfully."}}
		a, _ := setupAssistant(t, auto)

		resp := a.ProcessCommand(context.Background(), "log in")
		assert.Equal(t, "Successfully logged in to the employer dashboard.", resp)
		assert.True(t, a.Session().Authenticated)
		require.Equal(t, 1, auto.callCount())
		assert.Contains(t, auto.tasks[0], "https://employers.example.com/")
	})

	t.Run("in-band error leaves the session unauthenticated", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{`{"error": "captcha not solved"}`}}
		a, _ := setupAssistant(t, auto)

		resp := a.ProcessCommand(context.Background(), "log in")
		assert.Equal(t, "Failed to log in: captcha not solved", resp)
		assert.False(t, a.Session().Authenticated)
	})

	t.Run("second login is a no-op", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{}
		a, _ := setupAssistant(t, auto)
		login(t, a)

		resp := a.ProcessCommand(context.Background(), "log in")
		assert.Equal(t, "You are already logged in.", resp)
		assert.Equal(t, 1, auto.callCount())
	})
}

func TestProcessCommandOpenJob(t *testing.T) {
	t.Parallel()

	t.Run("structured result becomes the current job", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{
			"Logged in.",
			`{"job_id": "123", "title": "QA Engineer", "status": "active", "applicants_count": 7}`,
		}}
		a, _ := setupAssistant(t, auto)
		login(t, a)

		resp := a.ProcessCommand(context.Background(), "open the QA Engineer job post")
		assert.Contains(t, resp, "123")
		require.NotNil(t, a.Session().CurrentJob)
		assert.Equal(t, "QA Engineer", a.Session().CurrentJob.Title)
		assert.Equal(t, 7, a.Session().CurrentJob.ApplicantsCount)
	})

	t.Run("in-band error leaves the current job unset", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{
			"Logged in.",
			`{"error": "job post not found"}`,
		}}
		a, _ := setupAssistant(t, auto)
		login(t, a)

		resp := a.ProcessCommand(context.Background(), "open the Ghost Role job post")
		assert.Equal(t, "Failed to open job post: job post not found", resp)
		assert.Nil(t, a.Session().CurrentJob)
	})

	t.Run("plain text result is passed through", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{
			"Logged in.",
			"Opened the job post.",
		}}
		a, _ := setupAssistant(t, auto)
		login(t, a)

		resp := a.ProcessCommand(context.Background(), "open the QA Engineer job post")
		assert.Equal(t, "Job post result: Opened the job post.", resp)
		// Unstructured results are passed through without touching the session.
		assert.Nil(t, a.Session().CurrentJob)
	})

	t.Run("in a new tab opens a tab first", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{
			"Logged in.",
			`{"job_id": "9", "title": "QA Engineer"}`,
		}}
		a, tabs := setupAssistant(t, auto)
		login(t, a)

		resp := a.ProcessCommand(context.Background(), "open the QA Engineer job post in a new tab")
		assert.Contains(t, resp, "QA Engineer")
		assert.Len(t, tabs.tabs, 1)
	})

	t.Run("opening a job invalidates cached applicants", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{
			"Logged in.",
			`[{"name": "John Doe", "position": "QA Engineer", "status": "New"}]`,
			`{"job_id": "2", "title": "Backend Developer"}`,
		}}
		a, _ := setupAssistant(t, auto)
		login(t, a)

		a.ProcessCommand(context.Background(), "show applicants for the QA Engineer job")
		require.Len(t, a.Session().CurrentApplicants, 1)

		a.ProcessCommand(context.Background(), "open the Backend Developer job post")
		assert.Empty(t, a.Session().CurrentApplicants)
	})
}

func TestProcessCommandGetApplicants(t *testing.T) {
	t.Parallel()

	t.Run("list result replaces the snapshot wholesale", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{
			"Logged in.",
			`[{"name": "John Doe", "status": "New"}, {"name": "Jane Smith", "status": "Reviewed"}]`,
			`[{"name": "Only One", "status": "New"}]`,
		}}
		a, _ := setupAssistant(t, auto)
		login(t, a)

		resp := a.ProcessCommand(context.Background(), "show applicants for the QA Engineer job")
		assert.Equal(t, "Found 2 applicants for 'QA Engineer'.", resp)
		require.Len(t, a.Session().CurrentApplicants, 2)

		a.ProcessCommand(context.Background(), "show applicants for the QA Engineer job")
		assert.Len(t, a.Session().CurrentApplicants, 1)
	})

	t.Run("error result leaves the snapshot untouched", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{
			"Logged in.",
			`[{"name": "John Doe", "status": "New"}]`,
			`{"error": "page timed out"}`,
		}}
		a, _ := setupAssistant(t, auto)
		login(t, a)

		a.ProcessCommand(context.Background(), "show applicants for the QA Engineer job")
		require.Len(t, a.Session().CurrentApplicants, 1)

		resp := a.ProcessCommand(context.Background(), "show applicants for the QA Engineer job")
		assert.Equal(t, "Failed to get applicants: page timed out", resp)
		assert.Len(t, a.Session().CurrentApplicants, 1)
	})
}

func TestProcessCommandUpdateStatus(t *testing.T) {
	t.Parallel()

	t.Run("requires a current job", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{}
		a, _ := setupAssistant(t, auto)
		login(t, a)

		resp := a.ProcessCommand(context.Background(), "update the status of John Doe to Interviewed")
		assert.Equal(t, "Please open a job post first.", resp)
		assert.Equal(t, 1, auto.callCount())
	})

	t.Run("updates the cached applicant record", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{responses: []string{
			"Logged in.",
			`{"job_id": "1", "title": "QA Engineer"}`,
			`[{"name": "John Doe", "status": "New"}]`,
			"Status updated.",
		}}
		a, _ := setupAssistant(t, auto)
		login(t, a)
		a.ProcessCommand(context.Background(), "open the QA Engineer job post")
		a.ProcessCommand(context.Background(), "show applicants for the QA Engineer job")

		resp := a.ProcessCommand(context.Background(), "update the status of John Doe to Interviewed")
		assert.Equal(t, "Successfully updated the status of John Doe to Interviewed.", resp)
		require.Len(t, a.Session().CurrentApplicants, 1)
		assert.Equal(t, StatusInterviewed, a.Session().CurrentApplicants[0].Status)
	})
}

func TestProcessCommandSendInvite(t *testing.T) {
	t.Parallel()

	auto := &mockAutomation{responses: []string{"Logged in.", "Invite sent."}}
	a, _ := setupAssistant(t, auto)
	login(t, a)

	resp := a.ProcessCommand(context.Background(), "send an interview invite to John Doe for the QA Engineer role")
	assert.Equal(t, "Successfully sent an interview invite to John Doe for 'QA Engineer'.", resp)
	require.Equal(t, 2, auto.callCount())
	assert.Contains(t, auto.tasks[1], "John Doe")
}

func TestProcessCommandSearchJobs(t *testing.T) {
	t.Parallel()

	auto := &mockAutomation{responses: []string{
		"Logged in.",
		`[{"title": "QA Engineer"}, {"title": "QA Lead"}]`,
	}}
	a, _ := setupAssistant(t, auto)
	login(t, a)

	resp := a.ProcessCommand(context.Background(), "search for jobs matching QA")
	assert.Equal(t, "Found 2 jobs matching 'QA'.", resp)
}

func TestProcessCommandTabs(t *testing.T) {
	t.Parallel()

	t.Run("open new tab reports a one-based number", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{}
		a, tabs := setupAssistant(t, auto)
		login(t, a)

		resp := a.ProcessCommand(context.Background(), "open a new tab")
		assert.Equal(t, "Opened a new tab (tab 1).", resp)
		assert.Len(t, tabs.tabs, 1)
	})

	t.Run("switch tab normalizes the spoken number", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{}
		a, tabs := setupAssistant(t, auto)
		login(t, a)
		a.ProcessCommand(context.Background(), "open a new tab")
		a.ProcessCommand(context.Background(), "open a new tab")

		resp := a.ProcessCommand(context.Background(), "switch to tab 2")
		assert.Equal(t, "Switched to tab 2.", resp)
		require.Len(t, tabs.switched, 1)
		assert.Equal(t, 1, tabs.switched[0].Index)
	})

	t.Run("switch tab failure is folded into the response", func(t *testing.T) {
		t.Parallel()
		auto := &mockAutomation{}
		a, tabs := setupAssistant(t, auto)
		tabs.swErr = assert.AnError
		login(t, a)

		resp := a.ProcessCommand(context.Background(), "switch to tab 5")
		assert.True(t, strings.HasPrefix(resp, "Failed to switch tabs:"), resp)
	})
}

func TestProcessCommandUnrecognized(t *testing.T) {
	t.Parallel()

	auto := &mockAutomation{}
	a, _ := setupAssistant(t, auto)

	resp := a.ProcessCommand(context.Background(), "make me a sandwich")
	assert.Contains(t, resp, "I didn't understand that command")
	assert.Contains(t, resp, "Log in to the employer dashboard")
	// Unrecognized commands get help even before login, without touching the
	// automation layer.
	assert.Zero(t, auto.callCount())
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) Notify(_ context.Context, _ string, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
}

func TestProcessCommandNotifications(t *testing.T) {
	t.Parallel()

	auto := &mockAutomation{}
	notifier := &mockNotifier{}
	a := New("test-session", Dependencies{
		Automation:   auto,
		Notifier:     notifier,
		DashboardURL: "https://employers.example.com/",
	}, zap.NewNop())

	a.ProcessCommand(context.Background(), "log in")

	// A progress note goes out before the automation call, the response after.
	require.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages[0], "Working on it")
	assert.Equal(t, "Successfully logged in to the employer dashboard.", notifier.messages[1])
}

func TestProcessCommandAutomationError(t *testing.T) {
	t.Parallel()

	auto := &mockAutomation{}
	a, _ := setupAssistant(t, auto)
	login(t, a)
	auto.err = assert.AnError

	resp := a.ProcessCommand(context.Background(), "search for jobs matching QA")
	assert.True(t, strings.HasPrefix(resp, "Failed to search for jobs:"), resp)
}
