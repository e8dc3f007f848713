package assistant

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Factory builds the Assistant for a new session on its first command. This
// is where per-session resources (a browser window, a tab registry) are
// allocated.
type Factory func(ctx context.Context, sessionID string) (*Assistant, error)

// managedSession pairs an Assistant with the mutex that serializes its
// commands.
type managedSession struct {
	mu        sync.Mutex
	assistant *Assistant
}

// Manager routes commands to per-session Assistants, creating each on first
// use. Commands for the same session run strictly one at a time; commands for
// different sessions run independently.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession
	factory  Factory
	logger   *zap.Logger
}

// NewManager builds a Manager around the given session factory.
func NewManager(factory Factory, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*managedSession),
		factory:  factory,
		logger:   logger,
	}
}

// HandleCommand executes one command for the given session and returns the
// response text. Factory failures and handler panics are absorbed into
// apologetic responses; the manager itself stays healthy.
func (m *Manager) HandleCommand(ctx context.Context, sessionID, command string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("command handler panicked",
				zap.String("session_id", sessionID),
				zap.Any("panic", r))
			response = "Sorry, something went wrong while handling that command. Please try again."
		}
	}()

	ms, err := m.sessionFor(ctx, sessionID)
	if err != nil {
		m.logger.Error("failed to create session",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return "Sorry, I couldn't start a browser session. Please try again."
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.assistant.ProcessCommand(ctx, command)
}

// SessionIDs lists the known sessions, in no particular order.
func (m *Manager) SessionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) sessionFor(ctx context.Context, sessionID string) (*managedSession, error) {
	m.mu.Lock()
	if ms, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		return ms, nil
	}
	m.mu.Unlock()

	// The factory may be slow (it can launch a browser window), so it runs
	// outside the manager lock. A concurrent first command for the same
	// session may race it; the first registration wins.
	asst, err := m.factory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ms, ok := m.sessions[sessionID]; ok {
		return ms, nil
	}
	ms := &managedSession{assistant: asst}
	m.sessions[sessionID] = ms
	m.logger.Info("created session", zap.String("session_id", sessionID))
	return ms, nil
}
