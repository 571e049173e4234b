package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"paperbot/types"
)

// State represents the application state machine
type State string

const (
	StateLoading  State = "loading"
	StateBrowsing State = "browsing"
	StateDetail   State = "detail"
	StateError    State = "error"
)

// Model represents the TUI client state (thin client over the HTTP API)
type Model struct {
	Client *APIClient
	UserID string

	State           State
	Recommendations []*types.Recommendation
	Cursor          int
	Paper           *types.Paper
	Logs            []string
	Err             error

	// Connection status
	Connected bool
}

// NewModel creates a new TUI model
func NewModel(apiURL, userID string) Model {
	return Model{
		Client: NewAPIClient(apiURL),
		UserID: userID,
		State:  StateLoading,
		Logs:   make([]string, 0),
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	// Load the list immediately, then keep polling
	return tea.Batch(
		fetchRecommendations(m.Client, m.UserID),
		tickCmd(),
	)
}

// AddLog appends one timestamped activity line, keeping the last 5
func (m Model) AddLog(msg string) Model {
	m.Logs = append(m.Logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg))
	if len(m.Logs) > 5 {
		m.Logs = m.Logs[len(m.Logs)-5:]
	}
	return m
}

// Selected returns the recommendation under the cursor, or nil
func (m Model) Selected() *types.Recommendation {
	if m.Cursor < 0 || m.Cursor >= len(m.Recommendations) {
		return nil
	}
	return m.Recommendations[m.Cursor]
}
