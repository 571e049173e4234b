package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case RecommendationsMsg:
		return m.handleRecommendations(msg)
	case PaperMsg:
		return m.handlePaper(msg)
	case ActionDoneMsg:
		return m.handleActionDone(msg)
	case TickMsg:
		// Only refresh the list while browsing; detail view stays put
		if m.State == StateBrowsing || m.State == StateLoading {
			return m, tea.Batch(fetchRecommendations(m.Client, m.UserID), tickCmd())
		}
		return m, tickCmd()
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.State == StateDetail {
			m.State = StateBrowsing
			m.Paper = nil
			return m, nil
		}
		return m, tea.Quit

	case "up", "k":
		if m.State == StateBrowsing && m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil

	case "down", "j":
		if m.State == StateBrowsing && m.Cursor < len(m.Recommendations)-1 {
			m.Cursor++
		}
		return m, nil

	case "enter":
		if m.State == StateBrowsing {
			if rec := m.Selected(); rec != nil {
				m.State = StateDetail
				return m, tea.Batch(
					fetchPaper(m.Client, rec.PaperID),
					markRead(m.Client, m.UserID, rec.PaperID),
				)
			}
		}
		return m, nil

	case "b", "B":
		if rec := m.Selected(); rec != nil && m.State != StateError {
			rec.Bookmarked = !rec.Bookmarked
			return m, toggleBookmark(m.Client, m.UserID, rec.PaperID, rec.Bookmarked)
		}
		return m, nil

	case "d", "D":
		if m.State == StateBrowsing {
			m = m.AddLog("Triggering daily crawl and scoring pass...")
			return m, triggerDailyRun(m.Client)
		}
		return m, nil

	case "r", "R":
		m = m.AddLog("Refreshing recommendations...")
		return m, fetchRecommendations(m.Client, m.UserID)
	}
	return m, nil
}

// handleRecommendations processes a fresh recommendation list
func (m Model) handleRecommendations(msg RecommendationsMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Connected = false
		if m.State == StateLoading {
			m.State = StateError
			m.Err = msg.Err
		}
		return m, nil
	}

	m.Connected = true
	m.Err = nil
	if m.State == StateLoading || m.State == StateError {
		m.State = StateBrowsing
	}

	// Keep the cursor on a valid row across refreshes
	m.Recommendations = msg.Recommendations
	if m.Cursor >= len(m.Recommendations) {
		m.Cursor = len(m.Recommendations) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	return m, nil
}

// handlePaper processes a paper detail response
func (m Model) handlePaper(msg PaperMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.State = StateBrowsing
		m = m.AddLog(fmt.Sprintf("Failed to load paper: %v", msg.Err))
		return m, nil
	}
	m.Paper = msg.Paper
	return m, nil
}

// handleActionDone processes read/bookmark/run completions
func (m Model) handleActionDone(msg ActionDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m = m.AddLog(fmt.Sprintf("Action %s failed: %v", msg.Action, msg.Err))
		return m, nil
	}
	switch msg.Action {
	case "run":
		m = m.AddLog("Daily run started on the server")
	case "bookmark":
		m = m.AddLog("Bookmark updated")
	}
	return m, nil
}
