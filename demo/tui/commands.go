package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// fetchRecommendations creates a command to load the recommendation list
func fetchRecommendations(client *APIClient, userID string) tea.Cmd {
	return func() tea.Msg {
		recs, err := client.Recommendations(userID)
		return RecommendationsMsg{Recommendations: recs, Err: err}
	}
}

// fetchPaper creates a command to load one paper's details
func fetchPaper(client *APIClient, paperID string) tea.Cmd {
	return func() tea.Msg {
		paper, err := client.Paper(paperID)
		return PaperMsg{Paper: paper, Err: err}
	}
}

// markRead creates a command to mark the selected recommendation read
func markRead(client *APIClient, userID, paperID string) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: "read", Err: client.MarkRead(userID, paperID)}
	}
}

// toggleBookmark creates a command to flip the bookmark flag
func toggleBookmark(client *APIClient, userID, paperID string, bookmarked bool) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: "bookmark", Err: client.ToggleBookmark(userID, paperID, bookmarked)}
	}
}

// triggerDailyRun creates a command to start a crawl and scoring pass
func triggerDailyRun(client *APIClient) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: "run", Err: client.TriggerDailyRun()}
	}
}

// tickCmd creates a command that ticks every 2s for polling
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
