package tui

import (
	"time"

	"paperbot/types"
)

// Messages for the tea program (polling-based)

// RecommendationsMsg is sent when the recommendation list arrives
type RecommendationsMsg struct {
	Recommendations []*types.Recommendation
	Err             error
}

// PaperMsg is sent when a paper's details arrive
type PaperMsg struct {
	Paper *types.Paper
	Err   error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}

// ActionDoneMsg is sent after a read/bookmark/run request completes
type ActionDoneMsg struct {
	Action string
	Err    error
}
