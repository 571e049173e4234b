package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	// Title
	b.WriteString(TitleStyle.Render("📚 PaperBot Recommendations"))
	b.WriteString("\n\n")

	if !m.Connected && m.State == StateError {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("❌ Not connected to API: %v", m.Err)))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("Press 'r' to retry | Press 'q' or Ctrl+C to quit"))
		return b.String()
	}

	switch m.State {
	case StateLoading:
		b.WriteString(StatusStyle.Render("⏳ Loading recommendations..."))
		b.WriteString("\n")
	case StateDetail:
		b.WriteString(m.renderDetail())
	default:
		b.WriteString(m.renderList())
	}

	// Logs
	if len(m.Logs) > 0 {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		for _, logMsg := range m.Logs {
			b.WriteString(InfoStyle.Render("   " + logMsg))
			b.WriteString("\n")
		}
	}

	// Help text
	b.WriteString("\n")
	if m.State == StateDetail {
		b.WriteString(InfoStyle.Render("Press 'q' to go back | 'b' to bookmark"))
	} else {
		b.WriteString(InfoStyle.Render("↑/↓ select | enter: open | b: bookmark | d: run daily pass | r: refresh | q: quit"))
	}
	return b.String()
}

// renderList draws the recommendation table
func (m Model) renderList() string {
	if len(m.Recommendations) == 0 {
		return InfoStyle.Render("No recommendations yet. Press 'd' to run a crawl and scoring pass.") + "\n"
	}

	var b strings.Builder
	b.WriteString(InfoStyle.Render(fmt.Sprintf("📊 %d recommendations for %s", len(m.Recommendations), m.UserID)))
	b.WriteString("\n\n")

	for i, rec := range m.Recommendations {
		marker := "  "
		if rec.Bookmarked {
			marker = "⭐"
		} else if !rec.Read {
			marker = "● "
		}

		line := fmt.Sprintf("%s %-14s %5.1f  %s", marker, rec.PaperID, rec.OverallScore, rec.Reason)
		if i == m.Cursor {
			b.WriteString(SelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderDetail draws one paper with its scores
func (m Model) renderDetail() string {
	rec := m.Selected()
	if rec == nil {
		return ErrorStyle.Render("Nothing selected")
	}

	var b strings.Builder
	if m.Paper != nil {
		b.WriteString(HighlightStyle.Render(m.Paper.Title))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Category: %s\n", m.Paper.PrimaryCategory))
		b.WriteString(fmt.Sprintf("Published: %s\n", m.Paper.Published.Format("2006-01-02")))
		if m.Paper.PDFURL != "" {
			b.WriteString(fmt.Sprintf("PDF: %s\n", m.Paper.PDFURL))
		}
		b.WriteString("\n")

		abstract := m.Paper.Abstract
		if len(abstract) > 500 {
			abstract = abstract[:500] + "..."
		}
		b.WriteString(InfoStyle.Render(abstract))
		b.WriteString("\n\n")
	} else {
		b.WriteString(StatusStyle.Render("⏳ Loading paper details..."))
		b.WriteString("\n\n")
	}

	scores := fmt.Sprintf("Overall: %.1f | Relevance: %.1f | Novelty: %.1f | Hot: %.1f",
		rec.OverallScore, rec.RelevanceScore, rec.NoveltyScore, rec.HotScore)
	b.WriteString(BoxStyle.Render(scores + "\n\n" + rec.Reason))
	b.WriteString("\n")
	return b.String()
}
