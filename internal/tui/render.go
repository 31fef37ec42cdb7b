package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"findmovie/internal/service"
)

var (
	accent         = lipgloss.Color("205")
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statsStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	selectedStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	barStyle       = lipgloss.NewStyle().Foreground(accent)
	scoreStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

// renderResults draws one line per recommendation: title, score as a
// percentage and a bar scaled to the score.
func renderResults(res service.Result, width int) string {
	if len(res.Recommendations) == 0 {
		msg := fmt.Sprintf("Not enough data for %q.", res.Query)
		if res.Reason != "" {
			msg += "\n(" + res.Reason + ")"
		}
		return msg
	}
	titleWidth := 0
	for _, r := range res.Recommendations {
		titleWidth = max(titleWidth, lipgloss.Width(r.Title))
	}
	titleWidth = min(titleWidth, max(10, width/2))
	barWidth := max(5, width-titleWidth-12)

	var b strings.Builder
	fmt.Fprintf(&b, "Similar to %s\n\n", selectedStyle.Render(res.Query))
	for i, r := range res.Recommendations {
		fmt.Fprintf(&b, "%2d. %-*s %s %s\n",
			i+1, titleWidth, truncate(r.Title, titleWidth),
			scoreStyle.Render(formatPercent(r.Score)),
			barStyle.Render(bar(r.Score, barWidth)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPercent(score float64) string {
	return fmt.Sprintf("%6.2f%%", score*100)
}

// bar renders a horizontal bar of width cells filled in proportion to score.
func bar(score float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(math.Max(0, math.Min(1, score)) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
