package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"findmovie/internal/domain"
	"findmovie/internal/service"
)

// RecommendPort is the TUI-facing subset of the recommendation service.
type RecommendPort interface {
	Query(title string, n int) service.Result
	Titles() []string
	Stats() domain.Stats
}

type mode int

const (
	modeSelect mode = iota
	modeResults
)

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  RecommendPort
	input    textinput.Model
	viewport viewport.Model
	titles   []string
	matches  []string
	cursor   int
	count    int
	maxCount int
	mode     mode
	result   service.Result
	stats    domain.Stats
	status   string
	ready    bool
}

// New creates a new TUI model instance. count is the initial number of
// recommendations; it can be changed between 1 and maxCount.
func New(svc RecommendPort, count, maxCount int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type to filter movies, Enter to recommend"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if maxCount < 1 {
		maxCount = 1
	}
	m := Model{
		service:  svc,
		input:    ti,
		viewport: vp,
		titles:   svc.Titles(),
		count:    clampCount(count, maxCount),
		maxCount: maxCount,
		stats:    svc.Stats(),
		status:   "Ready. Type to search.",
	}
	m.matches = filterTitles(m.titles, "")
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + stats, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if len(m.matches) == 0 {
				m.status = "No movie matches the filter."
				return m, nil
			}
			m.runQuery(m.matches[m.cursor])
			return m, nil
		case "esc":
			if m.mode == modeResults {
				m.mode = modeSelect
				m.status = "Ready. Type to search."
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		case "down":
			if len(m.matches) > 0 {
				m.cursor = (m.cursor + 1) % len(m.matches)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		case "up":
			if len(m.matches) > 0 {
				m.cursor = (m.cursor - 1 + len(m.matches)) % len(m.matches)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		case "right", "ctrl+n":
			m.setCount(m.count + 1)
			return m, nil
		case "left", "ctrl+p":
			m.setCount(m.count - 1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.mode = modeSelect
		m.matches = filterTitles(m.titles, m.input.Value())
		m.cursor = 0
		m.viewport.SetContent(m.renderBody())
	}
	return m, cmd
}

func (m *Model) setCount(n int) {
	m.count = clampCount(n, m.maxCount)
	m.status = fmt.Sprintf("Recommendations: %d", m.count)
	if m.mode == modeResults {
		m.runQuery(m.result.Query)
	}
}

func (m *Model) runQuery(title string) {
	m.result = m.service.Query(title, m.count)
	m.mode = modeResults
	if len(m.result.Recommendations) == 0 {
		m.status = fmt.Sprintf("Not enough data for %q", title)
	} else {
		m.status = fmt.Sprintf("Movies similar to %q", title)
	}
	m.viewport.SetContent(m.renderBody())
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("findmovie")
	stats := statsStyle.Render(fmt.Sprintf("Movies: %d   Users: %d   Ratings: %d   Results: %d/%d",
		m.stats.Items, m.stats.Users, m.stats.Ratings, m.count, m.maxCount))
	body := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + stats + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	if m.mode == modeResults {
		return renderResults(m.result, max(10, m.viewport.Width-4))
	}
	if len(m.matches) == 0 {
		return "No matching movies."
	}
	start := 0
	if h := m.viewport.Height; h > 0 && m.cursor >= h {
		start = m.cursor - h + 1
	}
	var b strings.Builder
	for i := start; i < len(m.matches); i++ {
		line := "  " + m.matches[i]
		if i == m.cursor {
			line = selectedStyle.Render("▸ " + m.matches[i])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func clampCount(n, maxCount int) int {
	if n < 1 {
		return 1
	}
	if n > maxCount {
		return maxCount
	}
	return n
}

func filterTitles(titles []string, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return titles
	}
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if strings.Contains(strings.ToLower(t), q) {
			out = append(out, t)
		}
	}
	return out
}
