// Package review is a terminal UI for browsing a user's ranked
// candidates and queueing applications from the list.
package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// QueueFunc creates (or advances) the application for the job and
// returns its resulting state.
type QueueFunc func(jobID string) (model.State, error)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	queuedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// Lines per candidate in the list view (title + subtitle + separator).
const itemHeight = 3

type reviewModel struct {
	user       string
	candidates []model.Candidate
	queue      QueueFunc

	cursor     int
	showDetail bool
	detail     viewport.Model
	queued     map[string]model.State
	status     string
	width      int
	height     int
}

// Run starts the review UI over the given ranked candidates and blocks
// until the user quits.
func Run(user string, candidates []model.Candidate, queue QueueFunc) error {
	m := reviewModel{
		user:       user,
		candidates: candidates,
		queue:      queue,
		queued:     make(map[string]model.State),
		status:     fmt.Sprintf("%d candidates — ↑/↓ move · enter detail · a apply · q quit", len(candidates)),
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m reviewModel) Init() tea.Cmd { return nil }

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail = viewport.New(msg.Width-4, msg.Height-6)
		if m.showDetail {
			m.detail.SetContent(m.detailContent())
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.showDetail {
				m.showDetail = false
				return m, nil
			}
			return m, tea.Quit

		case "up", "k":
			if m.showDetail {
				if m.detail.YOffset > 0 {
					m.detail.SetYOffset(m.detail.YOffset - 1)
				}
			} else if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.showDetail {
				m.detail.SetYOffset(m.detail.YOffset + 1)
			} else if m.cursor < len(m.candidates)-1 {
				m.cursor++
			}

		case "enter":
			if !m.showDetail && len(m.candidates) > 0 {
				m.showDetail = true
				m.detail.SetContent(m.detailContent())
				m.detail.GotoTop()
			}

		case "esc":
			m.showDetail = false

		case "a":
			if len(m.candidates) == 0 {
				break
			}
			job := m.candidates[m.cursor].Job
			state, err := m.queue(job.ID)
			if err != nil {
				m.status = fmt.Sprintf("apply failed: %v", err)
				break
			}
			m.queued[job.ID] = state
			m.status = fmt.Sprintf("%s at %s → %s", job.Title, job.Company, state)
		}
	}
	return m, nil
}

func (m reviewModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("candidates for %s", m.user)))
	b.WriteString("\n\n")

	if m.showDetail {
		b.WriteString(m.detail.View())
	} else {
		b.WriteString(m.listView())
	}

	b.WriteString("\n")
	b.WriteString(statusBarStyle.Render(m.status))
	return b.String()
}

func (m reviewModel) listView() string {
	if len(m.candidates) == 0 {
		return itemSubtitleStyle.Render("  no candidates over the threshold")
	}

	// Keep the cursor visible within the window.
	visible := (m.height - 5) / itemHeight
	if visible < 1 {
		visible = len(m.candidates)
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}

	var b strings.Builder
	for i := start; i < len(m.candidates) && i < start+visible; i++ {
		c := m.candidates[i]

		title := fmt.Sprintf("  %s — %s", c.Job.Company, c.Job.Title)
		subtitle := fmt.Sprintf("    %.2f · %s", c.Score.Score, c.Job.Location)
		if state, ok := m.queued[c.Job.ID]; ok {
			subtitle += queuedStyle.Render(fmt.Sprintf("  [%s]", state))
		}

		if i == m.cursor {
			b.WriteString(selectedTitleStyle.Render(title))
			b.WriteString("\n")
			b.WriteString(selectedSubtitleStyle.Render(subtitle))
		} else {
			b.WriteString(itemTitleStyle.Render(title))
			b.WriteString("\n")
			b.WriteString(itemSubtitleStyle.Render(subtitle))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m reviewModel) detailContent() string {
	c := m.candidates[m.cursor]
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Company", c.Job.Company)
	row("Title", c.Job.Title)
	row("Location", c.Job.Location)
	row("Score", fmt.Sprintf("%.2f", c.Score.Score))
	row("Keywords", strings.Join(c.Score.MatchedKeywords, ", "))
	row("URL", c.Job.URL)

	sources := make([]string, 0, len(c.Job.Provenance))
	for _, p := range c.Job.Provenance {
		sources = append(sources, p.Source)
	}
	row("Sources", strings.Join(sources, ", "))

	b.WriteString("\n")
	b.WriteString(c.Job.Description)
	return b.String()
}
