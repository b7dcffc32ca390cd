package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"murmur/log"
	"murmur/status"
)

// TUI message types
type statusMsg status.Update
type tickMsg time.Time

const (
	tuiTickEvery  = 100 * time.Millisecond
	tuiHistoryLen = 8
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	historyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 2)

	severityStyles = map[status.Severity]lipgloss.Style{
		status.Idle:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		status.Active: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		status.Warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		status.Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Reverse(true),
	}
)

type tuiModel struct {
	banner  []string
	current status.Update
	history []status.Update
	frame   int
	now     time.Time
	width   int
}

func newTUIModel(b banner) tuiModel {
	return tuiModel{banner: b.lines(), now: time.Now()}
}

func tuiTick() tea.Cmd {
	return tea.Tick(tuiTickEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		m.now = time.Time(msg)
		return m, tuiTick()

	case statusMsg:
		u := status.Update(msg)
		if m.current.Label != "" && m.current.Label != status.Ready {
			m.history = append(m.history, m.current)
			if len(m.history) > tuiHistoryLen {
				m.history = m.history[len(m.history)-tuiHistoryLen:]
			}
		}
		m.current = u
		m.now = u.At
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("murmur "+version) + "\n")
	for _, l := range m.banner {
		b.WriteString(bannerStyle.Render(l) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(boxStyle.Render(m.statusLine()) + "\n")

	if len(m.history) > 0 {
		b.WriteString("\n")
		for i := len(m.history) - 1; i >= 0; i-- {
			u := m.history[i]
			b.WriteString(historyStyle.Render(fmt.Sprintf("%s  %s", u.At.Format("15:04:05"), plainLabel(u.Label))) + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("Ctrl+C to quit"))
	return b.String()
}

func (m tuiModel) statusLine() string {
	if m.current.Label == "" {
		return historyStyle.Render("Starting...")
	}
	style, ok := severityStyles[m.current.Severity]
	if !ok {
		style = lipgloss.NewStyle()
	}
	label := m.current.Label
	if m.current.Label == status.Recording && (m.frame/5)%2 == 1 {
		// blink the dot while the mic is open
		label = "○" + strings.TrimPrefix(label, "●")
	}
	line := style.Render(label)
	if m.current.Severity == status.Active {
		elapsed := m.now.Sub(m.current.At)
		if elapsed < 0 {
			elapsed = 0
		}
		line += historyStyle.Render(fmt.Sprintf("  %.1fs", elapsed.Seconds()))
	}
	return line
}

func plainLabel(label string) string {
	return strings.TrimSpace(strings.TrimPrefix(label, "●"))
}

// tuiDisplay renders status updates through a Bubble Tea program.
type tuiDisplay struct {
	program *tea.Program
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newTUI(b banner) *tuiDisplay {
	return &tuiDisplay{
		program: tea.NewProgram(newTUIModel(b), tea.WithAltScreen()),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// run blocks until the program ends, either from Close or from Ctrl+C in
// the terminal. The latter is reported through Quitting.
func (t *tuiDisplay) run() {
	defer close(t.done)
	if _, err := t.program.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
	}
	t.once.Do(func() { close(t.quit) })
}

func (t *tuiDisplay) Show(u status.Update) {
	t.program.Send(statusMsg(u))
}

func (t *tuiDisplay) Close() {
	t.program.Quit()
	select {
	case <-t.done:
	case <-time.After(time.Second):
	}
}

func (t *tuiDisplay) Quitting() <-chan struct{} { return t.quit }
