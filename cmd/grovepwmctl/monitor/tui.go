package monitor

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mdouchement/grovepwmd"
)

type model struct {
	table  table.Model
	status string
}

var statusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#767676")).
	PaddingLeft(1)

func newTUI() *model {
	columns := []table.Column{
		{Title: "Motors", Width: 12},
		{Title: "Direction", Width: 12},
		{Title: "Speeds", Width: 12},
		{Title: "Duty", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(3),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		Foreground(lipgloss.Color("#00afff")).
		BorderForeground(lipgloss.Color("#00afff")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Bold(false)
	t.SetStyles(s)

	return &model{
		table:  t,
		status: "waiting for grovepwmd...",
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
	case grovepwmd.State:
		m.update(msg)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	return m.table.View() + "\n" + statusStyle.Render(m.status)
}

func (m *model) update(state grovepwmd.State) {
	m.table.SetRows([]table.Row{
		row("motor1", state.Speed1, state.Magnitude1),
		row("motor2", state.Speed2, state.Magnitude2),
	})
	m.status = fmt.Sprintf("PWM %s - direction register %d - updated at %s",
		state.Frequency, state.Direction, state.UpdatedAt.Format("15:04:05.000"))
}

func row(name string, speed float64, magnitude byte) table.Row {
	direction := "forward"
	if speed < 0 {
		direction = "reverse"
	}

	return table.Row{
		name,
		direction,
		fmt.Sprintf("%+.3f", speed),
		fmt.Sprintf("%3d (%3.0f%%)", magnitude, float64(magnitude)*100/255),
	}
}
