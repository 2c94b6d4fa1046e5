package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/irontrack/internal/model"
)

// Color palette
var (
	Primary   = lipgloss.Color("#4ECDC4")
	Completed = lipgloss.Color("#95E1A3") // Green
	Running   = lipgloss.Color("#FFB347") // Orange
	Warning   = lipgloss.Color("#FF6B6B") // Red
	TextMuted = lipgloss.Color("#888888")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true)

	TaskSuspendedStyle = lipgloss.NewStyle().
				Foreground(TextMuted).
				Italic(true)

	DurationStyle = lipgloss.NewStyle().Foreground(Completed)
	RunningStyle  = lipgloss.NewStyle().Foreground(Running).Bold(true)
	DateStyle     = lipgloss.NewStyle().Foreground(Primary)
	ChangedStyle  = lipgloss.NewStyle().Foreground(Warning)
	MutedStyle    = lipgloss.NewStyle().Foreground(TextMuted)
)

// statusIcon returns the checkbox shown in front of a task
func statusIcon(t *model.Task) string {
	switch {
	case t.Done():
		return "[x]"
	case t.Suspended():
		return "[-]"
	default:
		return "[ ]"
	}
}

// taskTitle renders the task name with the style for its state
func taskTitle(t *model.Task, max int) string {
	name := truncate(t.Name(), max)
	switch {
	case t.Done():
		return TaskDoneStyle.Render(name)
	case t.Suspended():
		return TaskSuspendedStyle.Render(name)
	default:
		return name
	}
}

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
