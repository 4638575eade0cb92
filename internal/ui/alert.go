package ui

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

type alert struct {
	title string
	body  string
	isErr bool
}

// AlertModel is a queue of dismissible messages shown one at a time.
type AlertModel struct {
	queue []alert
}

func (a AlertModel) IsVisible() bool {
	return len(a.queue) > 0
}

// Show queues an informational alert.
func (a AlertModel) Show(title, body string) AlertModel {
	a.queue = append(a.queue, alert{title: title, body: body})
	return a
}

// ShowError queues an error alert.
func (a AlertModel) ShowError(title, body string) AlertModel {
	a.queue = append(a.queue, alert{title: title, body: body, isErr: true})
	return a
}

// Current returns the title and body of the alert on screen.
func (a AlertModel) Current() (string, string, bool) {
	if len(a.queue) == 0 {
		return "", "", false
	}
	return a.queue[0].title, a.queue[0].body, true
}

// Update dismisses the current alert on enter or esc.
func (a AlertModel) Update(msg tea.Msg) AlertModel {
	if msg, ok := msg.(tea.KeyMsg); ok && len(a.queue) > 0 {
		switch msg.String() {
		case "enter", "esc":
			a.queue = a.queue[1:]
		}
	}
	return a
}

func (a AlertModel) View(maxWidth int) string {
	if len(a.queue) == 0 {
		return ""
	}
	cur := a.queue[0]

	title := titleStyle.Render(cur.title)
	border := highlightColor
	if cur.isErr {
		title = errorStyle.Render(cur.title)
		border = lipgloss.Color("#FF5F87")
	}

	w := maxWidth - 8
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	body := lipgloss.NewStyle().MaxWidth(w).Render(cur.body)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", subtleStyle.Render("enter OK")))
}
