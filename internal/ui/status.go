package ui

import (
	"strings"
	"time"

	"charm.land/lipgloss/v2"
)

var (
	statusBarBg     = lipgloss.Color("#353533")
	statusPillBg    = lipgloss.Color("#FF5FAF")
	statusPillBgOff = lipgloss.Color("#6C5098")
	statusTimeBg    = lipgloss.Color("#6124DF")
	statusCallBg    = lipgloss.Color("#2ECC71")
)

type statusModel struct {
	text      string
	connected bool
	screen    string
	callText  string
	userName  string
	width     int
}

func newStatusModel() statusModel {
	return statusModel{text: "Starting"}
}

// SetWidth sets the full terminal width for the status bar.
func (m statusModel) SetWidth(w int) statusModel {
	m.width = w
	return m
}

// SetScreen updates the screen name shown on the left.
func (m statusModel) SetScreen(name string) statusModel {
	m.screen = name
	return m
}

// SetCall shows a call indicator; empty hides it.
func (m statusModel) SetCall(text string) statusModel {
	m.callText = text
	return m
}

// SetUserName updates the logged-in user name shown on the right.
func (m statusModel) SetUserName(name string) statusModel {
	m.userName = name
	return m
}

// View renders a full-width status bar:
// [STATUS pill] [screen] ... [call pill] [user name] [time pill]
func (m statusModel) View() string {
	pillBg := statusPillBgOff
	if m.connected {
		pillBg = statusPillBg
	}
	base := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true).
		Padding(0, 1)

	status := base.Background(pillBg).Render(strings.ToUpper(m.text))
	screen := base.Background(statusBarBg).Render(m.screen)

	var right string
	if m.callText != "" {
		right += base.Background(statusCallBg).Render(m.callText)
	}
	if m.userName != "" {
		right += base.Background(highlightColor).Render(m.userName)
	}
	right += base.Background(statusTimeBg).Render(time.Now().Format("15:04"))

	left := status + screen

	// Fill gap between left and right
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Background(statusBarBg).
		Render(strings.Repeat(" ", gap))

	return lipgloss.NewStyle().
		Background(statusBarBg).
		Width(m.width).
		Render(left + filler + right)
}
