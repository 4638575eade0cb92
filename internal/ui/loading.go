package ui

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/danhigham/cometcharm/internal/session"
)

const loadingArt = `
                      _       _
  ___ ___  _ __ ___  | |_ ___| |__   __ _ _ __ _ __ ___
 / __/ _ \| '_ ` + "`" + ` _ \ | __/ __| '_ \ / _` + "`" + ` | '__| '_ ` + "`" + ` _ \
| (_| (_) | | | | | || || (__| | | | (_| | |  | | | | | |
 \___\___/|_| |_| |_| \__\___|_| |_|\__,_|_|  |_| |_| |_|
`

// LoadingModel is the screen shown while the bootstrap runs. It stays up
// for at least the minimum duration even if the bootstrap finishes sooner.
type LoadingModel struct {
	spinner       spinner.Model
	timerDone     bool
	ready         bool
	next          session.Screen
	width, height int
}

func NewLoadingModel() LoadingModel {
	return LoadingModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(highlightColor)),
		),
	}
}

func (l LoadingModel) Init() tea.Cmd {
	return l.spinner.Tick
}

func (l LoadingModel) Update(msg tea.Msg) (LoadingModel, tea.Cmd) {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// SetSize updates the terminal dimensions for centering.
func (l LoadingModel) SetSize(w, h int) LoadingModel {
	l.width = w
	l.height = h
	return l
}

// Reset starts a fresh loading cycle.
func (l LoadingModel) Reset() LoadingModel {
	l.timerDone = false
	l.ready = false
	l.next = session.ScreenLoading
	return l
}

// TimerDone marks the minimum display duration as elapsed.
func (l LoadingModel) TimerDone() LoadingModel {
	l.timerDone = true
	return l
}

// Ready records the screen the bootstrap selected.
func (l LoadingModel) Ready(next session.Screen) LoadingModel {
	l.ready = true
	l.next = next
	return l
}

// Done reports whether both the timer and the bootstrap have finished, and
// the screen to show next.
func (l LoadingModel) Done() (session.Screen, bool) {
	if l.timerDone && l.ready {
		return l.next, true
	}
	return session.ScreenLoading, false
}

func (l LoadingModel) View() string {
	if l.width == 0 || l.height == 0 {
		return ""
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(loadingArt),
		l.spinner.View()+" Initializing...",
	)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(highlightColor).
		Padding(1, 3).
		Render(body)

	return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center, box)
}
