package ui

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/danhigham/cometcharm/internal/domain"
)

// LoginModel lists the accounts the user can log in as.
type LoginModel struct {
	accounts EntryListModel
	spinner  spinner.Model
	busy     bool
	width    int
	height   int
}

func NewLoginModel(accounts []domain.User) LoginModel {
	items := make([]entryItem, len(accounts))
	for i, u := range accounts {
		items[i] = entryItem{id: u.UID, title: u.Name, subtitle: "UID: " + u.UID}
	}
	return LoginModel{
		accounts: NewEntryListModel().WithItems(items).SetFocused(true),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// SetBusy shows or hides the "Logging in..." indicator. Selection is
// ignored while busy.
func (m LoginModel) SetBusy(busy bool) (LoginModel, tea.Cmd) {
	m.busy = busy
	if busy {
		return m, m.spinner.Tick
	}
	return m, nil
}

func (m LoginModel) Busy() bool {
	return m.busy
}

func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		if !m.accounts.Filtering() {
			switch msg.String() {
			case "enter":
				if item, ok := m.accounts.Selected(); ok {
					return m, func() tea.Msg {
						return loginSelectedMsg{uid: item.id, name: item.title}
					}
				}
				return m, nil
			case "s":
				return m, func() tea.Msg { return openSettingsMsg{} }
			}
		}
	}

	var cmd tea.Cmd
	m.accounts, cmd = m.accounts.Update(msg)
	return m, cmd
}

func (m LoginModel) SetSize(w, h int) LoginModel {
	m.width = w
	m.height = h
	listW := w - 4
	if listW > 60 {
		listW = 60
	}
	listH := h - 6
	if listH < 3 {
		listH = 3
	}
	m.accounts = m.accounts.SetSize(listW, listH)
	return m
}

func (m LoginModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := titleStyle.Render("CometChat Sample App") + "\n" +
		subtleStyle.Render("Select a user to login")
	footer := subtleStyle.Render("enter login · / filter · s settings · ? help")
	if m.busy {
		footer = m.spinner.View() + " Logging in..."
	}

	body := lipgloss.JoinVertical(lipgloss.Left, header, m.accounts.View(), footer)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, body)
}
