package ui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/danhigham/cometcharm/internal/state"
)

type homeFocus int

const (
	focusList homeFocus = iota
	focusDetail
)

const (
	listWidth    = 36
	headerHeight = 2
)

// HomeModel is the logged-in screen: a tab bar over Chats, Users and
// Groups, each a list with a detail pane for the selected entry.
type HomeModel struct {
	lists    [3]EntryListModel
	detail   DetailModel
	tab      state.Tab
	focus    homeFocus
	userName string
	width    int
	height   int
}

func NewHomeModel() HomeModel {
	m := HomeModel{detail: NewDetailModel()}
	for i := range m.lists {
		m.lists[i] = NewEntryListModel()
	}
	return m.updateFocus()
}

func (m HomeModel) Tab() state.Tab {
	return m.tab
}

// SetTab switches tabs and asks for the tab's content.
func (m HomeModel) SetTab(tab state.Tab) (HomeModel, tea.Cmd) {
	m.tab = tab
	m.focus = focusList
	m = m.updateFocus().syncDetail()
	return m, func() tea.Msg { return loadTabMsg{tab: tab} }
}

// Refresh copies the store's directory into the lists.
func (m HomeModel) Refresh(store *state.Store) HomeModel {
	if u, ok := store.CurrentUser(); ok {
		m.userName = u.Name
	} else {
		m.userName = ""
	}
	m.lists[state.TabConversations] = m.lists[state.TabConversations].WithItems(conversationItems(store.Conversations()))
	m.lists[state.TabUsers] = m.lists[state.TabUsers].WithItems(userItems(store.Users()))
	m.lists[state.TabGroups] = m.lists[state.TabGroups].WithItems(groupItems(store.Groups()))
	return m.syncDetail()
}

// Reset returns to the first tab with empty lists.
func (m HomeModel) Reset() HomeModel {
	w, h := m.width, m.height
	m = NewHomeModel()
	return m.SetSize(w, h)
}

// Filtering reports whether the active list is taking filter input.
func (m HomeModel) Filtering() bool {
	return m.focus == focusList && m.lists[m.tab].Filtering()
}

func (m HomeModel) Update(msg tea.Msg) (HomeModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		switch msg.String() {
		case "1", "2", "3":
			return m.SetTab(state.Tab(msg.String()[0] - '1'))
		case "tab":
			return m.SetTab((m.tab + 1) % state.Tab(len(state.Tabs)))
		case "shift+tab":
			return m.SetTab((m.tab + state.Tab(len(state.Tabs)) - 1) % state.Tab(len(state.Tabs)))
		case "ctrl+l":
			return m, func() tea.Msg { return logoutRequestedMsg{} }
		case "r":
			tab := m.tab
			return m, func() tea.Msg { return loadTabMsg{tab: tab, force: true} }
		case "enter", "right", "l":
			if m.focus == focusList {
				m.focus = focusDetail
				return m.updateFocus(), nil
			}
		case "esc", "left", "h":
			if m.focus == focusDetail {
				m.focus = focusList
				return m.updateFocus(), nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusList:
		m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
		m = m.syncDetail()
	case focusDetail:
		m.detail, cmd = m.detail.Update(msg)
	}
	return m, cmd
}

// Selected returns the id of the highlighted entry in the active tab.
func (m HomeModel) Selected() (string, bool) {
	item, ok := m.lists[m.tab].Selected()
	return item.id, ok
}

func (m HomeModel) syncDetail() HomeModel {
	item, ok := m.lists[m.tab].Selected()
	if !ok {
		m.detail = m.detail.SetMarkdown(emptyTabText(m.tab))
		return m
	}
	m.detail = m.detail.SetMarkdown(item.markdown)
	return m
}

func emptyTabText(tab state.Tab) string {
	switch tab {
	case state.TabUsers:
		return "*No users to show.*"
	case state.TabGroups:
		return "*No groups to show.*"
	default:
		return "*No conversations yet.*"
	}
}

func (m HomeModel) updateFocus() HomeModel {
	for i := range m.lists {
		m.lists[i] = m.lists[i].SetFocused(m.focus == focusList && state.Tab(i) == m.tab)
	}
	m.detail = m.detail.SetFocused(m.focus == focusDetail)
	return m
}

func (m HomeModel) SetSize(w, h int) HomeModel {
	m.width = w
	m.height = h

	contentH := h - headerHeight
	if contentH < 1 {
		contentH = 1
	}
	lw := listWidth
	if lw > w {
		lw = w
	}
	for i := range m.lists {
		m.lists[i] = m.lists[i].SetSize(lw, contentH)
	}
	dw := w - lw
	if dw < 1 {
		dw = 1
	}
	m.detail = m.detail.SetSize(dw, contentH)
	return m
}

func (m HomeModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	tabs := make([]string, len(state.Tabs))
	for i, t := range state.Tabs {
		label := string(rune('1'+i)) + " " + t.String()
		if t == m.tab {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = inactiveTabStyle.Render(label)
		}
	}
	left := strings.Join(tabs, " ")

	who := "Not logged in"
	if m.userName != "" {
		who = "Logged in as " + labelStyle.Render(m.userName)
	}
	right := who + subtleStyle.Render("  ctrl+l logout")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	header := left + strings.Repeat(" ", gap) + right + "\n"

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.lists[m.tab].View(), m.detail.View())
	return lipgloss.NewStyle().
		MaxWidth(m.width).
		MaxHeight(m.height).
		Render(header + "\n" + body)
}
