package ui

import (
	"fmt"
	"io"
	"strings"

	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/danhigham/cometcharm/internal/domain"
)

// entryItem implements list.Item for every directory list: conversations,
// users, groups and the login accounts.
type entryItem struct {
	id       string
	title    string
	subtitle string
	badge    int
	online   bool
	markdown string // detail pane content
}

func (i entryItem) FilterValue() string { return i.title }

// entryItemDelegate renders an entryItem in the list.
type entryItemDelegate struct{}

func (d entryItemDelegate) Height() int                             { return 2 }
func (d entryItemDelegate) Spacing() int                            { return 1 }
func (d entryItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d entryItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(entryItem)
	if !ok {
		return
	}

	title := ei.title
	if ei.badge > 0 {
		title = fmt.Sprintf("%s (%d)", ei.title, ei.badge)
	}

	isSelected := index == m.Index()
	// Account for the cursor prefix ("  " or "> ") in available width.
	contentWidth := m.Width() - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	titleStyle := lipgloss.NewStyle().MaxWidth(contentWidth).MaxHeight(1)
	descStyle := lipgloss.NewStyle().MaxWidth(contentWidth).MaxHeight(1).Foreground(lipgloss.Color("240"))

	cursor := "  "
	if isSelected {
		cursor = "> "
		titleStyle = titleStyle.Foreground(lipgloss.Color("170")).Bold(true)
		descStyle = descStyle.Foreground(lipgloss.Color("250"))
	}
	if ei.badge > 0 {
		titleStyle = titleStyle.Bold(true)
	}
	if ei.online {
		title = lipgloss.NewStyle().Foreground(onlineColor).Render("● ") + title
	}

	fmt.Fprintf(w, "%s%s\n%s%s", cursor, titleStyle.Render(title), "  ", descStyle.Render(ei.subtitle))
}

// EntryListModel wraps bubbles/list for a bordered, filterable list.
type EntryListModel struct {
	list    list.Model
	focused bool
	width   int
	height  int
}

func NewEntryListModel() EntryListModel {
	delegate := entryItemDelegate{}
	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	return EntryListModel{list: l}
}

func (m EntryListModel) Update(msg tea.Msg) (EntryListModel, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Filtering reports whether the user is typing a filter, in which case
// single-key shortcuts must not be intercepted.
func (m EntryListModel) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m EntryListModel) Selected() (entryItem, bool) {
	item, ok := m.list.SelectedItem().(entryItem)
	return item, ok
}

func (m EntryListModel) Len() int {
	return len(m.list.Items())
}

func (m EntryListModel) View() string {
	contentH := m.height - 2
	if contentH < 0 {
		contentH = 0
	}

	// Truncate list output to content area inside border
	content := truncateHeight(m.list.View(), contentH)

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(m.width).
		Height(m.height)
	style = applyBorderColor(style, m.focused)

	return style.Render(content)
}

func (m EntryListModel) WithItems(items []entryItem) EntryListModel {
	li := make([]list.Item, len(items))
	for i, it := range items {
		li[i] = it
	}
	m.list.SetItems(li)
	return m
}

func (m EntryListModel) SetSize(w, h int) EntryListModel {
	m.width = w
	m.height = h
	innerW := w - 2
	innerH := h - 2
	if innerW < 1 {
		innerW = 1
	}
	if innerH < 1 {
		innerH = 1
	}
	m.list.SetSize(innerW, innerH)
	return m
}

func (m EntryListModel) SetFocused(f bool) EntryListModel {
	m.focused = f
	return m
}

func conversationItems(convs []domain.Conversation) []entryItem {
	items := make([]entryItem, len(convs))
	for i, c := range convs {
		subtitle := c.LastMessage
		if c.LastSender != "" && subtitle != "" {
			subtitle = c.LastSender + ": " + subtitle
		}
		items[i] = entryItem{
			id:       c.ID,
			title:    c.Title,
			subtitle: plainPreview(subtitle),
			badge:    c.UnreadCount,
			markdown: conversationMarkdown(c),
		}
	}
	return items
}

func userItems(users []domain.User) []entryItem {
	items := make([]entryItem, len(users))
	for i, u := range users {
		items[i] = entryItem{
			id:       u.UID,
			title:    u.Name,
			subtitle: "UID: " + u.UID,
			online:   u.Status == "online",
			markdown: userMarkdown(u),
		}
	}
	return items
}

func groupItems(groups []domain.Group) []entryItem {
	items := make([]entryItem, len(groups))
	for i, g := range groups {
		items[i] = entryItem{
			id:       g.GUID,
			title:    g.Name,
			subtitle: fmt.Sprintf("%s · %d members", g.Type, g.MembersCount),
			markdown: groupMarkdown(g),
		}
	}
	return items
}

// plainPreview strips the bold markers mentions are rendered with so the
// one-line preview stays readable.
func plainPreview(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "\n", " ")
}
