package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/danhigham/cometcharm/internal/domain"
)

// DetailModel shows the selected directory entry as glamour-rendered markdown.
type DetailModel struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	focused  bool
	width    int
	height   int
	markdown string
}

func NewDetailModel() DetailModel {
	vp := viewport.New()
	return DetailModel{viewport: vp}
}

func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j":
			m.viewport.ScrollDown(1)
			return m, nil
		case "k":
			m.viewport.ScrollUp(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DetailModel) View() string {
	contentH := m.height - 2
	if contentH < 0 {
		contentH = 0
	}

	content := truncateHeight(m.viewport.View(), contentH)

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(m.width).
		Height(m.height)
	style = applyBorderColor(style, m.focused)

	return style.Render(content)
}

func (m DetailModel) SetSize(w, h int) DetailModel {
	m.width = w
	m.height = h
	// Viewport inner: subtract border (2)
	vpW := w - 2
	vpH := h - 2
	if vpW < 1 {
		vpW = 1
	}
	if vpH < 1 {
		vpH = 1
	}
	m.viewport.SetWidth(vpW)
	m.viewport.SetHeight(vpH)
	m = m.recreateRenderer()
	m = m.renderContent()
	return m
}

func (m DetailModel) SetFocused(f bool) DetailModel {
	m.focused = f
	return m
}

// SetMarkdown replaces the content and scrolls back to the top.
func (m DetailModel) SetMarkdown(md string) DetailModel {
	if md == m.markdown {
		return m
	}
	m.markdown = md
	m = m.renderContent()
	m.viewport.GotoTop()
	return m
}

func (m DetailModel) recreateRenderer() DetailModel {
	m.renderer = newMarkdownRenderer(m.viewport.Width() - 2)
	return m
}

func (m DetailModel) renderContent() DetailModel {
	rendered := renderMarkdown(m.renderer, m.markdown)
	// Wrap content to viewport width so long lines don't overflow
	wrapped := lipgloss.NewStyle().Width(m.viewport.Width()).Render(rendered)
	m.viewport.SetContent(wrapped)
	return m
}

func newMarkdownRenderer(wordWrap int) *glamour.TermRenderer {
	if wordWrap < 10 {
		wordWrap = 10
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders text through glamour. Glamour collapses single
// newlines, so plain blocks are rendered line by line to keep the sender's
// line breaks; tables and fenced code are rendered whole.
func renderMarkdown(r *glamour.TermRenderer, text string) string {
	if r == nil || text == "" {
		return text
	}

	blocks := strings.Split(text, "\n\n")
	renderedBlocks := make([]string, len(blocks))

	for i, block := range blocks {
		if block == "" {
			continue
		}

		if isMultiLineMarkdown(block) {
			renderedBlocks[i] = renderBlock(r, block)
			continue
		}
		lines := strings.Split(block, "\n")
		renderedLines := make([]string, len(lines))
		for j, line := range lines {
			if line != "" {
				renderedLines[j] = renderBlock(r, line)
			}
		}
		renderedBlocks[i] = strings.Join(renderedLines, "\n")
	}

	return strings.Join(renderedBlocks, "\n\n")
}

// renderBlock renders a single text block through glamour, trimming whitespace.
func renderBlock(r *glamour.TermRenderer, text string) string {
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	out = strings.TrimRight(out, "\n ")
	out = strings.TrimLeft(out, "\n")
	return out
}

// isMultiLineMarkdown returns true if the block is a multi-line markdown
// construct that must be rendered as a whole (tables, fenced code blocks).
func isMultiLineMarkdown(block string) bool {
	if !strings.Contains(block, "\n") {
		return false
	}
	trimmed := strings.TrimSpace(block)
	// Fenced code blocks.
	if strings.HasPrefix(trimmed, "```") {
		return true
	}
	// Tables: all lines contain pipes.
	lines := strings.Split(trimmed, "\n")
	for _, line := range lines {
		if !strings.Contains(line, "|") {
			return false
		}
	}
	return true
}

func conversationMarkdown(c domain.Conversation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	kind := "Direct conversation"
	if c.Type == domain.ConversationGroup {
		kind = "Group conversation"
	}
	b.WriteString("*" + kind + "*")
	if !c.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, " · last active %s", c.UpdatedAt.Format("Jan 2 15:04"))
	}
	if c.UnreadCount > 0 {
		fmt.Fprintf(&b, " · **%d unread**", c.UnreadCount)
	}
	b.WriteString("\n\n")
	if c.LastMessage == "" {
		b.WriteString("No messages yet.")
		return b.String()
	}
	if c.LastSender != "" {
		fmt.Fprintf(&b, "**%s:**\n", c.LastSender)
	}
	b.WriteString(c.LastMessage)
	return b.String()
}

func userMarkdown(u domain.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", u.Name)
	fmt.Fprintf(&b, "UID: `%s`\n\n", u.UID)
	status := u.Status
	if status == "" {
		status = "offline"
	}
	fmt.Fprintf(&b, "Status: **%s**", status)
	if status != "online" && !u.LastActive.IsZero() {
		fmt.Fprintf(&b, " (last seen %s)", u.LastActive.Format("Jan 2 15:04"))
	}
	return b.String()
}

func groupMarkdown(g domain.Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", g.Name)
	fmt.Fprintf(&b, "GUID: `%s` · %s · %d members", g.GUID, g.Type, g.MembersCount)
	if g.Description != "" {
		b.WriteString("\n\n" + g.Description)
	}
	return b.String()
}
