package ui

import "charm.land/lipgloss/v2"

// HelpModel renders a centered help overlay listing keyboard shortcuts.
type HelpModel struct {
	visible bool
}

// NewHelpModel creates a hidden help model.
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// IsVisible reports whether the help overlay is showing.
func (h HelpModel) IsVisible() bool {
	return h.visible
}

// Toggle flips the help overlay visibility.
func (h HelpModel) Toggle() HelpModel {
	h.visible = !h.visible
	return h
}

const helpText = ` Keyboard Shortcuts

 General
   Ctrl+C        Quit
   ? / F1        Toggle this help
   Enter / Esc   Dismiss alert

 Settings
   Tab / ↑/↓     Next / previous field
   Enter         Next field, save on last
   Ctrl+S        Save

 Login
   j/k / ↑/↓     Choose account
   Enter         Log in
   /             Filter accounts
   s             Edit credentials

 Home
   1 / 2 / 3     Chats / Users / Groups
   Tab           Next tab
   Enter / →     Focus details
   Esc / ←       Back to list
   r             Refresh tab
   Ctrl+L        Log out

 Incoming call
   d             Decline

 Press ?, F1, or Esc to close`

// View renders the help box (without full-screen placement).
func (h HelpModel) View() string {
	if !h.visible {
		return ""
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 3).
		BorderForegroundBlend(rainbowBlend...)

	return style.Render(helpText)
}
