package ui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/danhigham/cometcharm/internal/domain"
)

const (
	fieldAppID = iota
	fieldAuthKey
	fieldRegion
	fieldCount
)

var fieldNames = [fieldCount]string{"App ID", "Auth Key", "Region"}

const settingsHelp = `## Where to find these

Open the **CometChat dashboard**, select your app and go to **API & Auth Keys**.

- **App ID** identifies the app.
- **Auth Key** lets this client create login tokens. Never use the REST API key here.
- **Region** is where the app is hosted, e.g. ` + "`us`, `eu` or `in`" + `.

Values saved here take priority over the built-in defaults.`

// SettingsModel is the credentials form.
type SettingsModel struct {
	inputs   [fieldCount]textinput.Model
	focusIdx int
	help     string
	width    int
	height   int
}

func NewSettingsModel() SettingsModel {
	var m SettingsModel
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = "Enter " + fieldNames[i]
		ti.CharLimit = 128
		m.inputs[i] = ti
	}
	m.inputs[fieldAuthKey].EchoMode = textinput.EchoPassword
	m.inputs[fieldRegion].Placeholder = "e.g. us, eu, in"
	return m
}

// SetValues prefills the form.
func (m SettingsModel) SetValues(c domain.Credentials) SettingsModel {
	m.inputs[fieldAppID].SetValue(c.AppID)
	m.inputs[fieldAuthKey].SetValue(c.AuthKey)
	m.inputs[fieldRegion].SetValue(c.Region)
	return m
}

// Values returns the form contents, trimmed.
func (m SettingsModel) Values() domain.Credentials {
	return domain.Credentials{
		AppID:   m.inputs[fieldAppID].Value(),
		AuthKey: m.inputs[fieldAuthKey].Value(),
		Region:  m.inputs[fieldRegion].Value(),
	}.Trimmed()
}

// Focus focuses the first field.
func (m SettingsModel) Focus() (SettingsModel, tea.Cmd) {
	return m.focusField(fieldAppID)
}

func (m SettingsModel) focusField(idx int) (SettingsModel, tea.Cmd) {
	m.focusIdx = (idx + fieldCount) % fieldCount
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focusIdx {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return m, cmd
}

func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab", "down":
			return m.focusField(m.focusIdx + 1)
		case "shift+tab", "up":
			return m.focusField(m.focusIdx - 1)
		case "ctrl+s":
			return m, m.submit()
		case "enter":
			if m.focusIdx == fieldCount-1 {
				return m, m.submit()
			}
			return m.focusField(m.focusIdx + 1)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m SettingsModel) submit() tea.Cmd {
	creds := m.Values()
	return func() tea.Msg { return saveSettingsMsg{creds: creds} }
}

func (m SettingsModel) SetSize(w, h int) SettingsModel {
	m.width = w
	m.height = h
	formW := m.formWidth()
	for i := range m.inputs {
		m.inputs[i].SetWidth(formW - 4)
	}
	m.help = renderMarkdown(newMarkdownRenderer(formW-4), settingsHelp)
	return m
}

func (m SettingsModel) formWidth() int {
	w := m.width - 4
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m SettingsModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("CometChat Settings") + "\n")
	b.WriteString(subtleStyle.Render("Configure the app credentials") + "\n\n")

	for i := range m.inputs {
		label := labelStyle.Render(fieldNames[i])
		field := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Width(m.formWidth() - 2)
		field = applyBorderColor(field, i == m.focusIdx)
		b.WriteString(label + "\n" + field.Render(m.inputs[i].View()) + "\n")
	}
	b.WriteString(subtleStyle.Render("tab next field · enter/ctrl+s save · f1 help · ctrl+c quit"))
	if m.help != "" {
		b.WriteString("\n\n" + m.help)
	}

	content := truncateHeight(b.String(), m.height)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, content)
}
