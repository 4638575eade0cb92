package ui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/danhigham/cometcharm/internal/domain"
	"github.com/danhigham/cometcharm/internal/session"
	"github.com/danhigham/cometcharm/internal/state"
)

// StoreUpdatedMsg signals that the store state has changed.
type StoreUpdatedMsg struct{}

// bootstrapDoneMsg carries the result of session.Bootstrap.Initialize.
type bootstrapDoneMsg struct {
	state session.State
}

// loadingTimerMsg signals that the loading screen's minimum display time
// has elapsed.
type loadingTimerMsg struct{}

// settingsLoadedMsg prefills the settings form with stored credentials.
type settingsLoadedMsg struct {
	creds domain.Credentials
}

// saveSettingsMsg is emitted when the user submits the settings form.
type saveSettingsMsg struct {
	creds domain.Credentials
}

type credentialsSavedMsg struct {
	err error
}

// openSettingsMsg asks to switch to the settings screen.
type openSettingsMsg struct{}

// loginSelectedMsg is emitted when the user picks an account to log in as.
type loginSelectedMsg struct {
	uid  string
	name string
}

type loginDoneMsg struct {
	user domain.User
	err  error
}

// logoutRequestedMsg is emitted by the home screen's logout key.
type logoutRequestedMsg struct{}

type logoutDoneMsg struct {
	err error
}

// loadTabMsg asks for a home tab to be (re)fetched.
type loadTabMsg struct {
	tab   state.Tab
	force bool
}

type tabLoadedMsg struct {
	tab state.Tab
	err error
}

// IncomingCallMsg and the messages below are sent from chat listener
// goroutines through App.Send.
type IncomingCallMsg struct {
	Call domain.Call
}

type OutgoingCallAcceptedMsg struct {
	Call domain.Call
}

type OutgoingCallRejectedMsg struct {
	Call domain.Call
}

type IncomingCallCancelledMsg struct {
	Call domain.Call
}

type CallEndedMsg struct {
	Call domain.Call
}

// LoginEventMsg reports a login seen by the chat client's login listener.
type LoginEventMsg struct {
	User domain.User
}

// LogoutEventMsg reports a logout seen by the chat client's login listener.
type LogoutEventMsg struct{}

// StatusMsg updates the status bar.
type StatusMsg struct {
	Text      string
	Connected bool
}

// clockTickMsg triggers a status bar time refresh.
type clockTickMsg struct{}

// StoreUpdatedCmd returns a command that emits StoreUpdatedMsg.
func StoreUpdatedCmd() tea.Msg {
	return StoreUpdatedMsg{}
}
