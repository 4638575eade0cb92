package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/danhigham/cometcharm/internal/calls"
	"github.com/danhigham/cometcharm/internal/chat/chattest"
	"github.com/danhigham/cometcharm/internal/domain"
	"github.com/danhigham/cometcharm/internal/session"
	"github.com/danhigham/cometcharm/internal/state"
)

type memCredentials struct {
	creds domain.Credentials
	saved []domain.Credentials
	err   error
}

func (m *memCredentials) Load(context.Context) (domain.Credentials, error) {
	return m.creds, nil
}

func (m *memCredentials) Save(_ context.Context, c domain.Credentials) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, c)
	m.creds = c
	return nil
}

type manualClock struct {
	funcs []func()
}

func (c *manualClock) schedule(_ time.Duration, f func()) {
	c.funcs = append(c.funcs, f)
}

func (c *manualClock) fireAll() {
	for _, f := range c.funcs {
		f()
	}
	c.funcs = nil
}

type harness struct {
	client *chattest.Client
	creds  *memCredentials
	store  *state.Store
	clock  *manualClock
	deps   Deps
}

func newHarness() *harness {
	h := &harness{
		client: chattest.New(),
		creds:  &memCredentials{},
		store:  state.New(nil),
		clock:  &manualClock{},
	}
	h.deps = Deps{
		Bootstrap:   session.NewBootstrap(h.creds, domain.Credentials{}, h.client, nil, 0),
		Credentials: h.creds,
		Client:      h.client,
		Admission:   calls.NewAdmission(h.client, calls.WithScheduler(h.clock.schedule)),
		Store:       h.store,
		Accounts: []domain.User{
			{UID: "user1", Name: "Alice Johnson"},
			{UID: "user2", Name: "Bob Smith"},
		},
	}
	return h
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func key(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	}
	return tea.KeyPressMsg{Code: rune(s[0]), Text: s}
}

// toScreen drives a fresh model through the loading screen.
func toScreen(t *testing.T, h *harness, st session.State) Model {
	t.Helper()
	m := NewModel(h.deps)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, bootstrapDoneMsg{state: st})
	m, _ = update(t, m, loadingTimerMsg{})
	return m
}

func dismissAlerts(t *testing.T, m Model) Model {
	t.Helper()
	for m.alert.IsVisible() {
		m, _ = update(t, m, key("enter"))
	}
	return m
}

func TestModel_LoadingWaitsForTimerAndBootstrap(t *testing.T) {
	h := newHarness()
	m := NewModel(h.deps)

	m, _ = update(t, m, bootstrapDoneMsg{state: session.State{ValidCredentials: true}})
	if m.Screen() != session.ScreenLoading {
		t.Fatalf("screen = %v before the timer, want loading", m.Screen())
	}
	m, _ = update(t, m, loadingTimerMsg{})
	if m.Screen() != session.ScreenLogin {
		t.Errorf("screen = %v, want login", m.Screen())
	}
}

func TestModel_BootstrapSelectsScreen(t *testing.T) {
	tests := []struct {
		state session.State
		want  session.Screen
	}{
		{session.State{}, session.ScreenSettings},
		{session.State{ValidCredentials: true}, session.ScreenLogin},
		{session.State{ValidCredentials: true, LoggedIn: true}, session.ScreenHome},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			m := toScreen(t, newHarness(), tt.state)
			if m.Screen() != tt.want {
				t.Errorf("screen = %v, want %v", m.Screen(), tt.want)
			}
		})
	}
}

func TestModel_InitRunsBootstrap(t *testing.T) {
	h := newHarness()
	h.creds.creds = domain.Credentials{AppID: "A", AuthKey: "K", Region: "R"}
	m := NewModel(h.deps)

	msg := m.runBootstrap()()
	done, ok := msg.(bootstrapDoneMsg)
	if !ok {
		t.Fatalf("bootstrap cmd returned %T", msg)
	}
	if got := session.SelectScreen(done.state); got != session.ScreenLogin {
		t.Errorf("screen = %v, want login", got)
	}
}

func TestModel_SaveSettingsRejectsBlankFields(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{})

	m, cmd := update(t, m, saveSettingsMsg{creds: domain.Credentials{AppID: "A"}})
	if cmd != nil {
		t.Error("save attempted with blank fields")
	}
	title, body, ok := m.alert.Current()
	if !ok || title != "Error" || body != "Please fill in all fields" {
		t.Errorf("alert = %q %q %v", title, body, ok)
	}
	if m.Screen() != session.ScreenSettings {
		t.Errorf("screen = %v, want settings", m.Screen())
	}
}

func TestModel_SaveSettingsRestartsBootstrap(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{})

	want := domain.Credentials{AppID: "A", AuthKey: "K", Region: "R"}
	m, cmd := update(t, m, saveSettingsMsg{creds: want})
	if cmd == nil {
		t.Fatal("no save command")
	}
	m, _ = update(t, m, cmd())

	if len(h.creds.saved) != 1 || h.creds.saved[0] != want {
		t.Errorf("saved = %+v", h.creds.saved)
	}
	if m.Screen() != session.ScreenLoading {
		t.Errorf("screen = %v, want loading", m.Screen())
	}
	if _, body, _ := m.alert.Current(); body != "Credentials saved successfully!" {
		t.Errorf("alert body = %q", body)
	}
}

func TestModel_SaveSettingsFailure(t *testing.T) {
	h := newHarness()
	h.creds.err = errors.New("disk full")
	m := toScreen(t, h, session.State{})

	m, cmd := update(t, m, saveSettingsMsg{creds: domain.Credentials{AppID: "A", AuthKey: "K", Region: "R"}})
	m, _ = update(t, m, cmd())

	if m.Screen() != session.ScreenSettings {
		t.Errorf("screen = %v, want settings", m.Screen())
	}
	if _, body, _ := m.alert.Current(); body != "Failed to save credentials" {
		t.Errorf("alert body = %q", body)
	}
}

func TestModel_SettingsFormSubmit(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{})
	m, _ = update(t, m, settingsLoadedMsg{creds: domain.Credentials{AppID: " A ", AuthKey: "K", Region: "R"}})

	m, _ = update(t, m, key("enter"))
	m, _ = update(t, m, key("enter"))
	_, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("enter on the last field did not submit")
	}
	msg, ok := cmd().(saveSettingsMsg)
	if !ok {
		t.Fatalf("submit produced %T", cmd())
	}
	if msg.creds != (domain.Credentials{AppID: "A", AuthKey: "K", Region: "R"}) {
		t.Errorf("submitted %+v", msg.creds)
	}
}

func TestModel_LoginSuccess(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{ValidCredentials: true})

	m, cmd := update(t, m, loginSelectedMsg{uid: "user1", name: "Alice Johnson"})
	if cmd == nil || !m.login.Busy() {
		t.Fatal("login not started")
	}
	m, _ = update(t, m, loginDoneMsg{user: domain.User{UID: "user1", Name: "Alice Johnson"}})

	if m.Screen() != session.ScreenHome {
		t.Errorf("screen = %v, want home", m.Screen())
	}
	if _, body, _ := m.alert.Current(); body != "Welcome Alice Johnson!" {
		t.Errorf("alert body = %q", body)
	}
	if u, ok := h.store.CurrentUser(); !ok || u.UID != "user1" {
		t.Errorf("current user = %+v, %v", u, ok)
	}
}

func TestModel_LoginFailureKeepsScreen(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{ValidCredentials: true})

	m, _ = update(t, m, loginSelectedMsg{uid: "ghost"})
	m, _ = update(t, m, loginDoneMsg{err: errors.New("no such user")})

	if m.Screen() != session.ScreenLogin {
		t.Errorf("screen = %v, want login", m.Screen())
	}
	if m.login.Busy() {
		t.Error("login still busy")
	}
	title, body, _ := m.alert.Current()
	if title != "Login Failed" || body != "no such user" {
		t.Errorf("alert = %q %q", title, body)
	}
}

func TestModel_LoginEventFromListener(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{ValidCredentials: true})

	m, _ = update(t, m, LoginEventMsg{User: domain.User{UID: "user2", Name: "Bob Smith"}})
	if m.Screen() != session.ScreenHome {
		t.Errorf("screen = %v, want home", m.Screen())
	}
	if m.alert.IsVisible() {
		t.Error("listener login should not raise an alert")
	}
}

func TestModel_Logout(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{ValidCredentials: true, LoggedIn: true})
	h.store.SetCurrentUser(&domain.User{UID: "user1"})

	m, _ = update(t, m, logoutDoneMsg{err: errors.New("network down")})
	if m.Screen() != session.ScreenHome {
		t.Fatalf("screen = %v after failed logout, want home", m.Screen())
	}
	m = dismissAlerts(t, m)

	m, _ = update(t, m, logoutDoneMsg{})
	if m.Screen() != session.ScreenLogin {
		t.Errorf("screen = %v, want login", m.Screen())
	}
	if _, ok := h.store.CurrentUser(); ok {
		t.Error("current user not cleared")
	}
	if _, body, _ := m.alert.Current(); body != "Logged out successfully" {
		t.Errorf("alert body = %q", body)
	}
}

func TestModel_LogoutClearsRingingCall(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{ValidCredentials: true, LoggedIn: true})

	m, _ = update(t, m, IncomingCallMsg{Call: domain.Call{SessionID: "stale"}})
	m, _ = update(t, m, logoutDoneMsg{})
	if h.deps.Admission.State() != calls.Idle {
		t.Fatalf("admission = %v after logout, want idle", h.deps.Admission.State())
	}
	if m.status.callText != "" {
		t.Errorf("status call indicator = %q after logout", m.status.callText)
	}
	m = dismissAlerts(t, m)

	m, _ = update(t, m, loginDoneMsg{user: domain.User{UID: "user1", Name: "Alice Johnson"}})
	m = dismissAlerts(t, m)
	if m.Screen() != session.ScreenHome {
		t.Fatalf("screen = %v, want home", m.Screen())
	}
	if m.callVisible() {
		t.Error("call from the previous session shown after re-login")
	}
	m, _ = update(t, m, key("d"))
	h.clock.fireAll()
	if rejects := h.client.Rejects(); len(rejects) != 0 {
		t.Errorf("rejects = %+v, want none", rejects)
	}
}

func TestModel_LogoutKey(t *testing.T) {
	h := newHarness()
	h.client.SetSession(&domain.User{UID: "user1"})
	m := toScreen(t, h, session.State{ValidCredentials: true, LoggedIn: true})

	m, cmd := update(t, m, tea.KeyPressMsg{Code: 'l', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("ctrl+l produced no command")
	}
	m, cmd = update(t, m, cmd())
	if cmd == nil {
		t.Fatal("logout request produced no command")
	}
	m, _ = update(t, m, cmd())
	if m.Screen() != session.ScreenLogin {
		t.Errorf("screen = %v, want login", m.Screen())
	}
}

func TestModel_LoadTab(t *testing.T) {
	h := newHarness()
	h.client.UserList = []domain.User{{UID: "user2", Name: "Bob Smith", Status: "online"}}
	m := toScreen(t, h, session.State{ValidCredentials: true, LoggedIn: true})

	m, cmd := update(t, m, key("2"))
	if cmd == nil {
		t.Fatal("tab switch produced no command")
	}
	m, cmd = update(t, m, cmd())
	if cmd == nil {
		t.Fatal("loadTab produced no command")
	}
	m, _ = update(t, m, cmd())

	if h.store.ActiveTab() != state.TabUsers {
		t.Errorf("active tab = %v, want users", h.store.ActiveTab())
	}
	if id, ok := m.home.Selected(); !ok || id != "user2" {
		t.Errorf("selected = %q, %v; want user2", id, ok)
	}
}

func TestModel_LoadTabError(t *testing.T) {
	h := newHarness()
	h.client.DirErr = errors.New("boom")
	m := toScreen(t, h, session.State{ValidCredentials: true, LoggedIn: true})

	m, _ = update(t, m, loadTab(h.client, h.store, state.TabGroups)())
	if m.status.connected || m.status.text != "Load failed" {
		t.Errorf("status = %q connected=%v", m.status.text, m.status.connected)
	}
}

func TestModel_IncomingCallPresentedAndDeclined(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{ValidCredentials: true, LoggedIn: true})
	call := domain.Call{SessionID: "s1", Type: domain.CallVideo, Initiator: domain.User{UID: "user2", Name: "Bob Smith"}}

	m, _ = update(t, m, IncomingCallMsg{Call: call})
	if !m.callVisible() {
		t.Fatal("incoming call not presented")
	}
	if m.View().Content == "" {
		t.Error("empty view while ringing")
	}

	m, _ = update(t, m, key("d"))
	if m.callVisible() || h.deps.Admission.State() != calls.Idle {
		t.Error("call still pending after decline")
	}
	h.clock.fireAll()
	rejects := h.client.Rejects()
	if len(rejects) != 1 || rejects[0].Status != domain.CallStatusRejected {
		t.Errorf("rejects = %+v", rejects)
	}
}

func TestModel_IncomingCallWhileBusy(t *testing.T) {
	h := newHarness()
	h.client.SetActiveCall(&domain.Call{SessionID: "active"})
	m := toScreen(t, h, session.State{ValidCredentials: true, LoggedIn: true})

	m, _ = update(t, m, IncomingCallMsg{Call: domain.Call{SessionID: "s2"}})
	if m.callVisible() {
		t.Error("second call presented while busy")
	}
	h.clock.fireAll()
	rejects := h.client.Rejects()
	if len(rejects) != 1 || rejects[0] != (chattest.Reject{SessionID: "s2", Status: domain.CallStatusBusy}) {
		t.Errorf("rejects = %+v", rejects)
	}
}

func TestModel_CallClearedByEvents(t *testing.T) {
	events := []tea.Msg{
		CallEndedMsg{},
		IncomingCallCancelledMsg{},
		OutgoingCallRejectedMsg{},
	}
	for _, ev := range events {
		h := newHarness()
		m := toScreen(t, h, session.State{ValidCredentials: true, LoggedIn: true})
		m, _ = update(t, m, IncomingCallMsg{Call: domain.Call{SessionID: "s1"}})
		m, _ = update(t, m, ev)
		if m.callVisible() {
			t.Errorf("%T did not clear the call", ev)
		}
	}
}

func TestModel_DeclineKeyTypesIntoFilter(t *testing.T) {
	h := newHarness()
	h.store.SetUsers([]domain.User{{UID: "user2", Name: "Bob Smith"}, {UID: "user3", Name: "Dana"}})
	m := toScreen(t, h, session.State{ValidCredentials: true, LoggedIn: true})
	m.home = m.home.Refresh(h.store)

	m, _ = update(t, m, key("/"))
	if !m.takesText() {
		t.Fatal("list filter not active")
	}
	m, _ = update(t, m, IncomingCallMsg{Call: domain.Call{SessionID: "s1"}})
	m, _ = update(t, m, key("d"))

	if !m.callVisible() {
		t.Error("typing d into the filter declined the call")
	}
	h.clock.fireAll()
	if rejects := h.client.Rejects(); len(rejects) != 0 {
		t.Errorf("rejects = %+v, want none", rejects)
	}
}

func TestModel_CallHiddenBeforeLogin(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{ValidCredentials: true})

	m, _ = update(t, m, IncomingCallMsg{Call: domain.Call{SessionID: "s1"}})
	if m.callVisible() {
		t.Error("call presented on the login screen")
	}
	// "d" on the login screen is not a decline.
	m, _ = update(t, m, key("d"))
	if h.deps.Admission.State() != calls.RingingLocal {
		t.Error("call declined from the login screen")
	}
}

func TestModel_HelpToggle(t *testing.T) {
	h := newHarness()
	m := toScreen(t, h, session.State{ValidCredentials: true})

	m, _ = update(t, m, key("?"))
	if !m.help.IsVisible() {
		t.Fatal("help not shown")
	}
	m, _ = update(t, m, key("esc"))
	if m.help.IsVisible() {
		t.Error("help not hidden")
	}
}

func TestApp_CallEventsDeliveredInOrder(t *testing.T) {
	for i := 0; i < 25; i++ {
		h := newHarness()
		a := NewApp(context.Background(), h.deps,
			tea.WithInput(nil),
			tea.WithoutRenderer(),
			tea.WithoutSignalHandler(),
		)

		done := make(chan error, 1)
		go func() { done <- a.Run() }()

		call := domain.Call{SessionID: "s1", Initiator: domain.User{UID: "user2"}}
		h.client.EmitIncoming(call)
		h.client.EmitEnded(call)
		a.program.Quit()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("program did not quit")
		}
		if st := h.deps.Admission.State(); st != calls.Idle {
			t.Fatalf("run %d: admission = %v after incoming then ended, want idle", i, st)
		}
	}
}

func TestApp_SubscriptionsReleased(t *testing.T) {
	h := newHarness()
	a := NewApp(context.Background(), h.deps)

	if c, l := h.client.ListenerCounts(); c != 1 || l != 1 {
		t.Fatalf("listeners = %d calls, %d login; want 1 each", c, l)
	}
	a.Close()
	a.Close()
	if c, l := h.client.ListenerCounts(); c != 0 || l != 0 {
		t.Errorf("listeners = %d calls, %d login after Close; want 0", c, l)
	}
}
