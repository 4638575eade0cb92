package ui

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/danhigham/cometcharm/internal/calls"
	"github.com/danhigham/cometcharm/internal/chat"
	"github.com/danhigham/cometcharm/internal/credentials"
	"github.com/danhigham/cometcharm/internal/domain"
	"github.com/danhigham/cometcharm/internal/session"
	"github.com/danhigham/cometcharm/internal/state"
)

// minLoadingTime keeps the loading screen up long enough to be read.
const minLoadingTime = 800 * time.Millisecond

// CredentialStore loads and saves the credentials edited on the settings screen.
type CredentialStore interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, c domain.Credentials) error
}

// Deps are the collaborators the UI drives.
type Deps struct {
	Bootstrap   *session.Bootstrap
	Credentials CredentialStore
	Client      chat.Client
	Admission   *calls.Admission
	Store       *state.Store
	Accounts    []domain.User // offered on the login screen
	Logger      *zap.Logger
}

// Model is the root Bubble Tea model. Only Update mutates the screen and
// the call admission state.
type Model struct {
	screen   session.Screen
	loading  LoadingModel
	settings SettingsModel
	login    LoginModel
	home     HomeModel
	alert    AlertModel
	help     HelpModel
	status   statusModel

	deps   Deps
	logger *zap.Logger

	width  int
	height int
}

// NewModel creates the root model, starting on the loading screen.
func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		screen:   session.ScreenLoading,
		loading:  NewLoadingModel(),
		settings: NewSettingsModel(),
		login:    NewLoginModel(deps.Accounts),
		home:     NewHomeModel(),
		help:     NewHelpModel(),
		status:   newStatusModel().SetScreen(session.ScreenLoading.String()),
		deps:     deps,
		logger:   logger.Named("ui"),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loading.Init(),
		m.runBootstrap(),
		loadingTimer(),
		clockTick(),
	)
}

func (m Model) Screen() session.Screen {
	return m.screen
}

func loadingTimer() tea.Cmd {
	return tea.Tick(minLoadingTime, func(time.Time) tea.Msg { return loadingTimerMsg{} })
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Minute, func(time.Time) tea.Msg { return clockTickMsg{} })
}

func (m Model) runBootstrap() tea.Cmd {
	b := m.deps.Bootstrap
	return func() tea.Msg {
		return bootstrapDoneMsg{state: b.Initialize(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.distributeSize()
		return m, nil

	case StoreUpdatedMsg:
		m = m.refreshFromStore()
		return m, nil

	case bootstrapDoneMsg:
		m.loading = m.loading.Ready(session.SelectScreen(msg.state))
		return m.leaveLoading()

	case loadingTimerMsg:
		m.loading = m.loading.TimerDone()
		return m.leaveLoading()

	case settingsLoadedMsg:
		m.settings = m.settings.SetValues(msg.creds)
		return m, nil

	case saveSettingsMsg:
		if err := credentials.Validate(msg.creds); err != nil {
			m.alert = m.alert.ShowError("Error", "Please fill in all fields")
			return m, nil
		}
		store := m.deps.Credentials
		creds := msg.creds
		return m, func() tea.Msg {
			return credentialsSavedMsg{err: store.Save(context.Background(), creds)}
		}

	case credentialsSavedMsg:
		if msg.err != nil {
			m.logger.Error("Failed to save credentials", zap.Error(msg.err))
			m.alert = m.alert.ShowError("Error", "Failed to save credentials")
			return m, nil
		}
		m.alert = m.alert.Show("Success", "Credentials saved successfully!")
		return m.enterScreen(session.ScreenLoading)

	case openSettingsMsg:
		return m.enterScreen(session.ScreenSettings)

	case loginSelectedMsg:
		if m.login.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.login, cmd = m.login.SetBusy(true)
		client := m.deps.Client
		uid := msg.uid
		return m, tea.Batch(cmd, func() tea.Msg {
			user, err := client.Login(context.Background(), uid)
			return loginDoneMsg{user: user, err: err}
		})

	case loginDoneMsg:
		m.login, _ = m.login.SetBusy(false)
		if msg.err != nil {
			m.logger.Warn("Login failed", zap.Error(msg.err))
			m.alert = m.alert.ShowError("Login Failed", msg.err.Error())
			return m, nil
		}
		m.alert = m.alert.Show("Success", fmt.Sprintf("Welcome %s!", msg.user.Name))
		return m.loggedIn(msg.user)

	case LoginEventMsg:
		return m.loggedIn(msg.User)

	case logoutRequestedMsg:
		client := m.deps.Client
		return m, func() tea.Msg {
			return logoutDoneMsg{err: client.Logout(context.Background())}
		}

	case logoutDoneMsg:
		if msg.err != nil {
			m.logger.Warn("Logout failed", zap.Error(msg.err))
			m.alert = m.alert.ShowError("Logout Failed", msg.err.Error())
			return m, nil
		}
		m.alert = m.alert.Show("Success", "Logged out successfully")
		return m.loggedOut()

	case LogoutEventMsg:
		return m.loggedOut()

	case loadTabMsg:
		m.deps.Store.SetActiveTab(msg.tab)
		if !msg.force && m.deps.Store.Loaded(msg.tab) {
			m.home = m.home.Refresh(m.deps.Store)
			return m, nil
		}
		return m, loadTab(m.deps.Client, m.deps.Store, msg.tab)

	case tabLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to load tab", zap.Stringer("tab", msg.tab), zap.Error(msg.err))
			m.status.text = "Load failed"
			m.status.connected = false
			return m, nil
		}
		m.status.text = "Online"
		m.status.connected = true
		m.home = m.home.Refresh(m.deps.Store)
		return m, nil

	case IncomingCallMsg:
		if m.deps.Admission.Incoming(msg.Call) == calls.Presented {
			m.status = m.status.SetCall("RINGING")
		}
		return m, nil

	case OutgoingCallAcceptedMsg:
		m.status = m.status.SetCall("ON CALL")
		return m, nil

	case OutgoingCallRejectedMsg:
		m.deps.Admission.OutgoingRejected(msg.Call)
		m.status = m.status.SetCall("")
		return m, nil

	case IncomingCallCancelledMsg:
		m.deps.Admission.IncomingCancelled(msg.Call)
		m.status = m.status.SetCall("")
		return m, nil

	case CallEndedMsg:
		m.deps.Admission.Ended(msg.Call)
		m.status = m.status.SetCall("")
		return m, nil

	case StatusMsg:
		m.status.text = msg.Text
		m.status.connected = msg.Connected
		return m, nil

	case clockTickMsg:
		return m, clockTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateScreen(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.alert.IsVisible() {
		m.alert = m.alert.Update(msg)
		return m, nil
	}

	if m.help.IsVisible() {
		switch key {
		case "?", "f1", "esc":
			m.help = m.help.Toggle()
		}
		return m, nil
	}

	if m.callVisible() && key == "d" && !m.takesText() {
		m.deps.Admission.Decline()
		m.status = m.status.SetCall("")
		return m, nil
	}

	switch key {
	case "f1":
		m.help = m.help.Toggle()
		return m, nil
	case "?":
		if !m.takesText() {
			m.help = m.help.Toggle()
			return m, nil
		}
	}

	return m.updateScreen(msg)
}

// takesText reports whether printable keys belong to a text field: the
// settings form or a list filter.
func (m Model) takesText() bool {
	switch m.screen {
	case session.ScreenSettings:
		return true
	case session.ScreenLogin:
		return m.login.accounts.Filtering()
	case session.ScreenHome:
		return m.home.Filtering()
	}
	return false
}

// updateScreen forwards msg to the active screen.
func (m Model) updateScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case session.ScreenLoading:
		m.loading, cmd = m.loading.Update(msg)
	case session.ScreenSettings:
		m.settings, cmd = m.settings.Update(msg)
	case session.ScreenLogin:
		m.login, cmd = m.login.Update(msg)
	case session.ScreenHome:
		m.home, cmd = m.home.Update(msg)
	}
	return m, cmd
}

// callVisible reports whether the incoming call prompt is on screen. It is
// only presented to a logged-in user.
func (m Model) callVisible() bool {
	return m.screen == session.ScreenHome && m.deps.Admission.State() == calls.RingingLocal
}

func (m Model) leaveLoading() (tea.Model, tea.Cmd) {
	if m.screen != session.ScreenLoading {
		return m, nil
	}
	next, ok := m.loading.Done()
	if !ok {
		return m, nil
	}
	return m.enterScreen(next)
}

func (m Model) loggedIn(user domain.User) (tea.Model, tea.Cmd) {
	m.deps.Store.SetCurrentUser(&user)
	m.status = m.status.SetUserName(user.Name)
	if m.screen == session.ScreenHome {
		return m, nil
	}
	return m.enterScreen(session.ScreenHome)
}

func (m Model) loggedOut() (tea.Model, tea.Cmd) {
	if m.screen != session.ScreenHome {
		return m, nil
	}
	m.deps.Store.Reset()
	m.deps.Admission.Reset()
	m.home = m.home.Reset()
	m.status = m.status.SetCall("")
	m.status = m.status.SetUserName("")
	return m.enterScreen(session.ScreenLogin)
}

// enterScreen switches the top-level screen and starts whatever it needs.
func (m Model) enterScreen(s session.Screen) (tea.Model, tea.Cmd) {
	m.logger.Debug("Screen change", zap.Stringer("from", m.screen), zap.Stringer("to", s))
	m.screen = s
	m.status = m.status.SetScreen(s.String())

	switch s {
	case session.ScreenLoading:
		m.loading = m.loading.Reset()
		m.status.text = "Starting"
		m.status.connected = false
		return m, tea.Batch(m.loading.Init(), m.runBootstrap(), loadingTimer())

	case session.ScreenSettings:
		m.status.text = "Not configured"
		m.status.connected = false
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Focus()
		store := m.deps.Credentials
		logger := m.logger
		return m, tea.Batch(cmd, func() tea.Msg {
			creds, err := store.Load(context.Background())
			if err != nil {
				logger.Warn("Could not prefill settings", zap.Error(err))
			}
			return settingsLoadedMsg{creds: creds}
		})

	case session.ScreenLogin:
		m.status.text = "Ready"
		m.status.connected = true
		m.login = NewLoginModel(m.deps.Accounts).SetSize(m.width, m.bodyHeight())
		return m, nil

	case session.ScreenHome:
		m.status.text = "Online"
		m.status.connected = true
		var cmd tea.Cmd
		m.home, cmd = m.home.SetTab(m.deps.Store.ActiveTab())
		return m, tea.Batch(cmd, loadCurrentUser(m.deps.Client, m.deps.Store))
	}
	return m, nil
}

func loadCurrentUser(client chat.Client, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		u, err := client.LoggedInUser(context.Background())
		if err != nil {
			return StatusMsg{Text: "Session error", Connected: false}
		}
		if u != nil {
			store.SetCurrentUser(u)
		}
		return StoreUpdatedMsg{}
	}
}

func loadTab(client chat.Client, store *state.Store, tab state.Tab) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		switch tab {
		case state.TabConversations:
			var convs []domain.Conversation
			if convs, err = client.Conversations(ctx); err == nil {
				store.SetConversations(convs)
			}
		case state.TabUsers:
			var users []domain.User
			if users, err = client.Users(ctx); err == nil {
				store.SetUsers(users)
			}
		case state.TabGroups:
			var groups []domain.Group
			if groups, err = client.Groups(ctx); err == nil {
				store.SetGroups(groups)
			}
		}
		return tabLoadedMsg{tab: tab, err: err}
	}
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	var body string
	switch m.screen {
	case session.ScreenLoading:
		body = m.loading.View()
	case session.ScreenSettings:
		body = m.settings.View()
	case session.ScreenLogin:
		body = m.login.View()
	case session.ScreenHome:
		body = m.home.View()
	}

	// Clamp to terminal dimensions, leaving the last row for the status bar.
	bodyH := m.bodyHeight()
	body = lipgloss.NewStyle().
		Width(m.width).
		Height(bodyH).
		MaxWidth(m.width).
		MaxHeight(bodyH).
		Render(body)
	content := lipgloss.JoinVertical(lipgloss.Left, body, m.status.View())

	if m.callVisible() {
		if call, ok := m.deps.Admission.Pending(); ok {
			content = overlay(content, callBox(call), m.width, m.height)
		}
	}
	if m.help.IsVisible() {
		content = overlay(content, m.help.View(), m.width, m.height)
	}
	if m.alert.IsVisible() {
		content = overlay(content, m.alert.View(m.width), m.width, m.height)
	}

	v.SetContent(content)
	return v
}

func (m Model) bodyHeight() int {
	h := m.height - 1
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) distributeSize() Model {
	h := m.bodyHeight()
	m.loading = m.loading.SetSize(m.width, h)
	m.settings = m.settings.SetSize(m.width, h)
	m.login = m.login.SetSize(m.width, h)
	m.home = m.home.SetSize(m.width, h)
	m.status = m.status.SetWidth(m.width)
	return m
}

func (m Model) refreshFromStore() Model {
	if u, ok := m.deps.Store.CurrentUser(); ok {
		m.status = m.status.SetUserName(u.Name)
	}
	if m.screen == session.ScreenHome {
		m.home = m.home.Refresh(m.deps.Store)
	}
	return m
}

// App wraps the Bubble Tea program for external use.
type App struct {
	program     *tea.Program
	unsubscribe []chat.Unsubscribe
}

// NewApp creates a new App ready to Run and subscribes it to the chat
// client's call and login events. Run releases the subscriptions.
func NewApp(ctx context.Context, deps Deps, opts ...tea.ProgramOption) *App {
	model := NewModel(deps)
	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
	a := &App{program: p}
	if deps.Store != nil {
		deps.Store.SetDrawFunc(a.DrawFunc())
	}
	a.subscribe(deps.Client)
	return a
}

func (a *App) subscribe(c chat.Client) {
	a.unsubscribe = append(a.unsubscribe,
		chat.SubscribeCalls(c, chat.CallHandlers{
			OnIncomingCallReceived:  func(call domain.Call) { a.deliver(IncomingCallMsg{Call: call}) },
			OnOutgoingCallAccepted:  func(call domain.Call) { a.deliver(OutgoingCallAcceptedMsg{Call: call}) },
			OnOutgoingCallRejected:  func(call domain.Call) { a.deliver(OutgoingCallRejectedMsg{Call: call}) },
			OnIncomingCallCancelled: func(call domain.Call) { a.deliver(IncomingCallCancelledMsg{Call: call}) },
			OnCallEnded:             func(call domain.Call) { a.deliver(CallEndedMsg{Call: call}) },
		}),
		chat.SubscribeLogin(c, chat.LoginHandlers{
			LoginSuccess:  func(u domain.User) { a.deliver(LoginEventMsg{User: u}) },
			LogoutSuccess: func() { a.deliver(LogoutEventMsg{}) },
		}),
	)
}

// deliver hands a listener event to the event loop on the caller's
// goroutine, so events reach Update in the order the client fired them.
// It blocks until the loop takes msg or the program stops.
func (a *App) deliver(msg tea.Msg) {
	a.program.Send(msg)
}

// Run starts the Bubble Tea event loop (blocks until quit).
func (a *App) Run() error {
	defer a.Close()
	_, err := a.program.Run()
	return err
}

// Close releases the chat listener subscriptions. It is safe to call more
// than once.
func (a *App) Close() {
	for _, unsub := range a.unsubscribe {
		unsub()
	}
}

// Send posts msg to the event loop without blocking. Ordering between
// calls is not preserved, so it only carries redraw requests.
func (a *App) Send(msg tea.Msg) {
	go a.program.Send(msg)
}

// DrawFunc returns a function suitable for state.Store that triggers a re-render.
func (a *App) DrawFunc() func() {
	return func() {
		a.Send(StoreUpdatedMsg{})
	}
}
