// Package session decides, at startup, whether the app can talk to the chat
// platform and which screen the user lands on.
package session

// State is the outcome of Initialize. It exists only at the bootstrap
// boundary; the UI keeps the Screen it maps to.
type State struct {
	Initializing     bool
	ValidCredentials bool
	LoggedIn         bool
}

// Screen is the single top-level view the app presents.
type Screen int

const (
	ScreenLoading  Screen = iota
	ScreenSettings        // credentials missing or rejected
	ScreenLogin           // client ready, no session
	ScreenHome            // client ready, user logged in
)

func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenSettings:
		return "settings"
	case ScreenLogin:
		return "login"
	case ScreenHome:
		return "home"
	default:
		return "unknown"
	}
}

// SelectScreen maps a bootstrap state to exactly one screen. The first
// matching rule wins.
func SelectScreen(s State) Screen {
	switch {
	case s.Initializing:
		return ScreenLoading
	case !s.ValidCredentials:
		return ScreenSettings
	case !s.LoggedIn:
		return ScreenLogin
	default:
		return ScreenHome
	}
}
