package chat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/danhigham/cometcharm/internal/domain"
)

// listeners is a registry of call and login handlers keyed by listener id.
// Registering an id twice replaces the earlier handlers.
type listeners struct {
	mu    sync.RWMutex
	calls map[string]CallHandlers
	login map[string]LoginHandlers
}

func newListeners() *listeners {
	return &listeners{
		calls: make(map[string]CallHandlers),
		login: make(map[string]LoginHandlers),
	}
}

func (l *listeners) addCall(id string, h CallHandlers) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[id] = h
}

func (l *listeners) removeCall(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.calls, id)
}

func (l *listeners) addLogin(id string, h LoginHandlers) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.login[id] = h
}

func (l *listeners) removeLogin(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.login, id)
}

// callSnapshot copies the handlers so callbacks run without the lock held.
func (l *listeners) callSnapshot() []CallHandlers {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]CallHandlers, 0, len(l.calls))
	for _, h := range l.calls {
		out = append(out, h)
	}
	return out
}

func (l *listeners) loginSnapshot() []LoginHandlers {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LoginHandlers, 0, len(l.login))
	for _, h := range l.login {
		out = append(out, h)
	}
	return out
}

func (l *listeners) emitCall(action callAction, call domain.Call) {
	for _, h := range l.callSnapshot() {
		var fn func(domain.Call)
		switch action {
		case actionInitiated:
			fn = h.OnIncomingCallReceived
		case actionOngoing:
			fn = h.OnOutgoingCallAccepted
		case actionRejected:
			fn = h.OnOutgoingCallRejected
		case actionCancelled:
			fn = h.OnIncomingCallCancelled
		case actionEnded:
			fn = h.OnCallEnded
		}
		if fn != nil {
			fn(call)
		}
	}
}

func (l *listeners) emitLoginSuccess(user domain.User) {
	for _, h := range l.loginSnapshot() {
		if h.LoginSuccess != nil {
			h.LoginSuccess(user)
		}
	}
}

func (l *listeners) emitLoginFailure(err error) {
	for _, h := range l.loginSnapshot() {
		if h.LoginFailure != nil {
			h.LoginFailure(err)
		}
	}
}

func (l *listeners) emitLogoutSuccess() {
	for _, h := range l.loginSnapshot() {
		if h.LogoutSuccess != nil {
			h.LogoutSuccess()
		}
	}
}

func (l *listeners) emitLogoutFailure(err error) {
	for _, h := range l.loginSnapshot() {
		if h.LogoutFailure != nil {
			h.LogoutFailure(err)
		}
	}
}

// Unsubscribe releases a listener registration. Calling it more than once
// is a no-op.
type Unsubscribe func()

// SubscribeCalls registers h under a fresh listener id and returns the
// matching release func, so a subscriber can never leave a stale listener
// behind or collide with another subscriber's id.
func SubscribeCalls(c Client, h CallHandlers) Unsubscribe {
	id := "calls-" + uuid.NewString()
	c.AddCallListener(id, h)
	var once sync.Once
	return func() {
		once.Do(func() { c.RemoveCallListener(id) })
	}
}

// SubscribeLogin is the login-event counterpart of SubscribeCalls.
func SubscribeLogin(c Client, h LoginHandlers) Unsubscribe {
	id := "login-" + uuid.NewString()
	c.AddLoginListener(id, h)
	var once sync.Once
	return func() {
		once.Do(func() { c.RemoveLoginListener(id) })
	}
}
