// Package chattest provides an in-memory chat.Client for tests.
package chattest

import (
	"context"
	"sync"

	"github.com/danhigham/cometcharm/internal/chat"
	"github.com/danhigham/cometcharm/internal/domain"
)

// Reject records one RejectCall invocation.
type Reject struct {
	SessionID string
	Status    domain.CallStatus
}

// Client is a scriptable chat.Client. Set the exported fields before use;
// read recorded interactions through the accessor methods.
type Client struct {
	InitErr     error
	InitPanic   any
	LoggedInErr error
	LoginErr    error
	LogoutErr   error
	ActiveErr   error
	RejectErr   error
	DirErr      error

	UserList  []domain.User
	GroupList []domain.Group
	ConvList  []domain.Conversation

	mu             sync.Mutex
	session        *domain.User
	active         *domain.Call
	initCalls      []domain.Credentials
	modes          []chat.SubscriptionMode
	rejects        []Reject
	callListeners  map[string]chat.CallHandlers
	loginListeners map[string]chat.LoginHandlers
	closed         bool
}

var _ chat.Client = (*Client)(nil)

func New() *Client {
	return &Client{
		callListeners:  make(map[string]chat.CallHandlers),
		loginListeners: make(map[string]chat.LoginHandlers),
	}
}

// SetSession installs an existing authenticated session.
func (c *Client) SetSession(u *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = u
}

// SetActiveCall sets what ActiveCall reports.
func (c *Client) SetActiveCall(call *domain.Call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = call
}

func (c *Client) Init(ctx context.Context, creds domain.Credentials, mode chat.SubscriptionMode) error {
	if c.InitPanic != nil {
		panic(c.InitPanic)
	}
	c.mu.Lock()
	c.initCalls = append(c.initCalls, creds)
	c.modes = append(c.modes, mode)
	c.mu.Unlock()
	return c.InitErr
}

// InitCalls returns the credentials passed to every Init call.
func (c *Client) InitCalls() []domain.Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Credentials(nil), c.initCalls...)
}

// Modes returns the subscription mode passed to every Init call.
func (c *Client) Modes() []chat.SubscriptionMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.SubscriptionMode(nil), c.modes...)
}

func (c *Client) Login(ctx context.Context, uid string) (domain.User, error) {
	if c.LoginErr != nil {
		c.eachLogin(func(h chat.LoginHandlers) {
			if h.LoginFailure != nil {
				h.LoginFailure(c.LoginErr)
			}
		})
		return domain.User{}, c.LoginErr
	}
	user := domain.User{UID: uid, Name: uid}
	for _, u := range c.UserList {
		if u.UID == uid {
			user = u
		}
	}
	c.SetSession(&user)
	c.eachLogin(func(h chat.LoginHandlers) {
		if h.LoginSuccess != nil {
			h.LoginSuccess(user)
		}
	})
	return user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if c.LogoutErr != nil {
		c.eachLogin(func(h chat.LoginHandlers) {
			if h.LogoutFailure != nil {
				h.LogoutFailure(c.LogoutErr)
			}
		})
		return c.LogoutErr
	}
	c.SetSession(nil)
	c.eachLogin(func(h chat.LoginHandlers) {
		if h.LogoutSuccess != nil {
			h.LogoutSuccess()
		}
	})
	return nil
}

func (c *Client) LoggedInUser(ctx context.Context) (*domain.User, error) {
	if c.LoggedInErr != nil {
		return nil, c.LoggedInErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil
	}
	u := *c.session
	return &u, nil
}

func (c *Client) AddCallListener(id string, h chat.CallHandlers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callListeners[id] = h
}

func (c *Client) RemoveCallListener(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.callListeners, id)
}

func (c *Client) AddLoginListener(id string, h chat.LoginHandlers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loginListeners[id] = h
}

func (c *Client) RemoveLoginListener(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.loginListeners, id)
}

// ListenerCounts reports how many call and login listeners are registered.
func (c *Client) ListenerCounts() (calls, logins int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.callListeners), len(c.loginListeners)
}

func (c *Client) ActiveCall() (*domain.Call, error) {
	if c.ActiveErr != nil {
		return nil, c.ActiveErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil, nil
	}
	call := *c.active
	return &call, nil
}

func (c *Client) RejectCall(ctx context.Context, sessionID string, status domain.CallStatus) error {
	c.mu.Lock()
	c.rejects = append(c.rejects, Reject{SessionID: sessionID, Status: status})
	c.mu.Unlock()
	return c.RejectErr
}

// Rejects returns every RejectCall invocation in order.
func (c *Client) Rejects() []Reject {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Reject(nil), c.rejects...)
}

func (c *Client) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	if c.DirErr != nil {
		return nil, c.DirErr
	}
	return c.ConvList, nil
}

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	if c.DirErr != nil {
		return nil, c.DirErr
	}
	return c.UserList, nil
}

func (c *Client) Groups(ctx context.Context) ([]domain.Group, error) {
	if c.DirErr != nil {
		return nil, c.DirErr
	}
	return c.GroupList, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// EmitIncoming delivers an incoming call to every call listener.
func (c *Client) EmitIncoming(call domain.Call) {
	c.eachCall(func(h chat.CallHandlers) {
		if h.OnIncomingCallReceived != nil {
			h.OnIncomingCallReceived(call)
		}
	})
}

// EmitCancelled delivers an incoming-call-cancelled event.
func (c *Client) EmitCancelled(call domain.Call) {
	c.eachCall(func(h chat.CallHandlers) {
		if h.OnIncomingCallCancelled != nil {
			h.OnIncomingCallCancelled(call)
		}
	})
}

// EmitEnded delivers a call-ended event.
func (c *Client) EmitEnded(call domain.Call) {
	c.eachCall(func(h chat.CallHandlers) {
		if h.OnCallEnded != nil {
			h.OnCallEnded(call)
		}
	})
}

func (c *Client) eachCall(fn func(chat.CallHandlers)) {
	c.mu.Lock()
	hs := make([]chat.CallHandlers, 0, len(c.callListeners))
	for _, h := range c.callListeners {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		fn(h)
	}
}

func (c *Client) eachLogin(fn func(chat.LoginHandlers)) {
	c.mu.Lock()
	hs := make([]chat.LoginHandlers, 0, len(c.loginListeners))
	for _, h := range c.loginListeners {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		fn(h)
	}
}
