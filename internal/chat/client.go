package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/danhigham/cometcharm/internal/domain"
)

// SubscriptionMode selects whose presence the platform pushes to us.
type SubscriptionMode string

const (
	SubscribeAllUsers SubscriptionMode = "ALL_USERS"
	SubscribeFriends  SubscriptionMode = "FRIENDS"
	SubscribeNone     SubscriptionMode = "NONE"
)

var (
	ErrNotInitialized = errors.New("chat: client not initialized")
	ErrNotLoggedIn    = errors.New("chat: no user logged in")
)

// APIError is a non-2xx response from the platform.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("chat: api status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("chat: api status %d: %s: %s", e.Status, e.Code, e.Message)
}

// CallHandlers receives call signaling events. Nil fields are skipped.
type CallHandlers struct {
	OnIncomingCallReceived  func(call domain.Call)
	OnOutgoingCallAccepted  func(call domain.Call)
	OnOutgoingCallRejected  func(call domain.Call)
	OnIncomingCallCancelled func(call domain.Call)
	OnCallEnded             func(call domain.Call)
}

// LoginHandlers receives authentication events. Nil fields are skipped.
type LoginHandlers struct {
	LoginSuccess  func(user domain.User)
	LoginFailure  func(err error)
	LogoutSuccess func()
	LogoutFailure func(err error)
}

// Client is the interface for chat platform operations.
type Client interface {
	Init(ctx context.Context, creds domain.Credentials, mode SubscriptionMode) error
	Login(ctx context.Context, uid string) (domain.User, error)
	Logout(ctx context.Context) error
	// LoggedInUser returns nil when there is no session.
	LoggedInUser(ctx context.Context) (*domain.User, error)

	AddCallListener(id string, h CallHandlers)
	RemoveCallListener(id string)
	// ActiveCall returns nil when no call is in progress.
	ActiveCall() (*domain.Call, error)
	RejectCall(ctx context.Context, sessionID string, status domain.CallStatus) error

	AddLoginListener(id string, h LoginHandlers)
	RemoveLoginListener(id string)

	Conversations(ctx context.Context) ([]domain.Conversation, error)
	Users(ctx context.Context) ([]domain.User, error)
	Groups(ctx context.Context) ([]domain.Group, error)

	Close() error
}
