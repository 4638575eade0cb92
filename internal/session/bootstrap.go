package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danhigham/cometcharm/internal/chat"
	"github.com/danhigham/cometcharm/internal/credentials"
	"github.com/danhigham/cometcharm/internal/domain"
)

// CredentialLoader reads the credentials saved from the settings screen.
type CredentialLoader interface {
	Load(ctx context.Context) (domain.Credentials, error)
}

// Bootstrap resolves credentials, initializes the chat client and checks
// for an existing session.
type Bootstrap struct {
	store       CredentialLoader
	defaults    domain.Credentials
	client      chat.Client
	logger      *zap.Logger
	initTimeout time.Duration
}

// NewBootstrap returns a Bootstrap. initTimeout bounds client init; zero
// leaves it unbounded.
func NewBootstrap(store CredentialLoader, defaults domain.Credentials, client chat.Client, logger *zap.Logger, initTimeout time.Duration) *Bootstrap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bootstrap{
		store:       store,
		defaults:    defaults,
		client:      client,
		logger:      logger.Named("bootstrap"),
		initTimeout: initTimeout,
	}
}

// Initialize never fails: every error downgrades the returned state and is
// logged. Initializing is false on every return path.
func (b *Bootstrap) Initialize(ctx context.Context) (st State) {
	st.Initializing = true
	defer func() {
		st.Initializing = false
		b.logger.Info("Bootstrap finished",
			zap.Bool("valid_credentials", st.ValidCredentials),
			zap.Bool("logged_in", st.LoggedIn),
			zap.Stringer("screen", SelectScreen(st)),
		)
	}()

	stored, err := b.store.Load(ctx)
	switch {
	case errors.Is(err, credentials.ErrCorrupt):
		b.logger.Warn("Stored credentials are corrupt, ignoring", zap.Error(err))
		stored = domain.Credentials{}
	case err != nil:
		b.logger.Warn("Failed to read stored credentials", zap.Error(err))
		stored = domain.Credentials{}
	}

	creds := credentials.Resolve(stored, b.defaults)
	if err := credentials.Validate(creds); err != nil {
		b.logger.Info("Credentials incomplete", zap.Error(err))
		return st
	}

	if err := b.initClient(ctx, creds); err != nil {
		b.logger.Error("Chat client init failed", zap.Error(err))
		return st
	}
	st.ValidCredentials = true

	user, err := b.client.LoggedInUser(ctx)
	if err != nil {
		b.logger.Warn("Failed to check existing session", zap.Error(err))
		return st
	}
	if user != nil {
		b.logger.Info("Restored session", zap.String("uid", user.UID))
		st.LoggedIn = true
	}
	return st
}

func (b *Bootstrap) initClient(ctx context.Context, creds domain.Credentials) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chat client init panicked: %v", r)
		}
	}()
	if b.initTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.initTimeout)
		defer cancel()
	}
	return b.client.Init(ctx, creds, chat.SubscribeAllUsers)
}
