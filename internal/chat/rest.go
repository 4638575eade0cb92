package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/danhigham/cometcharm/internal/domain"
	"github.com/danhigham/cometcharm/internal/storage"
)

// SessionKey is the storage key holding the logged-in user's session.
const SessionKey = "chatSession"

const (
	defaultHTTPTimeout = 15 * time.Second
	pageSize           = 100
)

// KV is the durable store used to keep the session across restarts.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Options configures a RESTClient. Zero values select the platform defaults.
type Options struct {
	BaseURL     string // e.g. https://{appId}.api-{region}.cometchat.io/v3
	RealtimeURL string // e.g. wss://{appId}.ws-{region}.cometchat.io/v3/events
	HTTPClient  *http.Client
	Dialer      *websocket.Dialer
	Sessions    KV
	Logger      *zap.Logger
}

type storedSession struct {
	AppID     string `json:"appId"`
	UID       string `json:"uid"`
	Name      string `json:"name"`
	AuthToken string `json:"authToken"`
}

// RESTClient implements Client against the CometChat REST API with a
// websocket for realtime call events.
type RESTClient struct {
	opts      Options
	http      *http.Client
	logger    *zap.Logger
	listeners *listeners

	mu          sync.Mutex
	initialized bool
	creds       domain.Credentials
	mode        SubscriptionMode
	baseURL     string
	realtimeURL string
	session     *storedSession
	activeCall  *domain.Call
	stream      *eventStream
}

func NewRESTClient(opts Options) *RESTClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTClient{
		opts:      opts,
		http:      httpClient,
		logger:    logger.Named("chat"),
		listeners: newListeners(),
	}
}

// Init checks the credentials against the platform and restores a
// previously stored session for the same app.
func (c *RESTClient) Init(ctx context.Context, creds domain.Credentials, mode SubscriptionMode) error {
	creds = creds.Trimmed()
	baseURL := c.opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api-%s.cometchat.io/v3", creds.AppID, strings.ToLower(creds.Region))
	}
	realtimeURL := c.opts.RealtimeURL
	if realtimeURL == "" {
		realtimeURL = fmt.Sprintf("wss://%s.ws-%s.cometchat.io/v3/events", creds.AppID, strings.ToLower(creds.Region))
	}

	c.mu.Lock()
	old := c.detachStreamLocked()
	c.creds = creds
	c.mode = mode
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.realtimeURL = realtimeURL
	c.initialized = false
	c.session = nil
	c.activeCall = nil
	c.mu.Unlock()
	stopStream(old)

	// Cheapest authenticated call; rejects a bad app id, key or region.
	if err := c.do(ctx, http.MethodGet, "/users?perPage=1", "", nil, nil); err != nil {
		return fmt.Errorf("chat: init: %w", err)
	}

	sess, err := c.loadSession(ctx)
	if err != nil {
		c.logger.Warn("Ignoring unreadable stored session", zap.Error(err))
	}
	if sess != nil && sess.AppID != creds.AppID {
		c.logger.Info("Discarding session for another app", zap.String("uid", sess.UID))
		sess = nil
	}

	c.mu.Lock()
	c.initialized = true
	c.session = sess
	if sess != nil {
		c.startStreamLocked()
	}
	c.mu.Unlock()

	c.logger.Info("Chat client initialized",
		zap.String("app_id", creds.AppID),
		zap.String("region", creds.Region),
		zap.Bool("auth_key_present", creds.AuthKey != ""),
		zap.String("subscription", string(mode)),
	)
	return nil
}

func (c *RESTClient) Login(ctx context.Context, uid string) (domain.User, error) {
	user, err := c.login(ctx, uid)
	if err != nil {
		c.listeners.emitLoginFailure(err)
		return domain.User{}, err
	}
	c.listeners.emitLoginSuccess(user)
	return user, nil
}

func (c *RESTClient) login(ctx context.Context, uid string) (domain.User, error) {
	if !c.isInitialized() {
		return domain.User{}, ErrNotInitialized
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return domain.User{}, errors.New("chat: login: empty uid")
	}

	var token struct {
		UID       string `json:"uid"`
		AuthToken string `json:"authToken"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(uid)+"/auth_tokens", "", struct{}{}, &token); err != nil {
		return domain.User{}, fmt.Errorf("chat: login %s: %w", uid, err)
	}

	var u apiUser
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(uid), "", nil, &u); err != nil {
		return domain.User{}, fmt.Errorf("chat: fetch user %s: %w", uid, err)
	}
	user := u.toDomain()

	c.mu.Lock()
	old := c.detachStreamLocked()
	sess := &storedSession{AppID: c.creds.AppID, UID: user.UID, Name: user.Name, AuthToken: token.AuthToken}
	c.session = sess
	c.startStreamLocked()
	c.mu.Unlock()
	stopStream(old)

	if err := c.saveSession(ctx, sess); err != nil {
		c.logger.Warn("Failed to persist session", zap.Error(err))
	}
	c.logger.Info("Logged in", zap.String("uid", user.UID))
	return user, nil
}

func (c *RESTClient) Logout(ctx context.Context) error {
	if err := c.logout(ctx); err != nil {
		c.listeners.emitLogoutFailure(err)
		return err
	}
	c.listeners.emitLogoutSuccess()
	return nil
}

func (c *RESTClient) logout(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return ErrNotLoggedIn
	}

	path := "/users/" + url.PathEscape(sess.UID) + "/auth_tokens/" + url.PathEscape(sess.AuthToken)
	if err := c.do(ctx, http.MethodDelete, path, "", nil, nil); err != nil {
		return fmt.Errorf("chat: logout: %w", err)
	}

	c.mu.Lock()
	old := c.detachStreamLocked()
	c.session = nil
	c.activeCall = nil
	c.mu.Unlock()
	stopStream(old)

	if c.opts.Sessions != nil {
		if err := c.opts.Sessions.Delete(ctx, SessionKey); err != nil {
			c.logger.Warn("Failed to clear stored session", zap.Error(err))
		}
	}
	c.logger.Info("Logged out", zap.String("uid", sess.UID))
	return nil
}

func (c *RESTClient) LoggedInUser(ctx context.Context) (*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	if c.session == nil {
		return nil, nil
	}
	return &domain.User{UID: c.session.UID, Name: c.session.Name}, nil
}

func (c *RESTClient) AddCallListener(id string, h CallHandlers) {
	c.listeners.addCall(id, h)
}

func (c *RESTClient) RemoveCallListener(id string) {
	c.listeners.removeCall(id)
}

func (c *RESTClient) AddLoginListener(id string, h LoginHandlers) {
	c.listeners.addLogin(id, h)
}

func (c *RESTClient) RemoveLoginListener(id string) {
	c.listeners.removeLogin(id)
}

func (c *RESTClient) ActiveCall() (*domain.Call, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	if c.activeCall == nil {
		return nil, nil
	}
	call := *c.activeCall
	return &call, nil
}

func (c *RESTClient) RejectCall(ctx context.Context, sessionID string, status domain.CallStatus) error {
	uid, err := c.currentUID()
	if err != nil {
		return err
	}
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPut, "/calls/"+url.PathEscape(sessionID), uid, body, nil); err != nil {
		return fmt.Errorf("chat: reject call %s: %w", sessionID, err)
	}
	return nil
}

func (c *RESTClient) Users(ctx context.Context) ([]domain.User, error) {
	uid, err := c.currentUID()
	if err != nil {
		return nil, err
	}
	var raw []apiUser
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users?perPage=%d", pageSize), uid, nil, &raw); err != nil {
		return nil, fmt.Errorf("chat: list users: %w", err)
	}
	users := make([]domain.User, 0, len(raw))
	for _, u := range raw {
		if u.UID == uid {
			continue
		}
		users = append(users, u.toDomain())
	}
	return users, nil
}

func (c *RESTClient) Groups(ctx context.Context) ([]domain.Group, error) {
	uid, err := c.currentUID()
	if err != nil {
		return nil, err
	}
	var raw []apiGroup
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/groups?perPage=%d", pageSize), uid, nil, &raw); err != nil {
		return nil, fmt.Errorf("chat: list groups: %w", err)
	}
	groups := make([]domain.Group, len(raw))
	for i, g := range raw {
		groups[i] = g.toDomain()
	}
	return groups, nil
}

func (c *RESTClient) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	uid, err := c.currentUID()
	if err != nil {
		return nil, err
	}
	var raw []apiConversation
	path := fmt.Sprintf("/users/%s/conversations?perPage=%d", url.PathEscape(uid), pageSize)
	if err := c.do(ctx, http.MethodGet, path, uid, nil, &raw); err != nil {
		return nil, fmt.Errorf("chat: list conversations: %w", err)
	}
	convs := make([]domain.Conversation, len(raw))
	for i, cv := range raw {
		convs[i] = cv.toDomain()
	}
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

// Close stops the realtime stream.
func (c *RESTClient) Close() error {
	c.mu.Lock()
	old := c.detachStreamLocked()
	c.mu.Unlock()
	stopStream(old)
	return nil
}

func (c *RESTClient) isInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

func (c *RESTClient) currentUID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return "", ErrNotInitialized
	}
	if c.session == nil {
		return "", ErrNotLoggedIn
	}
	return c.session.UID, nil
}

func (c *RESTClient) loadSession(ctx context.Context) (*storedSession, error) {
	if c.opts.Sessions == nil {
		return nil, nil
	}
	raw, err := c.opts.Sessions.Get(ctx, SessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess storedSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.UID == "" || sess.AuthToken == "" {
		return nil, nil
	}
	return &sess, nil
}

func (c *RESTClient) saveSession(ctx context.Context, sess *storedSession) error {
	if c.opts.Sessions == nil {
		return nil
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return c.opts.Sessions.Set(ctx, SessionKey, string(data))
}

// startStreamLocked must be called with c.mu held, a session set and
// any previous stream detached.
func (c *RESTClient) startStreamLocked() {
	header := http.Header{}
	header.Set("appid", c.creds.AppID)
	header.Set("authtoken", c.session.AuthToken)
	c.stream = startEventStream(c.realtimeURL, header, c.opts.Dialer, c.handleEvent, c.logger.Named("realtime"))
}

// detachStreamLocked hands back the running stream so the caller can stop
// it after releasing c.mu; the reader goroutine takes c.mu in handleEvent.
func (c *RESTClient) detachStreamLocked() *eventStream {
	s := c.stream
	c.stream = nil
	return s
}

func stopStream(s *eventStream) {
	if s != nil {
		s.Stop()
	}
}

// handleEvent tracks the active call and fans events out to listeners.
func (c *RESTClient) handleEvent(ev event) {
	if ev.Type != "call" || ev.Call == nil {
		return
	}
	call := ev.Call.toDomain()

	c.mu.Lock()
	self := ""
	if c.session != nil {
		self = c.session.UID
	}
	outgoing := call.Initiator.UID == self
	switch ev.Action {
	case actionOngoing:
		active := call
		c.activeCall = &active
	case actionCancelled, actionEnded, actionRejected, actionBusy:
		if c.activeCall != nil && c.activeCall.SessionID == call.SessionID {
			c.activeCall = nil
		}
	}
	c.mu.Unlock()

	switch ev.Action {
	case actionInitiated:
		if outgoing {
			return
		}
		c.listeners.emitCall(actionInitiated, call)
	case actionOngoing:
		c.listeners.emitCall(actionOngoing, call)
	case actionRejected, actionBusy:
		if outgoing {
			c.listeners.emitCall(actionRejected, call)
		}
	case actionCancelled:
		if !outgoing {
			c.listeners.emitCall(actionCancelled, call)
		}
	case actionEnded:
		c.listeners.emitCall(actionEnded, call)
	default:
		c.logger.Debug("Ignoring call event", zap.String("action", string(ev.Action)))
	}
}

// do sends a JSON request and decodes the "data" member of the response
// into out. onBehalfOf, when set, scopes the request to that user.
func (c *RESTClient) do(ctx context.Context, method, path, onBehalfOf string, body, out any) error {
	c.mu.Lock()
	baseURL := c.baseURL
	creds := c.creds
	c.mu.Unlock()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("appid", creds.AppID)
	req.Header.Set("apikey", creds.AuthKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if onBehalfOf != "" {
		req.Header.Set("onBehalfOf", onBehalfOf)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(payload, &envelope) == nil && envelope.Error.Code != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
