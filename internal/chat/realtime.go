package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/danhigham/cometcharm/internal/domain"
)

type callAction string

const (
	actionInitiated callAction = "initiated"
	actionOngoing   callAction = "ongoing"
	actionRejected  callAction = "rejected"
	actionBusy      callAction = "busy"
	actionCancelled callAction = "cancelled"
	actionEnded     callAction = "ended"
)

const (
	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
	pongWait          = 60 * time.Second
)

// event is the envelope pushed over the realtime socket.
type event struct {
	Type   string     `json:"type"`
	Action callAction `json:"action"`
	Call   *apiCall   `json:"call,omitempty"`
}

type apiCall struct {
	SessionID   string  `json:"sessionId"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Initiator   apiUser `json:"initiator"`
	Receiver    string  `json:"receiver"`
	InitiatedAt int64   `json:"initiatedAt"`
}

func (c apiCall) toDomain() domain.Call {
	call := domain.Call{
		SessionID: c.SessionID,
		Type:      domain.CallType(c.Type),
		Status:    domain.CallStatus(c.Status),
		Initiator: c.Initiator.toDomain(),
		Receiver:  c.Receiver,
	}
	if c.InitiatedAt > 0 {
		call.InitiatedAt = time.Unix(c.InitiatedAt, 0)
	}
	return call
}

// eventStream keeps a websocket open to the realtime endpoint and hands
// every decoded event to handle. It reconnects with backoff until stopped.
type eventStream struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	handle func(event)
	logger *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func startEventStream(url string, header http.Header, dialer *websocket.Dialer, handle func(event), logger *zap.Logger) *eventStream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &eventStream{
		url:    url,
		header: header,
		dialer: dialer,
		handle: handle,
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Stop closes the socket and waits for the reader to exit.
func (s *eventStream) Stop() {
	s.cancel()
	<-s.done
}

func (s *eventStream) run(ctx context.Context) {
	defer close(s.done)

	delay := minReconnectDelay
	for {
		connected, err := s.connectOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			delay = minReconnectDelay
		}
		s.logger.Warn("realtime stream disconnected", zap.Error(err), zap.Duration("retry_in", delay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (s *eventStream) connectOnce(ctx context.Context) (bool, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// Unblock ReadMessage when the stream is stopped.
	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	s.logger.Debug("realtime stream connected", zap.String("url", s.url))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.logger.Warn("dropping malformed realtime event", zap.Error(err))
			continue
		}
		s.handle(ev)
	}
}
