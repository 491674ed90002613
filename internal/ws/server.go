// Package ws serves the live session socket: every connected client gets
// each new snapshot of its session and may send join and command messages
// that are applied through the session service.
package ws

import (
	"context"
	"encoding/json"
	"expvar"
	"net/http"
	"time"

	"lane-games/internal/app/session"
	"lane-games/internal/game"
	"lane-games/internal/identity"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 16 << 10
	sendBuffer     = 8
)

var (
	metricWSConnectionsTotal  = expvar.NewInt("ws_connections_total")
	metricWSConnectionsActive = expvar.NewInt("ws_connections_active")
	metricWSMessagesRejected  = expvar.NewInt("ws_messages_rejected_total")
)

type outbound struct {
	data  []byte
	final bool
}

type Client struct {
	conn  *websocket.Conn
	send  chan outbound
	actor identity.Identity
	code  string
}

type Server struct {
	svc      *session.Service
	upgrader websocket.Upgrader
}

func NewServer(svc *session.Service) *Server {
	return &Server{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades a request on /sessions/{code}/ws. The subscription is
// opened before the upgrade so unknown codes still get a plain 404.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.FromContext(r.Context())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	code, _ := session.NormalizeCode(chi.URLParam(r, "code"))
	snaps, unsubscribe, err := s.svc.Subscribe(ctx, code)
	if err != nil {
		errStr := session.ErrorCode(err)
		status := http.StatusInternalServerError
		if errStr == session.ErrSessionNotFound.Error() {
			status = http.StatusNotFound
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": errStr})
		return
	}
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{conn: conn, send: make(chan outbound, sendBuffer), actor: actor, code: code}

	metricWSConnectionsTotal.Add(1)
	metricWSConnectionsActive.Add(1)
	defer metricWSConnectionsActive.Add(-1)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(client)
	}()
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		s.pump(ctx, client, snaps)
	}()

	s.readLoop(ctx, client)
	cancel()
	<-pumpDone
	close(client.send)
	<-writerDone
	log.Info().Str("code", client.code).Str("uid", actor.UID).Msg("ws client disconnected")
}

// pump forwards snapshots until the subscription ends. A closed
// subscription means the session was deleted.
func (s *Server) pump(ctx context.Context, c *Client, snaps <-chan *game.Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case sess, ok := <-snaps:
			if !ok {
				msg, _ := json.Marshal(SessionDeleted{Type: TypeSessionDeleted, ProtocolVersion: ProtocolVersion, Code: c.code})
				s.enqueue(ctx, c, outbound{data: msg, final: true})
				return
			}
			msg, err := json.Marshal(Snapshot{Type: TypeSnapshot, ProtocolVersion: ProtocolVersion, Session: sess})
			if err != nil {
				log.Error().Err(err).Str("code", sess.Code).Msg("encode ws snapshot")
				continue
			}
			s.enqueue(ctx, c, outbound{data: msg})
		}
	}
}

func (s *Server) readLoop(ctx context.Context, c *Client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(ctx, c, msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, c *Client, msg []byte) {
	var base struct {
		Type      string `json:"type"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		metricWSMessagesRejected.Add(1)
		s.sendResult(ctx, c, TypeError, "", nil, "invalid_json")
		return
	}
	if base.RequestID == "" || len(base.RequestID) > maxRequestIDLen {
		metricWSMessagesRejected.Add(1)
		s.sendResult(ctx, c, resultType(base.Type), base.RequestID, nil, "invalid_request_id")
		return
	}
	code := c.code
	switch base.Type {
	case TypeJoin:
		var join JoinMessage
		if err := json.Unmarshal(msg, &join); err != nil {
			s.sendResult(ctx, c, TypeJoinResult, base.RequestID, nil, "invalid_json")
			return
		}
		name := join.Name
		if name == "" {
			name = c.actor.DisplayName
		}
		sess, err := s.svc.Join(ctx, code, c.actor, name)
		s.sendResult(ctx, c, TypeJoinResult, join.RequestID, sess, errCode(err))
	case TypeCommand:
		var cmd CommandMessage
		if err := json.Unmarshal(msg, &cmd); err != nil {
			s.sendResult(ctx, c, TypeCommandResult, base.RequestID, nil, "invalid_json")
			return
		}
		sess, err := s.svc.Apply(ctx, code, c.actor, cmd.Command, cmd.ExpectedVersion)
		if err != nil {
			metricWSMessagesRejected.Add(1)
		}
		s.sendResult(ctx, c, TypeCommandResult, cmd.RequestID, sess, errCode(err))
	default:
		metricWSMessagesRejected.Add(1)
		s.sendResult(ctx, c, TypeError, base.RequestID, nil, "unknown_message_type")
	}
}

func (s *Server) sendResult(ctx context.Context, c *Client, typ, requestID string, sess *game.Session, errStr string) {
	res := Result{Type: typ, ProtocolVersion: ProtocolVersion, RequestID: requestID, Ok: errStr == "", Error: errStr}
	if sess != nil && res.Ok {
		res.Version = sess.Version
	}
	msg, _ := json.Marshal(res)
	s.enqueue(ctx, c, outbound{data: msg})
}

func (s *Server) enqueue(ctx context.Context, c *Client, out outbound) {
	select {
	case c.send <- out:
	case <-ctx.Done():
	}
}

// writeLoop owns all writes on the connection. It closes the connection
// after a final message, on write failure or once send is closed.
func (s *Server) writeLoop(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		for range c.send {
		}
	}()
	for {
		select {
		case out, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, out.data); err != nil {
				return
			}
			if out.final {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session_deleted"))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func resultType(msgType string) string {
	switch msgType {
	case TypeJoin:
		return TypeJoinResult
	case TypeCommand:
		return TypeCommandResult
	}
	return TypeError
}

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return session.ErrorCode(err)
}
