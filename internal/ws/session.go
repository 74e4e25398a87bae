// Package ws implements the WebSocket session layer: one Session per
// connection, with a read pump that parses client messages behind an
// authentication gate and a write pump that drains the outbound mailbox and
// drives heartbeat liveness.
package ws

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/playreversi/backend/internal/config"
	"github.com/playreversi/backend/internal/logger"
	"github.com/playreversi/backend/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Coordinator is the session's view of the game coordinator. quit is the
// coordinator's hang-up signal: it closes quit when it unregisters the
// session, and from then on never touches the mailbox again. The mailbox
// itself is never closed, so the session may keep enqueueing into it until
// its own teardown without racing the coordinator.
type Coordinator interface {
	Connect(sessionID, username string, mailbox chan []byte, quit chan struct{})
	Disconnect(sessionID string)
	Intent(sessionID string, msg *protocol.ClientMessage)
}

// Session owns one client connection. The read pump is the only goroutine
// that touches the authentication state; lastHeartbeat is shared with the
// write pump's liveness check and guarded by mu.
type Session struct {
	id          string
	conn        *websocket.Conn
	coordinator Coordinator
	cfg         *config.Config

	// Outbound mailbox. Both the coordinator and the read pump enqueue into
	// it; nobody closes it. The write pump drains it until told to stop.
	send chan []byte

	// Closed by the coordinator when it unregisters the session. The write
	// pump drains remaining frames and shuts the socket down.
	quit chan struct{}

	// Closed by the read pump on exit so the write pump stops even when the
	// session was never handed to the coordinator.
	done chan struct{}

	mu            sync.Mutex
	lastHeartbeat time.Time

	// Read-pump-only state.
	authenticated bool
	username      string
}

// NewSession wraps an upgraded connection.
func NewSession(conn *websocket.Conn, coordinator Coordinator, cfg *config.Config) *Session {
	return &Session{
		id:            uuid.NewString(),
		conn:          conn,
		coordinator:   coordinator,
		cfg:           cfg,
		send:          make(chan []byte, cfg.MailboxCapacity),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		lastHeartbeat: time.Now(),
	}
}

// Run greets the client, starts the write pump and blocks in the read pump
// until the connection dies.
func (s *Session) Run() {
	logger.Info("Start new ws session: %s", s.id)

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		s.refreshHeartbeat()
		return nil
	})
	s.conn.SetPingHandler(func(appData string) error {
		s.refreshHeartbeat()
		return s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	s.enqueue(protocol.NewSuccess("Connected Successfully. Authentication is required."))

	go s.writePump()
	s.readPump()
}

// readPump parses inbound frames and forwards intents. Its teardown is the
// single place a Disconnect is reported, so the coordinator sees it exactly
// once per session.
func (s *Session) readPump() {
	defer func() {
		if s.authenticated {
			s.coordinator.Disconnect(s.id)
		}
		close(s.done)
		s.conn.Close()
		logger.Info("ws session terminated: %s", s.id)
	}()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warning("Read error on session %s: %v", s.id, err)
			}
			return
		}

		// Any inbound frame proves the client is alive.
		s.refreshHeartbeat()

		if msgType == websocket.BinaryMessage {
			logger.Warning("Binary message not supported (session %s)", s.id)
			s.enqueue(protocol.NewError("Binary message is not supported. Use text message instead."))
			continue
		}

		msg, err := protocol.DecodeClientMessage(data)
		if err != nil {
			logger.Warning("Received invalid message on session %s: %v", s.id, err)
			s.enqueue(protocol.NewError("Invalid format received. JSON required."))
			continue
		}

		s.handleMessage(msg)
	}
}

func (s *Session) handleMessage(msg *protocol.ClientMessage) {
	if !s.authenticated {
		if msg.Type != protocol.TypeAuthenticate {
			s.enqueue(protocol.NewError("Authentication required."))
			return
		}
		s.authenticate(msg.Authenticate.Username)
		return
	}

	switch msg.Type {
	case protocol.TypeAuthenticate:
		s.enqueue(protocol.NewError("Already authenticated."))

	case protocol.TypeHeartbeat:
		// Liveness was refreshed on receipt; the coordinator has no work.

	default:
		s.coordinator.Intent(s.id, msg)
	}
}

// authenticate binds the session to a username and registers it with the
// coordinator. The greeting is enqueued first so it precedes anything the
// coordinator fans out to the fresh mailbox.
func (s *Session) authenticate(username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		s.enqueue(protocol.NewError("Username cannot be empty."))
		return
	}

	s.authenticated = true
	s.username = username

	logger.Info("Authenticated successfully: %s (session %s)", username, s.id)
	s.enqueue(protocol.NewSuccess("Authenticated successfully. Hello " + username + "!"))

	s.coordinator.Connect(s.id, username, s.send, s.quit)
}

// writePump drains the mailbox onto the socket and, every heartbeat
// interval, checks the client timeout and emits a protocol ping.
func (s *Session) writePump() {
	interval := time.Duration(s.cfg.HeartbeatIntervalSecs) * time.Second
	timeout := time.Duration(s.cfg.ClientTimeoutSecs) * time.Second

	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warning("Write error on session %s: %v", s.id, err)
				return
			}

		case <-s.quit:
			// The coordinator hung up. Flush whatever it queued before the
			// hang-up, then say goodbye properly.
			s.drainAndClose()
			return

		case <-ticker.C:
			if time.Since(s.heartbeatAt()) > timeout {
				logger.Warning("Client heartbeat failed, disconnecting session %s", s.id)
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warning("Ping error on session %s: %v", s.id, err)
				return
			}

		case <-s.done:
			return
		}
	}
}

// drainAndClose writes out every frame still buffered in the mailbox and
// ends with a close frame.
func (s *Session) drainAndClose() {
	for {
		select {
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// enqueue serializes msg into the mailbox without blocking. Frames are
// dropped when the mailbox is full; the coordinator's own back-pressure
// check is what tears the session down in that case.
func (s *Session) enqueue(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Couldn't serialize message for session %s: %v", s.id, err)
		return
	}
	select {
	case s.send <- data:
	default:
		logger.Warning("Send buffer full for session %s, dropping message", s.id)
	}
}

func (s *Session) refreshHeartbeat() {
	s.mu.Lock()
	s.lastHeartbeat = time.Now()
	s.mu.Unlock()
}

func (s *Session) heartbeatAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeartbeat
}
