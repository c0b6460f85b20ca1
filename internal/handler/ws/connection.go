package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumenchat/backend/internal/auth"
	"github.com/lumenchat/backend/internal/config"
	"github.com/lumenchat/backend/internal/model/frame"
	"github.com/lumenchat/backend/internal/service/ai"
	chatservice "github.com/lumenchat/backend/internal/service/chat"
)

// State is the connection lifecycle position. Exactly one state is held per
// live connection; the receive path is the only writer of business state,
// the liveness monitor only ever forces Closing.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateVerifying
	StateActive
	StateStreaming
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateVerifying:
		return "verifying"
	case StateActive:
		return "active"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection owns one websocket for its whole life: identity, session
// binding, liveness monitoring and the single in-flight stream relay.
type Connection struct {
	conn      *websocket.Conn
	resolver  auth.Resolver
	store     chatservice.Store
	generator ai.Generator
	registry  *Registry
	cfg       config.WebSocketConfig

	sessionToken string
	credential   string

	// Immutable after verification.
	identity  auth.Identity
	sessionID string
	groupKey  string

	state        atomic.Int32
	lastActivity atomic.Int64

	writeMu     sync.Mutex
	cancel      context.CancelFunc
	monitorDone chan struct{}
	closeOnce   sync.Once
}

func newConnection(conn *websocket.Conn, h *Handler, sessionToken, credential string) *Connection {
	c := &Connection{
		conn:         conn,
		resolver:     h.resolver,
		store:        h.store,
		generator:    h.generator,
		registry:     h.registry,
		cfg:          h.cfg,
		sessionToken: sessionToken,
		credential:   credential,
	}
	c.state.Store(int32(StateConnecting))
	c.touch()
	return c
}

// run drives the connection from authentication to teardown. It returns only
// when the connection is finished.
func (c *Connection) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	defer c.teardown()

	c.setState(StateAuthenticating)
	identity, err := c.resolver.Resolve(ctx, c.credential)
	if err != nil {
		log.Printf("[websocket] authentication failed session=%s: %v", c.sessionToken, err)
		c.closeWithCode(CloseAuthFailure, "Authentication failed")
		return
	}
	c.identity = identity

	c.setState(StateVerifying)
	session, owns, err := c.store.OwnsSession(ctx, identity.UserID, c.sessionToken)
	if err != nil {
		log.Printf("[websocket] ownership check failed session=%s: %v", c.sessionToken, err)
		c.closeWithCode(CloseGenericFailure, "Connection failed")
		return
	}
	if !owns {
		log.Printf("[websocket] session %s not found or not owned by user %s", c.sessionToken, identity.UserID)
		c.closeWithCode(CloseSessionNotFound, "Session not found")
		return
	}
	c.sessionID = session.ID
	c.groupKey = "chat_" + c.sessionToken

	c.registry.Add(c.groupKey, c)
	defer c.registry.Remove(c.groupKey, c)

	c.setState(StateActive)
	c.touch()
	c.monitorDone = make(chan struct{})
	go c.monitor(ctx)

	c.send(frame.NewConnection("connected", c.sessionToken))
	log.Printf("[websocket] connected user=%s session=%s", identity.UserID, c.sessionToken)

	c.readLoop(ctx)
}

// readLoop pulls frames off the transport until it dies or the connection is
// closed. Every inbound frame, whatever its kind, is proof of liveness.
func (c *Connection) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error session=%s: %v", c.sessionToken, err)
			}
			return
		}
		c.receive(ctx, data)
	}
}

// receive routes one inbound frame. It never lets a failure escape: every
// error path answers with an error frame and leaves the state machine valid.
func (c *Connection) receive(ctx context.Context, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[websocket] message processing panic session=%s: %v", c.sessionToken, rec)
			c.send(frame.NewError("Message processing failed", "PROCESSING_ERROR"))
		}
	}()

	c.touch()

	var msg frame.Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.send(frame.NewError("Invalid JSON format", "INVALID_JSON"))
		return
	}

	switch msg.Type {
	case frame.TypeHeartbeat, frame.TypePing:
		c.send(frame.NewHeartbeatAck())
	case frame.TypeAuthenticate:
		// Identity was bound at connect time; just confirm it.
		c.send(frame.NewAuthenticated(c.identity.UserID, c.identity.Username))
	case frame.TypeSendMessage, frame.TypeChatMessage:
		c.handleChatMessage(ctx, msg)
	default:
		c.send(frame.NewError(fmt.Sprintf("Invalid message type: %s", msg.Type), "INVALID_MESSAGE_TYPE"))
	}
}

// handleChatMessage enforces single-flight streaming: a second chat request
// while one is in progress is rejected, not queued.
func (c *Connection) handleChatMessage(ctx context.Context, msg frame.Inbound) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		c.send(frame.NewError("Message content cannot be empty", "EMPTY_MESSAGE"))
		return
	}

	if !c.transition(StateActive, StateStreaming) {
		c.send(frame.NewError("A response is already being generated", "STREAM_IN_PROGRESS"))
		return
	}

	go c.runRelay(ctx, content)
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

func (c *Connection) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Connection) transition(from, to State) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// touch records inbound activity for the liveness monitor.
func (c *Connection) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

func (c *Connection) lastActivityTime() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// send writes one frame. Writes are serialized because the read loop, the
// relay and the liveness monitor all emit frames; past Closing every send is
// a silent no-op.
func (c *Connection) send(v any) {
	if c.State() >= StateClosing {
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(v); err != nil {
		log.Printf("[websocket] write failed session=%s: %v", c.sessionToken, err)
	}
}

// closeWithCode sends a close frame with an application close code and shuts
// the transport. Used for auth failures, bad sessions and liveness timeouts.
func (c *Connection) closeWithCode(code int, reason string) {
	c.setState(StateClosing)
	c.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	if err := c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		log.Printf("[websocket] close write failed session=%s: %v", c.sessionToken, err)
	}
	c.writeMu.Unlock()
	_ = c.conn.Close()
}

// teardown cancels and awaits the liveness monitor before releasing the
// transport, so no probe can fire against a closed connection.
func (c *Connection) teardown() {
	c.closeOnce.Do(func() {
		c.setState(StateClosing)
		if c.cancel != nil {
			c.cancel()
		}
		if c.monitorDone != nil {
			<-c.monitorDone
		}
		_ = c.conn.Close()
		c.setState(StateClosed)
		log.Printf("[websocket] disconnected session=%s", c.sessionToken)
	})
}
