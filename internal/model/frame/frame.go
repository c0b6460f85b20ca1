package frame

import (
	"time"

	"github.com/lumenchat/backend/internal/model/chat"
)

// Inbound message types accepted from clients. "ping" and "chat_message"
// are kept for backward compatibility with older clients.
const (
	TypeHeartbeat    = "heartbeat"
	TypePing         = "ping"
	TypeAuthenticate = "authenticate"
	TypeSendMessage  = "send_message"
	TypeChatMessage  = "chat_message"
)

// Outbound message types sent to clients.
const (
	TypeConnection      = "connection"
	TypeAuthenticated   = "authenticated"
	TypeHeartbeatAck    = "heartbeat_ack"
	TypeMessageReceived = "message_received"
	TypeStreamStart     = "stream_start"
	TypeStreamChunk     = "stream_chunk"
	TypeStreamEnd       = "stream_end"
	TypeError           = "error"
)

// Inbound is a client frame. Content is only set for chat messages.
type Inbound struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// MessagePayload mirrors a persisted message inside outbound frames.
type MessagePayload struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ConnectionFrame confirms the connection was accepted and bound to a session.
type ConnectionFrame struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// AuthenticatedFrame confirms the identity bound at connect time.
type AuthenticatedFrame struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

// HeartbeatFrame is a server keep-alive probe.
type HeartbeatFrame struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// MessageReceivedFrame confirms a user message was persisted.
type MessageReceivedFrame struct {
	Type    string         `json:"type"`
	Message MessagePayload `json:"message"`
}

// StreamStartFrame opens an AI response stream.
type StreamStartFrame struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	Timestamp string `json:"timestamp"`
}

// StreamChunkFrame carries one emitted segment of the response.
type StreamChunkFrame struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// StreamEndFrame terminates a stream. Error is set when the stream failed
// and FinalContent carries the fallback text instead of generated output.
type StreamEndFrame struct {
	Type         string          `json:"type"`
	MessageID    string          `json:"message_id"`
	FinalContent string          `json:"final_content"`
	Message      *MessagePayload `json:"message,omitempty"`
	Error        bool            `json:"error,omitempty"`
}

// ErrorFrame reports a recoverable protocol or processing error.
type ErrorFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewConnection builds a connection status frame.
func NewConnection(status, sessionID string) ConnectionFrame {
	return ConnectionFrame{Type: TypeConnection, Status: status, SessionID: sessionID, Timestamp: now()}
}

// NewAuthenticated builds an authentication confirmation frame.
func NewAuthenticated(userID, username string) AuthenticatedFrame {
	return AuthenticatedFrame{Type: TypeAuthenticated, UserID: userID, Username: username, Timestamp: now()}
}

// NewHeartbeat builds a server-side keep-alive probe.
func NewHeartbeat() HeartbeatFrame {
	return HeartbeatFrame{Type: TypeHeartbeat, Timestamp: now()}
}

// NewHeartbeatAck answers a client heartbeat or ping.
func NewHeartbeatAck() HeartbeatFrame {
	return HeartbeatFrame{Type: TypeHeartbeatAck, Timestamp: now()}
}

// NewMessageReceived confirms persistence of a user message.
func NewMessageReceived(msg chat.Message) MessageReceivedFrame {
	return MessageReceivedFrame{Type: TypeMessageReceived, Message: payload(msg)}
}

// NewStreamStart opens a response stream identified by messageID.
func NewStreamStart(messageID string) StreamStartFrame {
	return StreamStartFrame{Type: TypeStreamStart, MessageID: messageID, Timestamp: now()}
}

// NewStreamChunk carries one safe-to-render segment.
func NewStreamChunk(messageID, content string) StreamChunkFrame {
	return StreamChunkFrame{Type: TypeStreamChunk, MessageID: messageID, Content: content, Timestamp: now()}
}

// NewStreamEnd closes a stream with the assembled response.
func NewStreamEnd(messageID, finalContent string, msg *chat.Message, failed bool) StreamEndFrame {
	frame := StreamEndFrame{
		Type:         TypeStreamEnd,
		MessageID:    messageID,
		FinalContent: finalContent,
		Error:        failed,
	}
	if msg != nil {
		p := payload(*msg)
		frame.Message = &p
	}
	return frame
}

// NewError reports a recoverable error to the client.
func NewError(message, code string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Message: message, Code: code, Timestamp: now()}
}

func payload(msg chat.Message) MessagePayload {
	return MessagePayload{
		ID:        msg.ID,
		Sender:    msg.Sender,
		Content:   msg.Content,
		Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
	}
}
