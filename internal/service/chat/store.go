package chat

import (
	"context"
	"errors"

	"github.com/lumenchat/backend/internal/model/chat"
)

var (
	ErrUserRequired    = errors.New("user id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Store is the persistence collaborator for sessions and messages. The relay
// and the REST surface both speak to it; implementations must be safe for
// concurrent use.
type Store interface {
	// CreateSession provisions a session owned by userID.
	CreateSession(ctx context.Context, userID, title string) (chat.Session, error)
	// GetSessionByToken resolves the opaque client-facing token.
	GetSessionByToken(ctx context.Context, token string) (chat.Session, error)
	// OwnsSession reports whether token names a session belonging to userID
	// and returns it when it does.
	OwnsSession(ctx context.Context, userID, token string) (chat.Session, bool, error)
	// SaveMessage appends one turn to the session history.
	SaveMessage(ctx context.Context, sessionID, sender, content string) (chat.Message, error)
	// LoadTranscript returns stored messages for the session.
	LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error)
	// ListSessions returns all sessions owned by userID.
	ListSessions(ctx context.Context, userID string) ([]chat.Session, error)
	// DeleteSession removes a session and its messages if userID owns it.
	DeleteSession(ctx context.Context, userID, token string) error
}
