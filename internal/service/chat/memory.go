package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lumenchat/backend/internal/model/chat"
)

// MemoryStore keeps sessions and transcripts in process memory. It is the
// default driver when no Redis address is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session // keyed by token
	messages map[string][]chat.Message
}

// NewMemoryStore bootstraps the in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
	}
}

// CreateSession implements Store.
func (s *MemoryStore) CreateSession(_ context.Context, userID, title string) (chat.Session, error) {
	if userID == "" {
		return chat.Session{}, ErrUserRequired
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		Token:     uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// GetSessionByToken implements Store.
func (s *MemoryStore) GetSessionByToken(_ context.Context, token string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// OwnsSession implements Store.
func (s *MemoryStore) OwnsSession(ctx context.Context, userID, token string) (chat.Session, bool, error) {
	session, err := s.GetSessionByToken(ctx, token)
	if err != nil {
		return chat.Session{}, false, nil
	}
	return session, session.UserID == userID, nil
}

// SaveMessage implements Store.
func (s *MemoryStore) SaveMessage(_ context.Context, sessionID, sender, content string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[sessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], message)
	return message, nil
}

// LoadTranscript implements Store.
func (s *MemoryStore) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// ListSessions implements Store.
func (s *MemoryStore) ListSessions(_ context.Context, userID string) ([]chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]chat.Session, 0, 8)
	for _, session := range s.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// DeleteSession implements Store.
func (s *MemoryStore) DeleteSession(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok || session.UserID != userID {
		return ErrSessionNotFound
	}

	delete(s.sessions, token)
	delete(s.messages, session.ID)
	return nil
}
