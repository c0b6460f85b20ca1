package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lumenchat/backend/internal/model/chat"
)

const (
	sessionKeyPrefix  = "chat:session:"
	messagesKeyPrefix = "chat:messages:"
	userKeyPrefix     = "chat:user:"

	defaultTTL = 24 * time.Hour
)

// RedisStore persists sessions and transcripts in Redis so history survives
// process restarts and can be shared between instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(token string) string { return sessionKeyPrefix + token }

func messagesKey(sessionID string) string { return messagesKeyPrefix + sessionID }

func userKey(userID string) string { return userKeyPrefix + userID + ":sessions" }

// CreateSession implements Store.
func (s *RedisStore) CreateSession(ctx context.Context, userID, title string) (chat.Session, error) {
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

	val, err := json.Marshal(session)
	if err != nil {
		return chat.Session{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.Token), val, s.ttl)
	pipe.SAdd(ctx, userKey(userID), session.Token)
	pipe.Expire(ctx, userKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return chat.Session{}, fmt.Errorf("create session: %w", err)
	}

	return session, nil
}

// GetSessionByToken implements Store.
func (s *RedisStore) GetSessionByToken(ctx context.Context, token string) (chat.Session, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return chat.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return chat.Session{}, err
	}

	var session chat.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return chat.Session{}, err
	}
	return session, nil
}

// OwnsSession implements Store.
func (s *RedisStore) OwnsSession(ctx context.Context, userID, token string) (chat.Session, bool, error) {
	session, err := s.GetSessionByToken(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return chat.Session{}, false, nil
	}
	if err != nil {
		return chat.Session{}, false, err
	}
	return session, session.UserID == userID, nil
}

// SaveMessage implements Store.
func (s *RedisStore) SaveMessage(ctx context.Context, sessionID, sender, content string) (chat.Message, error) {
	message := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	val, err := json.Marshal(message)
	if err != nil {
		return chat.Message{}, err
	}

	key := messagesKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, val)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return chat.Message{}, fmt.Errorf("save message: %w", err)
	}

	return message, nil
}

// LoadTranscript implements Store.
func (s *RedisStore) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	vals, err := s.client.LRange(ctx, messagesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]chat.Message, 0, len(vals))
	for _, val := range vals {
		var message chat.Message
		if err := json.Unmarshal([]byte(val), &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// ListSessions implements Store.
func (s *RedisStore) ListSessions(ctx context.Context, userID string) ([]chat.Session, error) {
	tokens, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]chat.Session, 0, len(tokens))
	for _, token := range tokens {
		session, err := s.GetSessionByToken(ctx, token)
		if errors.Is(err, ErrSessionNotFound) {
			// Session key expired but the membership set has not caught up.
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// DeleteSession implements Store.
func (s *RedisStore) DeleteSession(ctx context.Context, userID, token string) error {
	session, owns, err := s.OwnsSession(ctx, userID, token)
	if err != nil {
		return err
	}
	if !owns {
		return ErrSessionNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.Del(ctx, messagesKey(session.ID))
	pipe.SRem(ctx, userKey(userID), token)
	_, err = pipe.Exec(ctx)
	return err
}
