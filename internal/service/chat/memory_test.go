package chat_test

import (
	"context"
	"errors"
	"testing"

	chat "github.com/lumenchat/backend/internal/service/chat"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := chat.NewMemoryStore()
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "user-1", "first chat")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}

	got, err := store.GetSessionByToken(ctx, session.Token)
	if err != nil {
		t.Fatalf("GetSessionByToken err: %v", err)
	}
	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.UserID != "user-1" {
		t.Fatalf("unexpected user ID: got %s", got.UserID)
	}
}

func TestMemoryStoreOwnership(t *testing.T) {
	store := chat.NewMemoryStore()
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if _, owns, _ := store.OwnsSession(ctx, "user-1", session.Token); !owns {
		t.Fatal("expected owner to own the session")
	}
	if _, owns, _ := store.OwnsSession(ctx, "user-2", session.Token); owns {
		t.Fatal("expected non-owner to be rejected")
	}
	if _, owns, _ := store.OwnsSession(ctx, "user-1", "missing"); owns {
		t.Fatal("expected missing token to be rejected")
	}
}

func TestMemoryStoreTranscript(t *testing.T) {
	store := chat.NewMemoryStore()
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if _, err := store.SaveMessage(ctx, session.ID, "user", "hello"); err != nil {
		t.Fatalf("SaveMessage err: %v", err)
	}
	if _, err := store.SaveMessage(ctx, session.ID, "ai", "hi there"); err != nil {
		t.Fatalf("SaveMessage err: %v", err)
	}

	messages, err := store.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Sender != "user" || messages[1].Sender != "ai" {
		t.Fatalf("unexpected message order: %s, %s", messages[0].Sender, messages[1].Sender)
	}
}

func TestMemoryStoreSaveMessageUnknownSession(t *testing.T) {
	store := chat.NewMemoryStore()

	if _, err := store.SaveMessage(context.Background(), "missing", "user", "hello"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryStoreDeleteSession(t *testing.T) {
	store := chat.NewMemoryStore()
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if err := store.DeleteSession(ctx, "user-2", session.Token); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected delete by non-owner to fail, got %v", err)
	}
	if err := store.DeleteSession(ctx, "user-1", session.Token); err != nil {
		t.Fatalf("DeleteSession err: %v", err)
	}
	if _, err := store.GetSessionByToken(ctx, session.Token); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected session to be gone, got %v", err)
	}
}
