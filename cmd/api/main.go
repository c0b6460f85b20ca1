package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/lumenchat/backend/internal/auth"
	"github.com/lumenchat/backend/internal/config"
	"github.com/lumenchat/backend/internal/handler"
	"github.com/lumenchat/backend/internal/service/ai"
	chatservice "github.com/lumenchat/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	resolver := auth.NewJWTResolver(cfg.Auth.Secret, cfg.Auth.Leeway)

	store := newStore(ctx, cfg.Redis)

	// Initialize the AI generator. The relay degrades to the fallback
	// response when no model is configured.
	var generator ai.Generator
	if cfg.AI.Enabled() {
		svc, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - check the ARK_* environment variables")
		} else {
			generator = svc
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("model credentials not configured, skipping AI initialization")
	}

	router := handler.NewRouter(resolver, store, generator, cfg.WebSocket)

	startServer(ctx, cfg.Server, router)
}

// newStore selects the session store driver: Redis when configured, the
// in-memory store otherwise.
func newStore(ctx context.Context, cfg config.RedisConfig) chatservice.Store {
	if !cfg.Enabled() {
		log.Println("using in-memory session store")
		return chatservice.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("warning: redis unreachable at %s: %v", cfg.Addr, err)
		log.Println("falling back to in-memory session store")
		return chatservice.NewMemoryStore()
	}

	log.Printf("using redis session store at %s", cfg.Addr)
	return chatservice.NewRedisStore(client, cfg.TTL)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Lumenchat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
