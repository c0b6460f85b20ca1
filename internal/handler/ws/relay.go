package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/lumenchat/backend/internal/model/frame"
	"github.com/lumenchat/backend/internal/stream"
)

// fallbackResponse is persisted and surfaced whenever generation or
// finalization fails. The client always receives a terminal stream_end.
const fallbackResponse = "Sorry, I'm unable to process your request right now. Please try again."

// runRelay executes one chat turn: persist the user message, pull fragments
// from the generator, forward tag-safe segments, persist the assembled
// response. Runs on its own goroutine; the Streaming state guards
// single-flight and is always released on return.
func (c *Connection) runRelay(ctx context.Context, content string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[relay] panic session=%s: %v", c.sessionToken, rec)
		}
		c.transition(StateStreaming, StateActive)
	}()

	userMsg, err := c.store.SaveMessage(ctx, c.sessionID, "user", content)
	if err != nil {
		log.Printf("[relay] failed to save user message session=%s: %v", c.sessionToken, err)
		c.send(frame.NewError("Failed to process message", "PROCESSING_ERROR"))
		return
	}
	c.send(frame.NewMessageReceived(userMsg))

	messageID := fmt.Sprintf("ai_msg_%d", time.Now().UnixMilli())
	c.send(frame.NewStreamStart(messageID))

	if c.generator == nil {
		c.finishWithFallback(ctx, messageID)
		return
	}

	reader, err := c.generator.Stream(ctx, content)
	if err != nil {
		log.Printf("[relay] failed to open generator stream session=%s: %v", c.sessionToken, err)
		c.finishWithFallback(ctx, messageID)
		return
	}
	defer reader.Close()

	framer := stream.NewFramer()
	var full strings.Builder
	chunkCount := 0

	for {
		chunk, recvErr := reader.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			log.Printf("[relay] generator failed mid-stream session=%s: %v", c.sessionToken, recvErr)
			c.finishWithFallback(ctx, messageID)
			return
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		if segment := framer.Absorb(chunk.Content); segment != "" {
			full.WriteString(segment)
			chunkCount++
			c.send(frame.NewStreamChunk(messageID, segment))
		}
	}

	// End of stream: surface whatever is still held, even an unterminated
	// tag; a truncated generation is shown broken rather than swallowed.
	if rest := framer.Flush(); rest != "" {
		full.WriteString(rest)
		chunkCount++
		c.send(frame.NewStreamChunk(messageID, rest))
	}

	log.Printf("[relay] stream complete session=%s chunks=%d chars=%d", c.sessionToken, chunkCount, full.Len())

	aiMsg, err := c.store.SaveMessage(ctx, c.sessionID, "ai", full.String())
	if err != nil {
		log.Printf("[relay] failed to save ai message session=%s: %v", c.sessionToken, err)
		c.finishWithFallback(ctx, messageID)
		return
	}

	c.send(frame.NewStreamEnd(messageID, full.String(), &aiMsg, false))
}

// finishWithFallback persists the fixed fallback text and closes the stream
// with error set, so the client is never left hanging mid-stream.
func (c *Connection) finishWithFallback(ctx context.Context, messageID string) {
	msg, err := c.store.SaveMessage(ctx, c.sessionID, "ai", fallbackResponse)
	if err != nil {
		log.Printf("[relay] failed to persist fallback response session=%s: %v", c.sessionToken, err)
		c.send(frame.NewStreamEnd(messageID, fallbackResponse, nil, true))
		return
	}
	c.send(frame.NewStreamEnd(messageID, fallbackResponse, &msg, true))
}
