package ws

import (
	"context"
	"log"
	"time"

	"github.com/lumenchat/backend/internal/model/frame"
)

// monitor is the per-connection liveness loop. It does not trust the
// transport's own keep-alive: each tick it checks the inbound activity clock
// and either force-closes an idle peer or emits an application heartbeat.
// Cancellation is awaited by teardown via monitorDone.
func (c *Connection) monitor(ctx context.Context) {
	defer close(c.monitorDone)

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idle := time.Since(c.lastActivityTime())
			if idle > c.cfg.IdleTimeout {
				log.Printf("[websocket] closing inactive connection user=%s session=%s idle=%s",
					c.identity.UserID, c.sessionToken, idle.Truncate(time.Second))
				c.closeWithCode(CloseTimeout, "Connection timeout")
				return
			}
			c.send(frame.NewHeartbeat())
		}
	}
}
