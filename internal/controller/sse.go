package controller

import (
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"one-ui-backend/config"
	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/service"
	"one-ui-backend/internal/util"
)

// Snapshot pacing bounds. The client sends its polling hint as the
// "interval" query parameter; anything outside these bounds is clamped.
const (
	minSnapshotInterval = 250 * time.Millisecond
	maxSnapshotInterval = 30 * time.Second
)

func parseStreamQuery(c *gin.Context) dto.StreamQuery {
	q := dto.StreamQuery{
		Search: c.Query("search"),
		Level:  c.Query("level"),
		IP:     c.Query("ip"),
		User:   c.Query("user"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			q.Limit = limit
		}
	}
	return q
}

func snapshotInterval(c *gin.Context, cfg *config.Config) time.Duration {
	interval := cfg.Stream.SnapshotInterval
	if raw := c.Query("interval"); raw != "" {
		if parsed, err := util.ParseDurationFlexible(raw); err == nil {
			interval = parsed
		}
	}
	if interval < minSnapshotInterval {
		interval = minSnapshotInterval
	}
	if interval > maxSnapshotInterval {
		interval = maxSnapshotInterval
	}
	return interval
}

// serveSnapshotStream writes "snapshot" SSE frames for one stream until the
// client goes away. The first frame goes out immediately; after that frames
// are paced by the interval hint. A snapshot build failure becomes an
// informational "error" event rather than tearing the stream down.
func serveSnapshotStream(c *gin.Context, cfg *config.Config, snapshots service.SnapshotService, stream string) {
	q := parseStreamQuery(c)
	interval := snapshotInterval(c, cfg)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Debug().
		Str("stream", stream).
		Dur("interval", interval).
		Str("client", c.ClientIP()).
		Msg("SSE subscriber connected")

	for {
		var event sse.Event
		snapshot, err := snapshots.BuildSnapshot(stream, q)
		if err != nil {
			event = sse.Event{Event: "error", Data: dto.StreamErrorPayload{Message: err.Error()}}
		} else {
			event = sse.Event{Event: "snapshot", Data: snapshot}
		}
		if err := sse.Encode(c.Writer, event); err != nil {
			log.Debug().Err(err).Str("stream", stream).Msg("SSE subscriber write failed")
			return
		}
		c.Writer.Flush()

		select {
		case <-ctx.Done():
			log.Debug().Str("stream", stream).Str("client", c.ClientIP()).Msg("SSE subscriber disconnected")
			return
		case <-ticker.C:
		}
	}
}
