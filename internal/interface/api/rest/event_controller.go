package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"localdrop/internal/application/ports"
	dto "localdrop/internal/interface/api/rest/dto/media"
)

const (
	EventSnapshot = "snapshot"
	EventNewFile  = "new-file"
	EventPing     = "ping"
	EventResync   = "resync"
)

// EventController runs one viewer session per connected client and streams
// it as Server-Sent Events.
type EventController struct {
	viewerService ports.ViewerService
	urls          ports.URLResolver
	logger        *zap.Logger
	heartbeat     time.Duration
}

func NewEventController(
	r gin.IRouter,
	viewerService ports.ViewerService,
	urls ports.URLResolver,
	logger *zap.Logger,
	heartbeat time.Duration,
) *EventController {
	ec := &EventController{
		viewerService: viewerService,
		urls:          urls,
		logger:        logger,
		heartbeat:     heartbeat,
	}

	r.GET(RouteEvents, ec.StreamHandler)

	return ec
}

// StreamHandler sends the session's snapshot, then every new file once.
// When the subscription ends the client is told to resync and reconnect.
func (ec *EventController) StreamHandler(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := ec.viewerService.Open(ctx)
	if err != nil {
		c.JSON(
			http.StatusServiceUnavailable,
			gin.H{"error": "failed to load gallery"},
		)
		ec.logger.Error("Open() viewer session error", zap.Error(err))
		return
	}
	defer session.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent(EventSnapshot, dto.ResponseData{
		Files: dto.ToResponseTiles(session.Tiles(), ec.urls.FileURL),
	})
	c.Writer.Flush()

	ticker := time.NewTicker(ec.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			c.SSEvent(EventPing, dto.Ping{TS: t.UnixMilli()})
			c.Writer.Flush()
		case ev, ok := <-session.Events():
			tile, fresh, err := session.Accept(ev, ok)
			if err != nil {
				reason := "closed"
				if subErr := session.Err(); subErr != nil {
					reason = subErr.Error()
				}
				ec.logger.Info("viewer stream ended",
					zap.String("session", session.ID().String()),
					zap.String("reason", reason),
				)
				c.SSEvent(EventResync, dto.Resync{Reason: reason})
				c.Writer.Flush()
				return
			}
			if !fresh {
				continue
			}
			c.SSEvent(EventNewFile, dto.ToNewFile(tile, ec.urls.FileURL))
			c.Writer.Flush()
		}
	}
}
