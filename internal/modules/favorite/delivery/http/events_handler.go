package handler

import (
	"net/http"
	"time"

	favorite "anoa.com/handchatter/internal/modules/favorite/service"
	"anoa.com/handchatter/pkg/logger"
	"anoa.com/handchatter/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const writeWait = 10 * time.Second

// EventsHandler streams favorite events to connected tutors.
type EventsHandler struct {
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

// NewEventsHandler only accepts upgrades from the given origins.
func NewEventsHandler(redisClient *redis.Client, allowedOrigins []string) *EventsHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &EventsHandler{
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: writeWait,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Stream handles GET /api/events/ws. The route requires a tutor session.
func (h *EventsHandler) Stream(c *gin.Context) {
	principal, err := response.GetPrincipal(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	entry := logger.WithComponent("events").WithField("tutor_idx", principal.AccountIdx)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		entry.WithError(err).Warn("failed to upgrade websocket")
		return
	}
	defer conn.Close()
	// the server's read timeout must not end the stream
	_ = conn.SetReadDeadline(time.Time{})

	ctx := c.Request.Context()
	pubsub := h.redisClient.Subscribe(ctx, favorite.TutorEventsChannel(principal.AccountIdx))
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		entry.WithError(err).Error("failed to subscribe to tutor events")
		return
	}
	ch := pubsub.Channel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				entry.WithError(err).Debug("websocket write failed")
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}
