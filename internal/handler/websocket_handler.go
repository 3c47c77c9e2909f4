package handler

import (
	"net/http"
	"time"

	"github.com/Baaaki/buy-sell-store/internal/broker"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second // Time allowed to write a message to the peer
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WebSocketHandler streams product lifecycle events to connected clients.
type WebSocketHandler struct {
	events   broker.EventBroker
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins only; an
// empty list allows any origin.
func NewWebSocketHandler(events broker.EventBroker, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}

// ProductFeed upgrades the connection and forwards every lifecycle event
// until the client goes away.
// GET /api/ws/products
func (h *WebSocketHandler) ProductFeed(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	events, err := h.events.Subscribe(ctx)
	if err != nil {
		logger.Log.Error("Failed to subscribe to product events", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "event feed unavailable"),
			time.Now().Add(writeWait))
		return
	}

	connectedAt := time.Now()
	logger.Log.Info("Product feed client connected", zap.String("user_id", p.UserID.String()))

	done := make(chan struct{})
	go h.readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Log.Debug("Failed to write product event", zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			logger.Log.Info("Product feed client disconnected",
				zap.String("user_id", p.UserID.String()),
				zap.Duration("session_duration", time.Since(connectedAt).Round(time.Second)),
			)
			return
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
// The feed is one-way; anything the client sends is discarded.
func (h *WebSocketHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debug("Product feed read error", zap.Error(err))
			}
			return
		}
	}
}
