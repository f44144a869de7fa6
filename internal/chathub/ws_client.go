package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"boting/backend/internal/config"
	"boting/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// ClientOptions bound the resources of one websocket connection.
type ClientOptions struct {
	MaxMessageSize int64
	SendBuffer     int
	RateLimit      float64
	RateBurst      int
}

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	ConnID string
	UserID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan models.Envelope

	maxMessageSize int64
	limiter        *rate.Limiter
	closeOnce      sync.Once
}

// NewWebSocketClient wraps conn for hub. userID is the anonymous id that is
// announced to the client once it is registered.
func NewWebSocketClient(conn *websocket.Conn, hub *ManagerService, userID string, opts ClientOptions) *WebSocketClient {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	return &WebSocketClient{
		ConnID:         uuid.NewString(),
		UserID:         userID,
		Conn:           conn,
		Hub:            hub,
		Send:           make(chan models.Envelope, opts.SendBuffer),
		maxMessageSize: opts.MaxMessageSize,
		limiter:        rate.NewLimiter(limit, max(opts.RateBurst, 1)),
	}
}

func (c *WebSocketClient) GetConnID() string                      { return c.ConnID }
func (c *WebSocketClient) GetUserID() string                      { return c.UserID }
func (c *WebSocketClient) GetSendChannel() chan<- models.Envelope { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops writePump.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *WebSocketClient) readPump() {
	log := logger("chathub.ws")
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	if c.maxMessageSize > 0 {
		c.Conn.SetReadLimit(c.maxMessageSize)
	}
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn", c.ConnID).Msg("unexpected close")
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
			log.Debug().Str("conn", c.ConnID).Msg("malformed frame dropped")
			continue
		}

		evt := models.IncomingEvent{ConnID: c.ConnID, Envelope: env}
		if models.IsChatEvent(env.Event) && !c.limiter.Allow() {
			log.Warn().Str("conn", c.ConnID).Str("event", env.Event).Msg("rate limit exceeded, frame refused")
			evt.Envelope.Data = nil
			evt.Throttled = true
		}
		c.Hub.Dispatch(evt)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(env); err != nil {
				logger("chathub.ws").Debug().Err(err).Str("conn", c.ConnID).Msg("write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
