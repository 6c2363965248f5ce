package ws

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Client is one browser connection
type Client struct {
	id      string
	conn    *websocket.Conn
	hub     *Hub
	out     chan []byte
	limiter *rate.Limiter

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(id string, conn *websocket.Conn, h *Hub) *Client {
	return &Client{
		id:      id,
		conn:    conn,
		hub:     h,
		out:     make(chan []byte, h.cfg.SendBuffer),
		limiter: middleware.NewLimiter(h.cfg.MessagesPerSecond, h.cfg.Burst),
		closed:  make(chan struct{}),
	}
}

// enqueue never blocks; false means the buffer is full or the client closed
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}

func (c *Client) send(f Frame) {
	data, err := encode(f)
	if err != nil {
		c.hub.logger.Error("Failed to encode frame", zap.String("type", f.Type), zap.Error(err))
		return
	}
	if c.enqueue(data) {
		c.hub.metrics.RecordWSMessage("out", f.Type)
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("WebSocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}

		var msg types.WSMessage
		if err := sonic.ConfigStd.Unmarshal(data, &msg); err != nil {
			c.send(errorFrame("malformed message"))
			continue
		}
		c.hub.metrics.RecordWSMessage("in", msg.Type)

		if !c.limiter.Allow() {
			c.send(errorFrame("rate limit exceeded"))
			continue
		}
		if reply, ok := c.hub.dispatch(ctx, c.id, msg); ok {
			c.send(reply)
		}
	}
}
