package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/bus"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/surface"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 16 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced by the HTTP middleware
	},
}

// Executor runs engine work on the goroutine that owns engine state
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// Mirror is the presenter side the hub reflects to browsers
type Mirror interface {
	SetSink(sink surface.Sink)
	Snapshot() []surface.Change
	Route(ev types.InputEvent) int
}

// Config holds per-connection limits
type Config struct {
	MessagesPerSecond int
	Burst             int
	SendBuffer        int
}

// Deps are the components a hub drives
type Deps struct {
	Loop       Executor
	Controller *window.Controller
	Bus        bus.Bus
	Mirror     Mirror
	Metrics    *monitoring.Metrics
	Logger     *zap.Logger
}

// Hub owns every browser connection. Bus events and surface changes
// produced on the event loop are fanned out to all clients; inbound
// gestures and commands are handed back to the loop one at a time.
type Hub struct {
	cfg     Config
	loop    Executor
	ctrl    *window.Controller
	bus     bus.Bus
	mirror  Mirror
	metrics *monitoring.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[string]*Client
	sub     bus.Subscription
}

// NewHub creates a hub; call Attach before the loop starts
func NewHub(cfg Config, d Deps) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		cfg:     cfg,
		loop:    d.Loop,
		ctrl:    d.Controller,
		bus:     d.Bus,
		mirror:  d.Mirror,
		metrics: d.Metrics,
		logger:  logger.Named("ws"),
		clients: make(map[string]*Client),
	}
}

// Attach subscribes to every bus topic and to surface changes.
// It must run on the event loop, or before the loop starts.
func (h *Hub) Attach() {
	h.sub = h.bus.Subscribe(bus.Wildcard, func(msg bus.Message) {
		h.Broadcast(Frame{Type: FrameEvent, Topic: msg.Topic, Payload: msg.Payload})
	})
	h.mirror.SetSink(func(ch surface.Change) {
		h.Broadcast(Frame{Type: FrameSurface, Change: &ch})
	})
}

// Detach undoes Attach and disconnects every client
func (h *Hub) Detach() {
	if h.sub != 0 {
		h.bus.Unsubscribe(h.sub)
		h.sub = 0
	}
	h.mirror.SetSink(nil)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues f on every client. A client whose buffer is full is
// disconnected rather than allowed to stall the loop.
func (h *Hub) Broadcast(f Frame) {
	data, err := encode(f)
	if err != nil {
		h.logger.Error("Failed to encode frame", zap.String("type", f.Type), zap.String("topic", f.Topic), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		if !c.enqueue(data) {
			h.logger.Warn("Dropping slow client", zap.String("client_id", id))
			delete(h.clients, id)
			c.close()
			continue
		}
		h.metrics.RecordWSMessage("out", f.Type)
	}
}

// HandleConnection upgrades the request and serves the client until it
// disconnects
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(uuid.NewString(), conn, h)
	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	// The welcome frame and surface snapshot are queued on the loop, before
	// registration, so no live frame can overtake them.
	err = h.loop.Do(c.Request.Context(), func() {
		client.send(Frame{Type: FrameSystem, Message: "connected", ClientID: client.id})
		snapshot := h.mirror.Snapshot()
		for i := range snapshot {
			client.send(Frame{Type: FrameSurface, Change: &snapshot[i]})
		}
		h.mu.Lock()
		h.clients[client.id] = client
		h.mu.Unlock()
	})
	if err != nil {
		h.logger.Warn("Event loop unavailable", zap.Error(err))
		conn.Close()
		return
	}

	h.logger.Info("Client connected", zap.String("client_id", client.id), zap.String("remote", c.ClientIP()))

	go client.writePump()
	client.readPump(c.Request.Context())

	h.remove(client)
	h.releaseGesture(client.id)
	h.logger.Info("Client disconnected", zap.String("client_id", client.id))
}

// releaseGesture drops a press or drag the departed client left behind
func (h *Hub) releaseGesture(clientID string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := h.loop.Do(ctx, func() { h.ctrl.CancelDragBy(clientID) }); err != nil {
		h.logger.Debug("Could not release gesture", zap.String("client_id", clientID), zap.Error(err))
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
	}
	c.close()
}
