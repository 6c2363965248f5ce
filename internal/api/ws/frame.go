package ws

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/surface"
)

// Outbound frame types
const (
	FrameEvent   = "event"
	FrameSurface = "surface"
	FrameError   = "error"
	FramePong    = "pong"
	FrameSystem  = "system"
)

// Frame is one outbound message
type Frame struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	Payload   interface{}     `json:"payload,omitempty"`
	Change    *surface.Change `json:"change,omitempty"`
	Message   string          `json:"message,omitempty"`
	ClientID  string          `json:"client_id,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func encode(f Frame) ([]byte, error) {
	if f.Timestamp == 0 {
		f.Timestamp = time.Now().Unix()
	}
	return sonic.ConfigStd.Marshal(f)
}

func errorFrame(msg string) Frame {
	return Frame{Type: FrameError, Message: msg}
}
