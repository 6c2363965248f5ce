package ws

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Inbound message types
const (
	MsgOpen          = "open"
	MsgClose         = "close"
	MsgMinimize      = "minimize"
	MsgRestore       = "restore"
	MsgToggle        = "toggle"
	MsgFocus         = "focus"
	MsgPointerDown   = "pointer_down"
	MsgPointerMove   = "pointer_move"
	MsgPointerUp     = "pointer_up"
	MsgPointerCancel = "pointer_cancel"
	MsgInput         = "input"
	MsgPing          = "ping"
)

// dispatch runs one inbound message from clientID on the event loop.
// Pointer gestures belong to the client that pressed. It returns a
// direct reply for the sender when there is one; everything else the
// message causes reaches clients through the broadcast stream.
func (h *Hub) dispatch(ctx context.Context, clientID string, msg types.WSMessage) (Frame, bool) {
	if msg.Type == MsgPing {
		return Frame{Type: FramePong}, true
	}

	var opErr error
	run := func(fn func() error) error {
		return h.loop.Do(ctx, func() { opErr = fn() })
	}

	var err error
	switch msg.Type {
	case MsgOpen:
		announce, _ := msg.Data["announce"].(bool)
		err = run(func() error { return h.ctrl.Open(msg.ID, announce) })
	case MsgClose:
		err = run(func() error { return h.ctrl.Close(msg.ID) })
	case MsgMinimize:
		err = run(func() error { return h.ctrl.Minimize(msg.ID) })
	case MsgRestore:
		err = run(func() error { return h.ctrl.Restore(msg.ID) })
	case MsgToggle:
		err = run(func() error { return h.ctrl.Toggle(msg.ID) })
	case MsgFocus:
		err = run(func() error { return h.ctrl.Focus(msg.ID) })
	case MsgPointerDown:
		kind := msg.Kind
		if kind == "" {
			kind = types.SubjectWindow
		}
		err = run(func() error {
			h.ctrl.PointerDownBy(clientID, kind, msg.ID, msg.X, msg.Y, msg.Button)
			return nil
		})
	case MsgPointerMove:
		err = run(func() error {
			h.ctrl.PointerMoveBy(clientID, msg.X, msg.Y)
			return nil
		})
	case MsgPointerUp:
		err = run(func() error {
			h.ctrl.PointerUpBy(clientID, msg.X, msg.Y)
			return nil
		})
	case MsgPointerCancel:
		err = run(func() error {
			h.ctrl.CancelDragBy(clientID)
			return nil
		})
	case MsgInput:
		ev := types.InputEvent{
			Type:   msg.Event,
			Target: msg.ID,
			X:      msg.X,
			Y:      msg.Y,
			Key:    msg.Key,
			Data:   msg.Data,
		}
		err = run(func() error {
			h.mirror.Route(ev)
			return nil
		})
	default:
		return errorFrame(fmt.Sprintf("unknown message type %q", msg.Type)), true
	}

	if err != nil {
		h.logger.Warn("Event loop unavailable", zap.String("type", msg.Type), zap.Error(err))
		return errorFrame(err.Error()), true
	}
	if opErr != nil {
		return errorFrame(opErr.Error()), true
	}
	return Frame{}, false
}
