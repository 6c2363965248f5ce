package window

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/surface"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// ButtonLeft is the only button that starts a gesture
const ButtonLeft = 0

type dragState int

const (
	dragPressed dragState = iota
	dragDragging
)

// dragSession is the single in-flight pointer gesture
type dragSession struct {
	owner   string
	state   dragState
	subject string
	kind    types.SubjectKind
	startX  int
	startY  int
	offsetX int
	offsetY int
	origin  types.Rect
	fixed   bool
}

// PointerDown presses on a window or icon for the anonymous pointer owner.
func (c *Controller) PointerDown(kind types.SubjectKind, id string, x, y, button int) bool {
	return c.PointerDownBy("", kind, id, x, y, button)
}

// PointerMove advances the anonymous owner's gesture.
func (c *Controller) PointerMove(x, y int) { c.PointerMoveBy("", x, y) }

// PointerUp ends the anonymous owner's gesture.
func (c *Controller) PointerUp(x, y int) { c.PointerUpBy("", x, y) }

// PointerDownBy presses on a window or icon on behalf of owner. It returns
// false when the press is ignored: a non-left button, a gesture already in
// flight, or a subject with no surface.
func (c *Controller) PointerDownBy(owner string, kind types.SubjectKind, id string, x, y, button int) bool {
	if button != ButtonLeft || c.drag != nil {
		return false
	}
	rec, ok := c.store.Record(id)
	if !ok || !rec.Declared {
		return false
	}
	s, ok := c.subject(kind, id)
	if !ok {
		return false
	}

	b := s.Bounds()
	c.drag = &dragSession{
		owner:   owner,
		state:   dragPressed,
		subject: id,
		kind:    kind,
		startX:  x,
		startY:  y,
		offsetX: x - b.X,
		offsetY: y - b.Y,
		origin:  b,
		fixed:   rec.FixedPosition,
	}
	return true
}

// PointerMoveBy advances owner's gesture. Movement below the threshold on
// both axes keeps it a click; beyond it the subject follows the pointer.
// Moves from anyone but the owner are ignored.
func (c *Controller) PointerMoveBy(owner string, x, y int) {
	d := c.gesture(owner)
	if d == nil {
		return
	}
	s, ok := c.subject(d.kind, d.subject)
	if !ok {
		c.abortDrag()
		return
	}

	if d.state == dragPressed {
		if d.fixed || !c.pastThreshold(d, x, y) {
			return
		}
		d.state = dragDragging
		if d.kind == types.SubjectWindow {
			c.BringToFront(d.subject)
		}
	}

	nx, ny := x-d.offsetX, y-d.offsetY
	if ny < 0 {
		ny = 0
	}
	s.Move(nx, ny)
}

// PointerUpBy ends owner's gesture. A drag persists the new position; a
// press that never became a drag runs the click action exactly once.
func (c *Controller) PointerUpBy(owner string, x, y int) {
	d := c.gesture(owner)
	if d == nil {
		return
	}
	c.drag = nil

	s, ok := c.subject(d.kind, d.subject)
	if !ok {
		c.metrics.RecordGesture(string(d.kind), "cancelled")
		return
	}

	if d.state == dragDragging {
		b := s.Bounds()
		switch d.kind {
		case types.SubjectWindow:
			c.store.UpdateApp(d.subject, types.AppPatch{WindowPosition: types.At(b.X, b.Y)})
		case types.SubjectIcon:
			c.store.UpdateApp(d.subject, types.AppPatch{IconPosition: &types.Point{X: b.X, Y: b.Y}})
		}
		c.metrics.RecordGesture(string(d.kind), "drag")
		return
	}

	c.metrics.RecordGesture(string(d.kind), "click")
	var err error
	switch d.kind {
	case types.SubjectWindow:
		err = c.Focus(d.subject)
	case types.SubjectIcon:
		err = c.Open(d.subject, true)
	}
	if err != nil {
		c.logger.Debug("Click action failed", zap.String("app_id", d.subject), zap.Error(err))
	}
}

// CancelDrag abandons the gesture and puts a dragged subject back
func (c *Controller) CancelDrag() {
	d := c.drag
	if d == nil {
		return
	}
	c.drag = nil
	if s, ok := c.subject(d.kind, d.subject); ok && d.state == dragDragging {
		s.Move(d.origin.X, d.origin.Y)
	}
	c.metrics.RecordGesture(string(d.kind), "cancelled")
}

// CancelDragBy abandons the gesture only when owner holds it
func (c *Controller) CancelDragBy(owner string) {
	if c.gesture(owner) != nil {
		c.CancelDrag()
	}
}

func (c *Controller) gesture(owner string) *dragSession {
	if c.drag == nil || c.drag.owner != owner {
		return nil
	}
	return c.drag
}

func (c *Controller) abortDrag() {
	d := c.drag
	c.drag = nil
	c.metrics.RecordGesture(string(d.kind), "cancelled")
}

func (c *Controller) pastThreshold(d *dragSession, x, y int) bool {
	return abs(x-d.startX) >= c.threshold || abs(y-d.startY) >= c.threshold
}

func (c *Controller) subject(kind types.SubjectKind, id string) (surface.Surface, bool) {
	var (
		s  surface.Surface
		ok bool
	)
	switch kind {
	case types.SubjectWindow:
		s, ok = c.presenter.Window(id)
	case types.SubjectIcon:
		s, ok = c.presenter.Icon(id)
	}
	if !ok || s.Destroyed() {
		return nil, false
	}
	return s, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
