package surface

import (
	"sort"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Default element sizes used when a record carries none
var (
	DefaultWindowSize = types.WindowSize{Width: 640, Height: 480}
	IconSize          = types.WindowSize{Width: 80, Height: 90}
)

// Headless keeps surfaces in memory. Geometry is resolved against a fixed
// viewport and every mutation is reported to the sink, which the server uses
// to mirror the desktop into connected browsers.
type Headless struct {
	width, height int
	windows       map[string]*element
	icons         map[string]*element
	document      *Target
	sink          Sink
	logger        *zap.Logger
}

// NewHeadless creates a presenter with the given viewport
func NewHeadless(width, height int, logger *zap.Logger) *Headless {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Headless{
		width:    width,
		height:   height,
		windows:  make(map[string]*element),
		icons:    make(map[string]*element),
		document: NewTarget(),
		logger:   logger,
	}
}

// SetSink installs the change sink (nil disables mirroring)
func (h *Headless) SetSink(sink Sink) {
	h.sink = sink
}

// Viewport implements Presenter
func (h *Headless) Viewport() (int, int) {
	return h.width, h.height
}

// Document is the target for input not aimed at a window
func (h *Headless) Document() *Target {
	return h.document
}

// CreateWindow implements Presenter. An existing live window is returned as is.
func (h *Headless) CreateWindow(rec *types.AppRecord) Surface {
	if el, ok := h.windows[rec.ID]; ok {
		return el
	}
	size := DefaultWindowSize
	if rec.Size != nil {
		size = *rec.Size
	} else if rec.DefaultSize != nil {
		size = *rec.DefaultSize
	}
	el := h.newElement(rec.ID, types.SubjectWindow, rec.Name, size)
	h.windows[rec.ID] = el
	h.emit(el, OpCreate)
	return el
}

// CreateIcon implements Presenter
func (h *Headless) CreateIcon(rec *types.AppRecord) Surface {
	if el, ok := h.icons[rec.ID]; ok {
		return el
	}
	el := h.newElement(rec.ID, types.SubjectIcon, rec.Name, IconSize)
	h.icons[rec.ID] = el
	h.emit(el, OpCreate)
	return el
}

// Window implements Presenter
func (h *Headless) Window(id string) (Surface, bool) {
	el, ok := h.windows[id]
	if !ok {
		return nil, false
	}
	return el, true
}

// Icon implements Presenter
func (h *Headless) Icon(id string) (Surface, bool) {
	el, ok := h.icons[id]
	if !ok {
		return nil, false
	}
	return el, true
}

// Route dispatches an input event to the window named by ev.Target, or to
// the document when the target is empty or unknown to any window.
func (h *Headless) Route(ev types.InputEvent) int {
	if ev.Target != "" && ev.Target != "document" {
		if el, ok := h.windows[ev.Target]; ok {
			return el.Dispatch(ev)
		}
		h.logger.Debug("Input for missing window", zap.String("target", ev.Target))
		return 0
	}
	return h.document.Dispatch(ev)
}

// Snapshot returns the current state of every live surface
func (h *Headless) Snapshot() []Change {
	out := make([]Change, 0, len(h.windows)+len(h.icons))
	for _, el := range h.icons {
		out = append(out, el.change(OpCreate))
	}
	for _, el := range h.windows {
		out = append(out, el.change(OpCreate))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == types.SubjectIcon
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (h *Headless) newElement(id string, kind types.SubjectKind, title string, size types.WindowSize) *element {
	return &element{
		Target: NewTarget(),
		owner:  h,
		id:     id,
		kind:   kind,
		title:  title,
		rect:   types.Rect{Width: size.Width, Height: size.Height},
	}
}

func (h *Headless) emit(el *element, op string) {
	if h.sink != nil {
		h.sink(el.change(op))
	}
}

func (h *Headless) remove(el *element) {
	switch el.kind {
	case types.SubjectWindow:
		if h.windows[el.id] == el {
			delete(h.windows, el.id)
		}
	case types.SubjectIcon:
		if h.icons[el.id] == el {
			delete(h.icons, el.id)
		}
	}
}

type element struct {
	*Target

	owner     *Headless
	id        string
	kind      types.SubjectKind
	title     string
	rect      types.Rect
	zIndex    int
	minimized bool
	destroyed bool
}

func (e *element) ID() string              { return e.id }
func (e *element) Kind() types.SubjectKind { return e.kind }
func (e *element) Destroyed() bool         { return e.destroyed }
func (e *element) Minimized() bool         { return e.minimized }
func (e *element) Bounds() types.Rect      { return e.rect }
func (e *element) ZIndex() int             { return e.zIndex }
func (e *element) Title() string           { return e.title }

func (e *element) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.Target.clear()
	e.owner.remove(e)
	e.owner.emit(e, OpDestroy)
}

func (e *element) SetMinimized(minimized bool) {
	if e.destroyed || e.minimized == minimized {
		return
	}
	e.minimized = minimized
	e.owner.emit(e, OpMinimize)
}

// Place resolves corner coordinates or edge anchors against the viewport.
// Anchors take precedence; a missing axis keeps its current value.
func (e *element) Place(p *types.Placement) {
	if e.destroyed || p.IsZero() {
		return
	}
	x, y := e.rect.X, e.rect.Y
	if p.X != nil {
		x = *p.X
	}
	if p.Y != nil {
		y = *p.Y
	}
	if p.Right != nil {
		x = e.owner.width - *p.Right - e.rect.Width
	}
	if p.Bottom != nil {
		y = e.owner.height - *p.Bottom - e.rect.Height
	}
	e.move(x, y)
}

func (e *element) Move(x, y int) {
	if e.destroyed {
		return
	}
	e.move(x, y)
}

func (e *element) move(x, y int) {
	if e.rect.X == x && e.rect.Y == y {
		return
	}
	e.rect.X, e.rect.Y = x, y
	e.owner.emit(e, OpMove)
}

func (e *element) SetZIndex(z int) {
	if e.destroyed {
		return
	}
	e.zIndex = z
	e.owner.emit(e, OpStack)
}

func (e *element) SetTitle(title string) {
	if e.destroyed {
		return
	}
	e.title = title
	e.owner.emit(e, OpTitle)
}

func (e *element) AddEventListener(event string, fn Listener) ListenerID {
	if e.destroyed {
		return 0
	}
	return e.Target.AddEventListener(event, fn)
}

func (e *element) Dispatch(ev types.InputEvent) int {
	if e.destroyed {
		return 0
	}
	return e.Target.Dispatch(ev)
}

func (e *element) change(op string) Change {
	return Change{
		Op:        op,
		Kind:      e.kind,
		ID:        e.id,
		Rect:      e.rect,
		ZIndex:    e.zIndex,
		Minimized: e.minimized,
		Title:     e.title,
	}
}
