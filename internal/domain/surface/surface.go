package surface

import "github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"

// Listener receives input events dispatched to a target
type Listener func(types.InputEvent)

// ListenerID identifies one registration on one target
type ListenerID uint64

// EventTarget accepts input listeners
type EventTarget interface {
	AddEventListener(event string, fn Listener) ListenerID
	RemoveEventListener(event string, id ListenerID)
	Dispatch(ev types.InputEvent) int
}

// Surface is the on-screen element of one window or desktop icon.
// Every method on a destroyed surface is a silent no-op.
type Surface interface {
	EventTarget

	ID() string
	Kind() types.SubjectKind
	Destroy()
	Destroyed() bool
	SetMinimized(minimized bool)
	Minimized() bool
	Bounds() types.Rect
	Place(p *types.Placement)
	Move(x, y int)
	SetZIndex(z int)
	ZIndex() int
	SetTitle(title string)
	Title() string
}

// Presenter creates and looks up surfaces
type Presenter interface {
	CreateWindow(rec *types.AppRecord) Surface
	CreateIcon(rec *types.AppRecord) Surface
	Window(id string) (Surface, bool)
	Icon(id string) (Surface, bool)
	Viewport() (width, height int)
}

// Change describes one surface mutation for mirroring to clients
type Change struct {
	Op        string            `json:"op"`
	Kind      types.SubjectKind `json:"kind"`
	ID        string            `json:"id"`
	Rect      types.Rect        `json:"rect"`
	ZIndex    int               `json:"zIndex"`
	Minimized bool              `json:"minimized"`
	Title     string            `json:"title,omitempty"`
}

// Change ops
const (
	OpCreate   = "create"
	OpDestroy  = "destroy"
	OpMove     = "move"
	OpStack    = "stack"
	OpMinimize = "minimize"
	OpTitle    = "title"
)

// Sink receives every surface change
type Sink func(Change)
