package types

// State represents the visible lifecycle state of an application
type State string

const (
	StateClosed    State = "closed"
	StateOpen      State = "open"
	StateMinimized State = "minimized"
)

// Kind discriminates applications that own a window from background services
type Kind string

const (
	KindWindow  Kind = "window"
	KindService Kind = "service"
)

// SubjectKind identifies what a pointer gesture is acting on
type SubjectKind string

const (
	SubjectWindow SubjectKind = "window"
	SubjectIcon   SubjectKind = "icon"
)

// Point is a top-left screen coordinate
type Point struct {
	X int `json:"x" yaml:"x" toml:"x"`
	Y int `json:"y" yaml:"y" toml:"y"`
}

// Placement positions a surface by corner coordinates and/or edge anchors.
// Any combination may be set; resolution rules live in the window package.
type Placement struct {
	X      *int `json:"x,omitempty" yaml:"x,omitempty" toml:"x,omitempty"`
	Y      *int `json:"y,omitempty" yaml:"y,omitempty" toml:"y,omitempty"`
	Right  *int `json:"right,omitempty" yaml:"right,omitempty" toml:"right,omitempty"`
	Bottom *int `json:"bottom,omitempty" yaml:"bottom,omitempty" toml:"bottom,omitempty"`
}

// At returns a corner placement
func At(x, y int) *Placement {
	return &Placement{X: &x, Y: &y}
}

// Anchored returns an edge placement
func Anchored(right, bottom int) *Placement {
	return &Placement{Right: &right, Bottom: &bottom}
}

// HasCorner reports whether both corner coordinates are set
func (p *Placement) HasCorner() bool {
	return p != nil && p.X != nil && p.Y != nil
}

// HasAnchor reports whether any edge anchor is set
func (p *Placement) HasAnchor() bool {
	return p != nil && (p.Right != nil || p.Bottom != nil)
}

// IsZero reports whether no coordinate is set
func (p *Placement) IsZero() bool {
	return p == nil || (p.X == nil && p.Y == nil && p.Right == nil && p.Bottom == nil)
}

// Clone returns a deep copy
func (p *Placement) Clone() *Placement {
	if p == nil {
		return nil
	}
	c := &Placement{}
	c.X = cloneInt(p.X)
	c.Y = cloneInt(p.Y)
	c.Right = cloneInt(p.Right)
	c.Bottom = cloneInt(p.Bottom)
	return c
}

// WindowSize represents window dimensions
type WindowSize struct {
	Width  int `json:"width" yaml:"width" toml:"width" validate:"gte=0"`
	Height int `json:"height" yaml:"height" toml:"height" validate:"gte=0"`
}

// Rect is a resolved on-screen rectangle
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Metadata is the code-supplied descriptor of an application.
// None of these fields are persisted; they are re-applied on every start.
type Metadata struct {
	ID                    string      `json:"id" yaml:"id" toml:"id" validate:"required,max=64,appid"`
	Name                  string      `json:"name" yaml:"name" toml:"name" validate:"required,max=128"`
	Content               string      `json:"content,omitempty" yaml:"content" toml:"content"`
	Icon                  string      `json:"icon,omitempty" yaml:"icon" toml:"icon"`
	Color                 string      `json:"color,omitempty" yaml:"color" toml:"color" validate:"omitempty,hexcolor"`
	ContentStyle          string      `json:"contentStyle,omitempty" yaml:"contentStyle" toml:"contentStyle"`
	OpenMessage           string      `json:"openMessage,omitempty" yaml:"openMessage" toml:"openMessage"`
	Kind                  Kind        `json:"kind" yaml:"kind" toml:"kind" validate:"omitempty,oneof=window service"`
	System                bool        `json:"system,omitempty" yaml:"system" toml:"system"`
	ShowsDesktopIcon      bool        `json:"showsDesktopIcon" yaml:"showsDesktopIcon" toml:"showsDesktopIcon"`
	ShowsTaskbarIcon      bool        `json:"showsTaskbarIcon" yaml:"showsTaskbarIcon" toml:"showsTaskbarIcon"`
	FixedPosition         bool        `json:"fixedPosition,omitempty" yaml:"fixedPosition" toml:"fixedPosition"`
	DefaultIconPosition   *Point      `json:"defaultIconPosition,omitempty" yaml:"defaultIconPosition" toml:"defaultIconPosition"`
	DefaultWindowPosition *Placement  `json:"defaultWindowPosition,omitempty" yaml:"defaultWindowPosition" toml:"defaultWindowPosition"`
	DefaultSize           *WindowSize `json:"defaultSize,omitempty" yaml:"defaultSize" toml:"defaultSize"`
}

// IsService reports whether the application runs without a window
func (m Metadata) IsService() bool {
	return m.Kind == KindService
}

// AppRecord is the merged view of metadata and dynamic state for one application
type AppRecord struct {
	Metadata

	IsOpen         bool        `json:"isOpen"`
	IsMinimized    bool        `json:"isMinimized"`
	IconPosition   *Point      `json:"iconPosition,omitempty"`
	WindowPosition *Placement  `json:"windowPosition,omitempty"`
	ZIndex         int         `json:"zIndex"`
	Size           *WindowSize `json:"size,omitempty"`

	// Declared is false for records that were only hydrated from storage
	// and have not (yet) received metadata.
	Declared bool `json:"declared"`
}

// State derives the lifecycle state from the dynamic flags
func (r *AppRecord) State() State {
	switch {
	case !r.IsOpen:
		return StateClosed
	case r.IsMinimized:
		return StateMinimized
	default:
		return StateOpen
	}
}

// Clone returns a deep copy of the record
func (r *AppRecord) Clone() *AppRecord {
	c := *r
	c.IconPosition = clonePoint(r.IconPosition)
	c.WindowPosition = r.WindowPosition.Clone()
	c.Size = cloneSize(r.Size)
	c.DefaultIconPosition = clonePoint(r.DefaultIconPosition)
	c.DefaultWindowPosition = r.DefaultWindowPosition.Clone()
	c.DefaultSize = cloneSize(r.DefaultSize)
	return &c
}

// Persisted extracts the dynamic subset that is written to durable storage
func (r *AppRecord) Persisted() PersistedApp {
	return PersistedApp{
		IconPosition:   clonePoint(r.IconPosition),
		WindowPosition: r.WindowPosition.Clone(),
		IsOpen:         r.IsOpen,
		IsMinimized:    r.IsMinimized,
		ZIndex:         r.ZIndex,
		Size:           cloneSize(r.Size),
	}
}

// PersistedApp is the only shape ever written to durable storage
type PersistedApp struct {
	IconPosition   *Point      `json:"iconPosition,omitempty"`
	WindowPosition *Placement  `json:"windowPosition,omitempty"`
	IsOpen         bool        `json:"isOpen"`
	IsMinimized    bool        `json:"isMinimized"`
	ZIndex         int         `json:"zIndex,omitempty"`
	Size           *WindowSize `json:"size,omitempty"`
}

// AppPatch is a shallow partial update; nil fields are left untouched
type AppPatch struct {
	Name           *string
	IsOpen         *bool
	IsMinimized    *bool
	IconPosition   *Point
	WindowPosition *Placement
	ZIndex         *int
	Size           *WindowSize
}

// Stats contains lifecycle controller statistics
type Stats struct {
	TotalApps      int     `json:"total_apps"`
	OpenApps       int     `json:"open_apps"`
	MinimizedApps  int     `json:"minimized_apps"`
	StackCounter   int     `json:"stack_counter"`
	ActiveAppID    *string `json:"active_app_id,omitempty"`
	DragInProgress bool    `json:"drag_in_progress"`
}

// Bool returns a pointer to b
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i
func Int(i int) *int { return &i }

// String returns a pointer to s
func String(s string) *string { return &s }

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func clonePoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneSize(s *WindowSize) *WindowSize {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
