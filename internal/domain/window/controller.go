package window

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/bus"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/surface"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/loop"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

const (
	// BaseZIndex is the lowest stacking value handed to a window
	BaseZIndex = 100
	// ProcessID owns the controller's own timers in the registry
	ProcessID = "desktop:controller"

	DefaultDragThreshold = 5
	DefaultRestartDelay  = time.Second
	maxNameLength        = 128
)

// Options configures a Controller
type Options struct {
	DragThreshold int
	RestartDelay  time.Duration
	Logger        *zap.Logger
	Metrics       *monitoring.Metrics
}

// Controller drives the window state machine. It owns the stacking counter,
// the active window and the drag session, and is the only writer of
// lifecycle fields in the store. All methods run on the event loop.
type Controller struct {
	store     *store.Store
	registry  *process.Registry
	bus       bus.Bus
	presenter surface.Presenter
	ctx       *process.Context

	counter  int
	activeID string
	drag     *dragSession
	restarts map[string]loop.Handle

	threshold    int
	restartDelay time.Duration
	sanitizer    *bluemonday.Policy
	metrics      *monitoring.Metrics
	logger       *zap.Logger
}

// NewController wires a controller; call Init once metadata is injected
func NewController(st *store.Store, reg *process.Registry, b bus.Bus, presenter surface.Presenter, opts Options) *Controller {
	if opts.DragThreshold <= 0 {
		opts.DragThreshold = DefaultDragThreshold
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = DefaultRestartDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Controller{
		store:        st,
		registry:     reg,
		bus:          b,
		presenter:    presenter,
		counter:      BaseZIndex,
		restarts:     make(map[string]loop.Handle),
		threshold:    opts.DragThreshold,
		restartDelay: opts.RestartDelay,
		sanitizer:    bluemonday.StrictPolicy(),
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
}

// Init builds the desktop from the store: seeds the stacking counter,
// creates desktop icons and reopens windows that were open last session in
// their previous stacking order, without announcements.
func (c *Controller) Init() {
	c.ctx = c.registry.Context(ProcessID)
	c.counter = BaseZIndex
	if z := c.store.MaxZIndex(); z > c.counter {
		c.counter = z
	}

	records := c.declared()

	slot := 0
	for _, rec := range records {
		if !rec.ShowsDesktopIcon {
			continue
		}
		c.createIcon(rec, slot)
		slot++
	}

	var reopen []*types.AppRecord
	for _, rec := range records {
		if rec.IsOpen {
			reopen = append(reopen, rec)
		}
	}
	sort.SliceStable(reopen, func(i, j int) bool { return reopen[i].ZIndex < reopen[j].ZIndex })

	for _, rec := range reopen {
		// Open clears the flag, so remember it first
		minimized := rec.IsMinimized
		if err := c.Open(rec.ID, false); err != nil {
			c.logger.Warn("Failed to restore window", zap.String("app_id", rec.ID), zap.Error(err))
			continue
		}
		if minimized {
			if err := c.Minimize(rec.ID); err != nil {
				c.logger.Warn("Failed to minimize restored window", zap.String("app_id", rec.ID), zap.Error(err))
			}
		}
	}

	c.logger.Info("Desktop initialized",
		zap.Int("apps", len(records)),
		zap.Int("restored", len(reopen)),
		zap.Int("stack_counter", c.counter))
}

// Open shows an application. Service applications get no surface.
// With announce set a system:speak message is published.
func (c *Controller) Open(id string, announce bool) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	c.cancelRestart(id)

	wasOpen := rec.IsOpen
	wasMinimized := rec.IsMinimized

	if rec.IsService() {
		if !wasOpen {
			c.store.UpdateApp(id, types.AppPatch{IsOpen: types.Bool(true), IsMinimized: types.Bool(false)})
			c.bus.Publish(bus.TopicOpened, bus.AppEvent{ID: id})
			c.transition("opened")
		}
		if announce {
			c.announce(rec)
		}
		return nil
	}

	win, exists := c.presenter.Window(id)
	if !exists {
		win = c.presenter.CreateWindow(rec)
		win.Place(resolveWindowPlacement(rec))
		c.bus.Publish(bus.ReadyTopic(id), bus.AppEvent{ID: id})
	}

	win.SetMinimized(false)
	c.BringToFront(id)
	c.store.UpdateApp(id, types.AppPatch{IsOpen: types.Bool(true), IsMinimized: types.Bool(false)})

	switch {
	case !wasOpen:
		c.bus.Publish(bus.TopicOpened, bus.AppEvent{ID: id})
		c.transition("opened")
	case wasMinimized:
		c.bus.Publish(bus.TopicRestored, bus.AppEvent{ID: id})
		c.transition("restored")
	}

	if announce {
		c.announce(rec)
	}
	return nil
}

// Close hard-kills an application: its surface is destroyed, it is marked
// closed and every resource it holds is released. Closing a closed
// application does nothing. System applications are reopened after the
// restart delay.
func (c *Controller) Close(id string) error {
	return c.close(id, true)
}

func (c *Controller) close(id string, allowRestart bool) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}

	win, hasWindow := c.presenter.Window(id)
	if !rec.IsOpen && !hasWindow {
		return nil
	}

	if hasWindow {
		win.Destroy()
	}
	if c.drag != nil && c.drag.subject == id && c.drag.kind == types.SubjectWindow {
		c.drag = nil
	}
	c.store.UpdateApp(id, types.AppPatch{IsOpen: types.Bool(false), IsMinimized: types.Bool(false)})
	if c.activeID == id {
		c.activeID = ""
	}

	c.bus.Publish(bus.ClosedTopic(id), bus.AppEvent{ID: id})
	c.bus.Publish(bus.TopicClosed, bus.AppEvent{ID: id})
	c.bus.Publish(bus.TopicDestroyed, id)
	c.registry.Kill(id)
	c.transition("closed")

	if allowRestart && rec.System {
		c.scheduleRestart(id)
	}
	return nil
}

// Minimize hides an open window without releasing anything
func (c *Controller) Minimize(id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	win, ok := c.presenter.Window(id)
	if !rec.IsOpen || rec.IsMinimized || !ok {
		return nil
	}

	win.SetMinimized(true)
	c.store.UpdateApp(id, types.AppPatch{IsMinimized: types.Bool(true)})
	if c.activeID == id {
		c.activeID = ""
		c.bus.Publish(bus.TopicBlur, bus.AppEvent{ID: id})
	}
	c.bus.Publish(bus.TopicMinimized, bus.AppEvent{ID: id})
	c.transition("minimized")
	return nil
}

// Restore shows a minimized window again; stacking is left alone
func (c *Controller) Restore(id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	win, ok := c.presenter.Window(id)
	if !rec.IsOpen || !rec.IsMinimized || !ok {
		return nil
	}

	win.SetMinimized(false)
	c.store.UpdateApp(id, types.AppPatch{IsMinimized: types.Bool(false)})
	c.bus.Publish(bus.TopicRestored, bus.AppEvent{ID: id})
	c.transition("restored")
	return nil
}

// Toggle is the taskbar action: open a closed app, restore a minimized
// one, minimize the frontmost one and raise any other.
func (c *Controller) Toggle(id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}

	switch {
	case !rec.IsOpen:
		return c.Open(id, true)
	case rec.IsService():
		return nil
	case rec.IsMinimized:
		if err := c.Restore(id); err != nil {
			return err
		}
		c.BringToFront(id)
		return nil
	case c.frontmost(rec):
		return c.Minimize(id)
	default:
		c.BringToFront(id)
		return nil
	}
}

// BringToFront raises a window above every other and makes it active.
// An application without a window is ignored.
func (c *Controller) BringToFront(id string) {
	win, ok := c.presenter.Window(id)
	if !ok {
		return
	}

	c.counter++
	win.SetZIndex(c.counter)
	c.store.UpdateApp(id, types.AppPatch{ZIndex: types.Int(c.counter)})
	c.activeID = id
	c.bus.Publish(bus.TopicFocus, bus.AppEvent{ID: id})
}

// Focus is the window click action: raise unless already active
func (c *Controller) Focus(id string) error {
	if _, err := c.lookup(id); err != nil {
		return err
	}
	if c.activeID == id {
		return nil
	}
	c.BringToFront(id)
	return nil
}

// Rename changes the display name of an application's icon and window.
// Markup is stripped; the name is not persisted.
func (c *Controller) Rename(id, name string) (string, error) {
	if _, err := c.lookup(id); err != nil {
		return "", err
	}

	// StrictPolicy output is entity-escaped
	clean := strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(name)))
	if clean == "" || len([]rune(clean)) > maxNameLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	c.store.SetName(id, clean)
	if icon, ok := c.presenter.Icon(id); ok {
		icon.SetTitle(clean)
	}
	if win, ok := c.presenter.Window(id); ok {
		win.SetTitle(clean)
	}
	return clean, nil
}

// ResetLayout closes every application, forgets all persisted layout and
// rebuilds the desktop from metadata defaults.
func (c *Controller) ResetLayout(ctx context.Context) error {
	for _, rec := range c.declared() {
		if rec.IsOpen {
			_ = c.close(rec.ID, false)
		}
		if icon, ok := c.presenter.Icon(rec.ID); ok {
			icon.Destroy()
		}
	}
	for id := range c.restarts {
		c.cancelRestart(id)
	}
	c.drag = nil
	c.activeID = ""

	if err := c.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset layout: %w", err)
	}
	c.Init()
	return nil
}

// State returns the lifecycle state of id
func (c *Controller) State(id string) (types.State, error) {
	rec, err := c.lookup(id)
	if err != nil {
		return "", err
	}
	return rec.State(), nil
}

// ActiveID returns the active window, if any
func (c *Controller) ActiveID() (string, bool) {
	return c.activeID, c.activeID != ""
}

// Stats returns controller statistics
func (c *Controller) Stats() types.Stats {
	stats := types.Stats{
		StackCounter:   c.counter,
		DragInProgress: c.drag != nil,
	}
	for _, rec := range c.declared() {
		stats.TotalApps++
		if rec.IsOpen {
			stats.OpenApps++
			if rec.IsMinimized {
				stats.MinimizedApps++
			}
		}
	}
	if c.activeID != "" {
		stats.ActiveAppID = types.String(c.activeID)
	}
	return stats
}

// frontmost reports whether rec is both active and on top. The two
// normally agree; a divergence is logged and counts as not frontmost.
func (c *Controller) frontmost(rec *types.AppRecord) bool {
	active := c.activeID == rec.ID
	top := rec.ZIndex == c.counter
	if active != top {
		c.logger.Warn("Active window and stacking order disagree",
			zap.String("app_id", rec.ID),
			zap.String("active_id", c.activeID),
			zap.Int("z_index", rec.ZIndex),
			zap.Int("stack_counter", c.counter))
	}
	return active && top
}

func (c *Controller) lookup(id string) (*types.AppRecord, error) {
	rec, ok := c.store.Record(id)
	if !ok || !rec.Declared {
		c.logger.Warn("Unknown application", zap.String("app_id", id))
		return nil, fmt.Errorf("%w: %s", ErrUnknownApp, id)
	}
	return rec, nil
}

func (c *Controller) declared() []*types.AppRecord {
	var out []*types.AppRecord
	for _, id := range c.store.IDs() {
		if rec, ok := c.store.Record(id); ok && rec.Declared {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Controller) createIcon(rec *types.AppRecord, slot int) {
	icon := c.presenter.CreateIcon(rec)
	pos := resolveIconPosition(rec, slot)
	icon.Move(pos.X, pos.Y)
}

func (c *Controller) announce(rec *types.AppRecord) {
	msg := rec.OpenMessage
	if msg == "" {
		msg = "Opening " + rec.Name
	}
	c.bus.Publish(bus.TopicSpeak, msg)
}

func (c *Controller) scheduleRestart(id string) {
	if c.ctx == nil {
		c.ctx = c.registry.Context(ProcessID)
	}
	if _, pending := c.restarts[id]; pending {
		return
	}

	c.logger.Info("Scheduling system application restart",
		zap.String("app_id", id),
		zap.Duration("delay", c.restartDelay))

	c.restarts[id] = c.ctx.After(c.restartDelay, func() {
		delete(c.restarts, id)
		if err := c.Open(id, false); err != nil {
			c.logger.Error("Failed to restart system application", zap.String("app_id", id), zap.Error(err))
		}
	})
}

func (c *Controller) cancelRestart(id string) {
	h, ok := c.restarts[id]
	if !ok {
		return
	}
	delete(c.restarts, id)
	if c.ctx != nil {
		c.ctx.ClearAfter(h)
	}
}

func (c *Controller) transition(name string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordTransition(name)
	open := 0
	for _, rec := range c.declared() {
		if rec.IsOpen {
			open++
		}
	}
	c.metrics.SetAppsOpen(open)
}
