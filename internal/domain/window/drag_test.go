package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/bus"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

func TestClickBelowThresholdFocuses(t *testing.T) {
	d := newDesktop(t, "", app("a"), app("b"))
	require.NoError(t, d.ctrl.Open("a", false))
	require.NoError(t, d.ctrl.Open("b", false))
	d.reset()

	require.True(t, d.ctrl.PointerDown(types.SubjectWindow, "a", 110, 110, ButtonLeft))
	d.ctrl.PointerMove(114, 113)
	d.ctrl.PointerUp(114, 113)

	active, _ := d.ctrl.ActiveID()
	assert.Equal(t, "a", active)
	assert.Equal(t, 1, countTopic(d.topics(), bus.TopicFocus))

	win, _ := d.presenter.Window("a")
	assert.Equal(t, 100, win.Bounds().X, "a click never moves the window")
	assert.Nil(t, d.record(t, "a").WindowPosition)
	assert.False(t, d.ctrl.Stats().DragInProgress)
}

func TestDragPastThresholdPersists(t *testing.T) {
	d := newDesktop(t, "", app("a"), app("b"))
	require.NoError(t, d.ctrl.Open("a", false))
	require.NoError(t, d.ctrl.Open("b", false))
	writes := d.backend.Writes("desktop_apps_v5")

	require.True(t, d.ctrl.PointerDown(types.SubjectWindow, "a", 110, 110, ButtonLeft))
	d.ctrl.PointerMove(115, 110)
	assert.True(t, d.ctrl.Stats().DragInProgress)

	active, _ := d.ctrl.ActiveID()
	assert.Equal(t, "a", active, "crossing the threshold raises the window")

	d.ctrl.PointerMove(210, -50)
	d.ctrl.PointerUp(210, -50)

	win, _ := d.presenter.Window("a")
	assert.Equal(t, 200, win.Bounds().X)
	assert.Equal(t, 0, win.Bounds().Y, "windows cannot leave the top edge")
	assert.Equal(t, types.At(200, 0), d.record(t, "a").WindowPosition)

	// one write for the raise, one for the release
	assert.Equal(t, writes+2, d.backend.Writes("desktop_apps_v5"))
}

func TestDragNeverClicks(t *testing.T) {
	d := newDesktop(t, "", types.Metadata{ID: "a", Name: "A", ShowsDesktopIcon: true, DefaultIconPosition: &types.Point{X: 30, Y: 30}})

	require.True(t, d.ctrl.PointerDown(types.SubjectIcon, "a", 40, 40, ButtonLeft))
	d.ctrl.PointerMove(40, 60)
	d.ctrl.PointerUp(40, 60)

	assert.Equal(t, types.StateClosed, d.record(t, "a").State(), "a dragged icon does not open")
	assert.Equal(t, &types.Point{X: 30, Y: 50}, d.record(t, "a").IconPosition)
}

func TestIconClickOpensWithAnnouncement(t *testing.T) {
	d := newDesktop(t, "", types.Metadata{ID: "a", Name: "A", ShowsDesktopIcon: true, OpenMessage: "hi"})

	require.True(t, d.ctrl.PointerDown(types.SubjectIcon, "a", 35, 35, ButtonLeft))
	d.ctrl.PointerUp(35, 35)

	assert.Equal(t, types.StateOpen, d.record(t, "a").State())
	assert.Equal(t, 1, countTopic(d.topics(), bus.TopicSpeak))
	assert.Nil(t, d.record(t, "a").IconPosition)
}

func TestIgnoredPresses(t *testing.T) {
	d := newDesktop(t, "", app("a"), app("b"))
	require.NoError(t, d.ctrl.Open("a", false))
	require.NoError(t, d.ctrl.Open("b", false))

	assert.False(t, d.ctrl.PointerDown(types.SubjectWindow, "a", 110, 110, 2), "right button")
	assert.False(t, d.ctrl.PointerDown(types.SubjectWindow, "ghost", 110, 110, ButtonLeft))
	assert.False(t, d.ctrl.PointerDown(types.SubjectIcon, "missing-icon", 0, 0, ButtonLeft))

	require.True(t, d.ctrl.PointerDown(types.SubjectWindow, "b", 110, 110, ButtonLeft))
	assert.False(t, d.ctrl.PointerDown(types.SubjectWindow, "a", 110, 110, ButtonLeft), "second press")

	d.ctrl.PointerUp(110, 110)
	active, _ := d.ctrl.ActiveID()
	assert.Equal(t, "b", active)

	// stray move and release with no gesture
	d.ctrl.PointerMove(500, 500)
	d.ctrl.PointerUp(500, 500)
}

func TestFixedSubjectNeverDrags(t *testing.T) {
	d := newDesktop(t, "", types.Metadata{
		ID: "dock", Name: "Dock", FixedPosition: true,
		DefaultWindowPosition: types.Anchored(10, 50),
	}, app("b"))
	require.NoError(t, d.ctrl.Open("dock", false))
	require.NoError(t, d.ctrl.Open("b", false))

	win, _ := d.presenter.Window("dock")
	before := win.Bounds()

	require.True(t, d.ctrl.PointerDown(types.SubjectWindow, "dock", before.X+5, before.Y+5, ButtonLeft))
	d.ctrl.PointerMove(before.X+200, before.Y+200)
	assert.Equal(t, before, win.Bounds())
	d.ctrl.PointerUp(before.X+200, before.Y+200)

	assert.Equal(t, before, win.Bounds())
	assert.Nil(t, d.record(t, "dock").WindowPosition)
	active, _ := d.ctrl.ActiveID()
	assert.Equal(t, "dock", active, "release of a fixed subject is a click")
}

func TestSubjectVanishesMidDrag(t *testing.T) {
	d := newDesktop(t, "", app("a"))
	require.NoError(t, d.ctrl.Open("a", false))

	require.True(t, d.ctrl.PointerDown(types.SubjectWindow, "a", 110, 110, ButtonLeft))
	d.ctrl.PointerMove(150, 150)

	win, _ := d.presenter.Window("a")
	win.Destroy()

	assert.NotPanics(t, func() {
		d.ctrl.PointerMove(200, 200)
		d.ctrl.PointerUp(200, 200)
	})
	assert.False(t, d.ctrl.Stats().DragInProgress)
	assert.Nil(t, d.record(t, "a").WindowPosition)
}

func TestCloseDuringPressDropsGesture(t *testing.T) {
	d := newDesktop(t, "", app("a"))
	require.NoError(t, d.ctrl.Open("a", false))

	require.True(t, d.ctrl.PointerDown(types.SubjectWindow, "a", 110, 110, ButtonLeft))
	require.NoError(t, d.ctrl.Close("a"))
	d.reset()

	d.ctrl.PointerUp(110, 110)
	assert.Empty(t, d.events)
	assert.Equal(t, types.StateClosed, d.record(t, "a").State())
}

func TestCancelDragRestoresPosition(t *testing.T) {
	d := newDesktop(t, "", app("a"))
	require.NoError(t, d.ctrl.Open("a", false))

	require.True(t, d.ctrl.PointerDown(types.SubjectWindow, "a", 110, 110, ButtonLeft))
	d.ctrl.PointerMove(300, 300)
	d.ctrl.CancelDrag()

	win, _ := d.presenter.Window("a")
	assert.Equal(t, 100, win.Bounds().X)
	assert.Nil(t, d.record(t, "a").WindowPosition)
	assert.False(t, d.ctrl.Stats().DragInProgress)
}

func TestCustomThreshold(t *testing.T) {
	d := newDesktop(t, "", app("a"))
	d.ctrl.threshold = 20
	require.NoError(t, d.ctrl.Open("a", false))

	require.True(t, d.ctrl.PointerDown(types.SubjectWindow, "a", 110, 110, ButtonLeft))
	d.ctrl.PointerMove(125, 110)
	d.ctrl.PointerUp(125, 110)

	assert.Nil(t, d.record(t, "a").WindowPosition)
}

func TestGestureIgnoresOtherOwners(t *testing.T) {
	d := newDesktop(t, "", types.Metadata{
		ID: "a", Name: "A", ShowsDesktopIcon: true,
		DefaultIconPosition: &types.Point{X: 30, Y: 30},
	})

	require.True(t, d.ctrl.PointerDownBy("left", types.SubjectIcon, "a", 35, 35, ButtonLeft))
	assert.False(t, d.ctrl.PointerDownBy("right", types.SubjectIcon, "a", 35, 35, ButtonLeft))

	d.ctrl.PointerMoveBy("right", 400, 400)
	d.ctrl.PointerUpBy("right", 400, 400)
	d.ctrl.CancelDragBy("right")
	icon, _ := d.presenter.Icon("a")
	assert.Equal(t, 30, icon.Bounds().X)
	assert.True(t, d.ctrl.Stats().DragInProgress)
	assert.Equal(t, types.StateClosed, d.record(t, "a").State())

	d.ctrl.CancelDragBy("left")
	assert.False(t, d.ctrl.Stats().DragInProgress)
	assert.Equal(t, types.StateClosed, d.record(t, "a").State())
}
