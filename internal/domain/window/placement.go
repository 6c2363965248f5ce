package window

import "github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"

// Fallback positions when neither persisted state nor metadata has one
var (
	DefaultWindowPlacement = types.Placement{X: types.Int(100), Y: types.Int(100)}

	iconColumnX   = 30
	iconRowOrigin = 30
	iconRowStep   = 110
)

// resolveWindowPlacement picks where a window opens. Edge anchors beat
// corner coordinates, persisted state beats metadata defaults, and a fixed
// window prefers its metadata anchors over anything persisted.
func resolveWindowPlacement(rec *types.AppRecord) *types.Placement {
	def := rec.DefaultWindowPosition
	if rec.FixedPosition && def.HasAnchor() {
		return def.Clone()
	}

	persisted := rec.WindowPosition
	switch {
	case persisted.HasAnchor():
		return &types.Placement{Right: persisted.Right, Bottom: persisted.Bottom}
	case persisted.HasCorner():
		return &types.Placement{X: persisted.X, Y: persisted.Y}
	case def.HasAnchor():
		return &types.Placement{Right: def.Right, Bottom: def.Bottom}
	case def.HasCorner():
		return &types.Placement{X: def.X, Y: def.Y}
	}
	return DefaultWindowPlacement.Clone()
}

// resolveIconPosition picks where a desktop icon sits; slot is the icon's
// ordinal among icons without any position.
func resolveIconPosition(rec *types.AppRecord, slot int) types.Point {
	if rec.IconPosition != nil {
		return *rec.IconPosition
	}
	if rec.DefaultIconPosition != nil {
		return *rec.DefaultIconPosition
	}
	return types.Point{X: iconColumnX, Y: iconRowOrigin + slot*iconRowStep}
}
