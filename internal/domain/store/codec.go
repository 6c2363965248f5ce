package store

import (
	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// layout is the on-disk shape under the current key
type layout map[string]types.PersistedApp

// legacyApp is a record written under the legacy key. Those records carried
// the whole descriptor; only the dynamic fields survive migration.
type legacyApp struct {
	Pos         *types.Point      `json:"pos"`
	WinPos      *types.Placement  `json:"winPos"`
	IsOpen      bool              `json:"isOpen"`
	IsMinimized bool              `json:"isMinimized"`
	ZIndex      int               `json:"zIndex"`
	Size        *types.WindowSize `json:"size"`
}

func (l legacyApp) migrate() types.PersistedApp {
	return types.PersistedApp{
		IconPosition:   l.Pos,
		WindowPosition: l.WinPos,
		IsOpen:         l.IsOpen,
		IsMinimized:    l.IsMinimized,
		ZIndex:         l.ZIndex,
		Size:           l.Size,
	}
}

// encodeLayout sorts map keys so identical layouts encode identically
func encodeLayout(l layout) ([]byte, error) {
	return sonic.ConfigStd.Marshal(l)
}

func decodeLayout(data []byte) (layout, error) {
	var l layout
	if err := sonic.ConfigStd.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return l, nil
}

func decodeLegacy(data []byte) (layout, error) {
	var raw map[string]legacyApp
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	l := make(layout, len(raw))
	for id, app := range raw {
		l[id] = app.migrate()
	}
	return l, nil
}
