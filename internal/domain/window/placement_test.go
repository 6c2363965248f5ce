package window

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

func TestResolveWindowPlacement(t *testing.T) {
	tests := []struct {
		name string
		rec  types.AppRecord
		want *types.Placement
	}{
		{
			name: "fallback",
			want: types.At(100, 100),
		},
		{
			name: "metadata corner",
			rec:  types.AppRecord{Metadata: types.Metadata{DefaultWindowPosition: types.At(300, 300)}},
			want: types.At(300, 300),
		},
		{
			name: "persisted corner beats metadata",
			rec: types.AppRecord{
				Metadata:       types.Metadata{DefaultWindowPosition: types.At(300, 300)},
				WindowPosition: types.At(10, 20),
			},
			want: types.At(10, 20),
		},
		{
			name: "anchor beats corner",
			rec: types.AppRecord{WindowPosition: &types.Placement{
				X: types.Int(10), Y: types.Int(20), Right: types.Int(5), Bottom: types.Int(6),
			}},
			want: types.Anchored(5, 6),
		},
		{
			name: "metadata anchor beats metadata corner",
			rec: types.AppRecord{Metadata: types.Metadata{DefaultWindowPosition: &types.Placement{
				X: types.Int(1), Y: types.Int(2), Right: types.Int(10), Bottom: types.Int(50),
			}}},
			want: types.Anchored(10, 50),
		},
		{
			name: "fixed prefers metadata anchor over persisted corner",
			rec: types.AppRecord{
				Metadata:       types.Metadata{FixedPosition: true, DefaultWindowPosition: types.Anchored(10, 50)},
				WindowPosition: types.At(400, 400),
			},
			want: types.Anchored(10, 50),
		},
		{
			name: "fixed without anchor uses persisted",
			rec: types.AppRecord{
				Metadata:       types.Metadata{FixedPosition: true, DefaultWindowPosition: types.At(1, 1)},
				WindowPosition: types.At(400, 400),
			},
			want: types.At(400, 400),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveWindowPlacement(&tt.rec))
		})
	}
}

func TestResolveIconPosition(t *testing.T) {
	assert.Equal(t, types.Point{X: 30, Y: 250}, resolveIconPosition(&types.AppRecord{}, 2))

	rec := &types.AppRecord{Metadata: types.Metadata{DefaultIconPosition: &types.Point{X: 5, Y: 6}}}
	assert.Equal(t, types.Point{X: 5, Y: 6}, resolveIconPosition(rec, 0))

	rec.IconPosition = &types.Point{X: 7, Y: 8}
	assert.Equal(t, types.Point{X: 7, Y: 8}, resolveIconPosition(rec, 0))
}
