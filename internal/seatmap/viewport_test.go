package seatmap

import (
	"math"
	"testing"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitToViewport(t *testing.T) {
	tests := []struct {
		name                string
		cw, ch, vw, vh, pad float64
		want                float64
	}{
		{"width bound", 2000, 1000, 1000, 1000, 1, 0.5},
		{"height bound", 1000, 2000, 1000, 1000, 0.5, 0.25},
		{"default padding", 1000, 1000, 1000, 1000, 0, DefaultPadding},
		{"zero content", 0, 0, 800, 600, 1, 1},
		{"zero viewport", 800, 600, 0, 0, 1, 1},
		{"negative", -5, 100, 800, 600, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitToViewport(tt.cw, tt.ch, tt.vw, tt.vh, tt.pad)
			assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestZoneBoundsAndFocus(t *testing.T) {
	z := &model.Zone{Rows: []*model.Row{
		{X: 10, Y: 20, Seats: []*model.Seat{{X: 0, Y: 0, Radius: 5}, {X: 40, Y: 0, Radius: 5}}},
		{X: 10, Y: 60, Seats: []*model.Seat{{X: 20, Y: 0, Radius: 5}}},
	}}
	b, ok := ZoneBounds(z)
	require.True(t, ok)
	assert.Equal(t, Bounds{MinX: 5, MinY: 15, MaxX: 55, MaxY: 65}, b)

	f := FocusOnZone(b, 500, 500)
	assert.InDelta(t, 30, f.CenterX, 1e-9)
	assert.InDelta(t, 40, f.CenterY, 1e-9)
	assert.InDelta(t, 10*DefaultPadding, f.Scale, 1e-9)

	assert.Equal(t, Bounds{MinX: 105, MinY: 115, MaxX: 155, MaxY: 165}, b.Translate(100, 100))
}

func TestZoneBounds_NoSeats(t *testing.T) {
	_, ok := ZoneBounds(&model.Zone{Rows: []*model.Row{{ID: "empty"}}})
	assert.False(t, ok)
	_, ok = ZoneBounds(nil)
	assert.False(t, ok)
}

func TestZoneColor(t *testing.T) {
	cats := model.NewCategoryTable(testCategories())
	seat := func(cat string) *model.Seat { return &model.Seat{Category: cat} }

	z := &model.Zone{Rows: []*model.Row{{Seats: []*model.Seat{seat("Regular"), seat("VIP"), seat("VIP")}}}}
	assert.Equal(t, "#d4af37", ZoneColor(z, cats))

	tie := &model.Zone{Rows: []*model.Row{{Seats: []*model.Seat{seat("Regular"), seat("VIP")}}}}
	assert.Equal(t, "#4a90d9", ZoneColor(tie, cats))

	unknown := &model.Zone{Rows: []*model.Row{{Seats: []*model.Seat{seat("Ghost")}}}}
	assert.Equal(t, "", ZoneColor(unknown, cats))
}
