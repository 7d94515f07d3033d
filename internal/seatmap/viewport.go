package seatmap

import (
	"math"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// DefaultPadding leaves a small margin around fitted content.
const DefaultPadding = 0.95

// Bounds is an axis-aligned rectangle.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Translate shifts the rectangle, e.g. from zone-local to venue coordinates.
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{MinX: b.MinX + dx, MinY: b.MinY + dy, MaxX: b.MaxX + dx, MaxY: b.MaxY + dy}
}

// Focus is the viewport centre and scale for a zoom target.
type Focus struct {
	CenterX float64
	CenterY float64
	Scale   float64
}

// FitToViewport returns the scale that fits content of size cw×ch into a
// viewport of vw×vh.  Degenerate sizes yield 1.
func FitToViewport(cw, ch, vw, vh, padding float64) float64 {
	if !(cw > 0 && ch > 0 && vw > 0 && vh > 0) {
		return 1.0
	}
	if padding <= 0 {
		padding = DefaultPadding
	}
	scale := math.Min(vw/cw, vh/ch) * padding
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 1.0
	}
	return scale
}

// ZoneBounds computes the extent of a zone's seats in zone-local
// coordinates.  Zones without seats report false and are not interactive.
func ZoneBounds(z *model.Zone) (Bounds, bool) {
	if z == nil {
		return Bounds{}, false
	}
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	found := false
	for _, r := range z.Rows {
		if r == nil {
			continue
		}
		for _, s := range r.Seats {
			if s == nil {
				continue
			}
			found = true
			x, y := r.X+s.X, r.Y+s.Y
			b.MinX = math.Min(b.MinX, x-s.Radius)
			b.MinY = math.Min(b.MinY, y-s.Radius)
			b.MaxX = math.Max(b.MaxX, x+s.Radius)
			b.MaxY = math.Max(b.MaxY, y+s.Radius)
		}
	}
	if !found {
		return Bounds{}, false
	}
	return b, true
}

// FocusOnZone centres the viewport on b and scales it to fit.
func FocusOnZone(b Bounds, vw, vh float64) Focus {
	return Focus{
		CenterX: (b.MinX + b.MaxX) / 2,
		CenterY: (b.MinY + b.MaxY) / 2,
		Scale:   FitToViewport(b.Width(), b.Height(), vw, vh, DefaultPadding),
	}
}

// ZoneColor picks the colour of the zone's most frequent seat category.
// Ties go to the category seen first.  Unknown categories are skipped and
// "" is returned when nothing matches.
func ZoneColor(z *model.Zone, cats model.CategoryTable) string {
	if z == nil {
		return ""
	}
	counts := map[string]int{}
	var order []string
	for _, r := range z.Rows {
		if r == nil {
			continue
		}
		for _, s := range r.Seats {
			if s == nil {
				continue
			}
			if _, ok := cats[s.Category]; !ok {
				continue
			}
			if counts[s.Category] == 0 {
				order = append(order, s.Category)
			}
			counts[s.Category]++
		}
	}
	best, bestN := "", 0
	for _, name := range order {
		if counts[name] > bestN {
			best, bestN = name, counts[name]
		}
	}
	if best == "" {
		return ""
	}
	return cats[best].Color
}
