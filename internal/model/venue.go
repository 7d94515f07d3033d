package model

// Venue is the seating layout of one event location.  Coordinates are in
// pixels of the venue diagram; Width and Height bound the whole drawing.
// A venue is immutable for a session except through a full refetch.
type Venue struct {
    ID     string  `json:"id"`
    Name   string  `json:"name"`
    Width  float64 `json:"width"`
    Height float64 `json:"height"`
    Zones  []*Zone `json:"zones"`
}

// Zone groups rows of seats that share a block of the diagram.  X and Y
// position the zone inside the venue; every Row offset is relative to it.
//
// Fields:
//  ID    – zones.id
//  Name  – label shown on the map (e.g. "Balcony L")
//  X, Y  – top-left corner of the zone in venue coordinates
//  Rows  – seating rows ordered by sort_order
//  Areas – decorative shapes (stage, bar) without selection semantics
type Zone struct {
    ID    string  `json:"id"`
    Name  string  `json:"name"`
    X     float64 `json:"x"`
    Y     float64 `json:"y"`
    Rows  []*Row  `json:"rows"`
    Areas []Area  `json:"areas,omitempty"`
}

// Area is a decorative rectangle drawn inside a zone.
type Area struct {
    ID     string  `json:"id"`
    Label  string  `json:"label"`
    Kind   string  `json:"kind"`
    X      float64 `json:"x"`
    Y      float64 `json:"y"`
    Width  float64 `json:"width"`
    Height float64 `json:"height"`
}

// Row is a line of seats.  RowNumber is a display label and may not sort
// numerically ("AA", "VIP-1").  X and Y are offsets from the owning zone.
type Row struct {
    ID        string  `json:"id"`
    RowNumber string  `json:"row_number"`
    X         float64 `json:"x"`
    Y         float64 `json:"y"`
    Seats     []*Seat `json:"seats"`
}

// SeatCount returns the number of seats across all rows of the zone.
func (z *Zone) SeatCount() int {
    n := 0
    for _, r := range z.Rows {
        n += len(r.Seats)
    }
    return n
}
