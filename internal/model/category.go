package model

// Category is a price/colour class of seats.  Price is expressed in the
// smallest currency unit.
type Category struct {
    Name  string `json:"name"`
    Color string `json:"color"`
    Price int64  `json:"price"`
}

// CategoryTable maps a category name to its definition.  It is a shared
// read-only lookup during a session.
type CategoryTable map[string]Category

// NewCategoryTable indexes categories by name.
func NewCategoryTable(cats []Category) CategoryTable {
    t := make(CategoryTable, len(cats))
    for _, c := range cats {
        t[c.Name] = c
    }
    return t
}

// Price returns the price of the named category or 0 when it is unknown.
func (t CategoryTable) Price(name string) int64 {
    if c, ok := t[name]; ok {
        return c.Price
    }
    return 0
}
