package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-seat-booking/internal/model"
)

// CategoryRepo reads and toggles seat categories.  Visibility is an admin
// setting: hidden categories disappear from every seat map.
type CategoryRepo struct {
    db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// All returns every category, visible or not.
func (r *CategoryRepo) All(ctx context.Context) ([]model.Category, error) {
    return r.list(ctx, `SELECT name, color, price FROM seat_categories ORDER BY sort_order, name`)
}

// Visible returns the categories currently shown to guests.
func (r *CategoryRepo) Visible(ctx context.Context) ([]model.Category, error) {
    return r.list(ctx, `SELECT name, color, price FROM seat_categories WHERE is_visible = 1 ORDER BY sort_order, name`)
}

// SetVisible shows or hides a category.
func (r *CategoryRepo) SetVisible(ctx context.Context, name string, visible bool) error {
    res, err := r.db.ExecContext(ctx, `UPDATE seat_categories SET is_visible = ? WHERE name = ?`, visible, name)
    if err != nil {
        return err
    }
    // MySQL reports 0 affected rows when the value is unchanged, so check
    // existence separately.
    if n, _ := res.RowsAffected(); n == 0 {
        var one int
        err := r.db.QueryRowContext(ctx, `SELECT 1 FROM seat_categories WHERE name = ?`, name).Scan(&one)
        if err == sql.ErrNoRows {
            return ErrCategoryNotFound
        }
        return err
    }
    return nil
}

func (r *CategoryRepo) list(ctx context.Context, q string) ([]model.Category, error) {
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    cats := []model.Category{}
    for rows.Next() {
        var c model.Category
        if err := rows.Scan(&c.Name, &c.Color, &c.Price); err != nil {
            return nil, err
        }
        cats = append(cats, c)
    }
    return cats, rows.Err()
}
