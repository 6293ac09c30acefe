package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"orderdesk/internal/apperr"
	"orderdesk/internal/closing"
	"orderdesk/internal/models"
	"orderdesk/internal/schedule"
)

const (
	windowKindPlace = "place"
	windowKindOrder = "order"
)

const restaurantColumns = `id, admin_id, name, phone, email, street, city, zip_code, country,
	description, is_public, is_open, is_published, created_at, updated_at`

// CreateRestaurant inserts r with its windows and closing dates and sets r.ID.
func (db *DB) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	now := db.now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now

	return db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO restaurants (
				admin_id, name, phone, email, street, city, zip_code, country,
				description, is_public, is_open, is_published, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.AdminID, r.Name, r.Phone, r.Email,
			r.Address.Street, r.Address.City, r.Address.ZipCode, r.Address.Country,
			r.Description, r.IsPublic, r.IsOpen, r.IsPublished, r.CreatedAt, r.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert restaurant: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("get last id: %w", err)
		}
		r.ID = id
		return writeRestaurantChildren(ctx, tx, r)
	})
}

// UpdateRestaurant replaces the restaurant row and all of its windows and closing dates.
func (db *DB) UpdateRestaurant(ctx context.Context, r *models.Restaurant) error {
	r.UpdatedAt = db.now().UTC()

	return db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE restaurants SET
				admin_id = ?, name = ?, phone = ?, email = ?, street = ?, city = ?, zip_code = ?,
				country = ?, description = ?, is_public = ?, is_open = ?, is_published = ?, updated_at = ?
			WHERE id = ?`,
			r.AdminID, r.Name, r.Phone, r.Email,
			r.Address.Street, r.Address.City, r.Address.ZipCode, r.Address.Country,
			r.Description, r.IsPublic, r.IsOpen, r.IsPublished, r.UpdatedAt, r.ID,
		)
		if err != nil {
			return fmt.Errorf("update restaurant %d: %w", r.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperr.NotFound("restaurant", r.ID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM opening_windows WHERE restaurant_id = ?`, r.ID); err != nil {
			return fmt.Errorf("clear windows: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM closing_dates WHERE restaurant_id = ?`, r.ID); err != nil {
			return fmt.Errorf("clear closing dates: %w", err)
		}
		return writeRestaurantChildren(ctx, tx, r)
	})
}

// SetRestaurantOpen flips the manual open toggle.
func (db *DB) SetRestaurantOpen(ctx context.Context, id int64, open bool) error {
	res, err := db.ExecContext(ctx,
		`UPDATE restaurants SET is_open = ?, updated_at = ? WHERE id = ?`,
		open, db.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set open for restaurant %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("restaurant", id)
	}
	return nil
}

// GetRestaurant loads one restaurant with its windows (ascending) and closing dates (ascending).
func (db *DB) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	row := db.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = ?`, id)
	r, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("restaurant", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant %d: %w", id, err)
	}
	if err := loadRestaurantChildren(ctx, db, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRestaurants returns restaurants matching f ordered by id.
func (db *DB) ListRestaurants(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error) {
	var (
		where []string
		args  []any
	)
	if f.AdminID > 0 {
		where = append(where, "admin_id = ?")
		args = append(args, f.AdminID)
	}
	if f.PublishedOnly {
		where = append(where, "is_published = 1")
	}
	query := `SELECT ` + restaurantColumns + ` FROM restaurants`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	query, args = paginate(query, args, f.Limit, f.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	var out []*models.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, r := range out {
		if err := loadRestaurantChildren(ctx, db, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListPublished returns the published restaurants.
func (db *DB) ListPublished(ctx context.Context, limit, offset int) ([]*models.Restaurant, error) {
	return db.ListRestaurants(ctx, models.RestaurantFilter{PublishedOnly: true, Limit: limit, Offset: offset})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(s rowScanner) (*models.Restaurant, error) {
	var r models.Restaurant
	err := s.Scan(
		&r.ID, &r.AdminID, &r.Name, &r.Phone, &r.Email,
		&r.Address.Street, &r.Address.City, &r.Address.ZipCode, &r.Address.Country,
		&r.Description, &r.IsPublic, &r.IsOpen, &r.IsPublished, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func writeRestaurantChildren(ctx context.Context, tx *sql.Tx, r *models.Restaurant) error {
	insertWindows := func(kind string, windows []schedule.Window) error {
		for _, w := range windows {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO opening_windows (restaurant_id, kind, day_of_week, offset_minutes, duration_minutes)
				VALUES (?, ?, ?, ?, ?)`,
				r.ID, kind, int(w.DayOfWeek), w.OffsetMinutes, w.DurationMinutes,
			); err != nil {
				return fmt.Errorf("insert %s window: %w", kind, err)
			}
		}
		return nil
	}
	if err := insertWindows(windowKindPlace, r.PlaceWindows); err != nil {
		return err
	}
	if err := insertWindows(windowKindOrder, r.OrderWindows); err != nil {
		return err
	}

	for i := range r.ClosingDates {
		cd := &r.ClosingDates[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO closing_dates (restaurant_id, date) VALUES (?, ?)`,
			r.ID, cd.Date.Format(closing.DateLayout),
		)
		if err != nil {
			return fmt.Errorf("insert closing date: %w", err)
		}
		if cd.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("get last id: %w", err)
		}
		cd.RestaurantID = r.ID
	}
	return nil
}

func loadRestaurantChildren(ctx context.Context, q queryer, r *models.Restaurant) error {
	rows, err := q.QueryContext(ctx, `
		SELECT kind, day_of_week, offset_minutes, duration_minutes
		FROM opening_windows WHERE restaurant_id = ? ORDER BY id`, r.ID)
	if err != nil {
		return fmt.Errorf("load windows of restaurant %d: %w", r.ID, err)
	}
	defer rows.Close()

	var place, ord []schedule.Window
	for rows.Next() {
		var (
			kind string
			day  int
			w    schedule.Window
		)
		if err := rows.Scan(&kind, &day, &w.OffsetMinutes, &w.DurationMinutes); err != nil {
			return fmt.Errorf("scan window: %w", err)
		}
		w.DayOfWeek = time.Weekday(day)
		if kind == windowKindPlace {
			place = append(place, w)
		} else {
			ord = append(ord, w)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	r.PlaceWindows = schedule.Ascending(place)
	r.OrderWindows = schedule.Ascending(ord)

	dateRows, err := q.QueryContext(ctx,
		`SELECT id, date FROM closing_dates WHERE restaurant_id = ? ORDER BY date`, r.ID)
	if err != nil {
		return fmt.Errorf("load closing dates of restaurant %d: %w", r.ID, err)
	}
	defer dateRows.Close()

	r.ClosingDates = nil
	for dateRows.Next() {
		var (
			cd  models.ClosingDate
			raw string
		)
		if err := dateRows.Scan(&cd.ID, &raw); err != nil {
			return fmt.Errorf("scan closing date: %w", err)
		}
		if cd.Date, err = closing.ParseDate(raw); err != nil {
			return fmt.Errorf("parse closing date %q: %w", raw, err)
		}
		cd.RestaurantID = r.ID
		r.ClosingDates = append(r.ClosingDates, cd)
	}
	return dateRows.Err()
}

func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	query += " LIMIT ? OFFSET ?"
	return query, append(args, limit, offset)
}
