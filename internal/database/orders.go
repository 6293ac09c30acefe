package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"
)

const orderColumns = `id, reference, customer_id, restaurant_id, reserved_for, created_at, accepted_at,
	total_price_cents, customer_comment, restaurant_comment, is_deleted`

// CreateOrder persists the order, its product snapshots and its status log as one unit.
func (db *DB) CreateOrder(ctx context.Context, o *models.Order) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (
				reference, customer_id, restaurant_id, reserved_for, created_at, accepted_at,
				total_price_cents, customer_comment, restaurant_comment, is_deleted
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.Reference, o.CustomerID, o.RestaurantID, o.ReservedFor.UTC(), o.CreatedAt.UTC(),
			nullTime(o.AcceptedAt), o.TotalPriceCents, o.CustomerComment, nullString(o.RestaurantComment), o.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if o.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("get last id: %w", err)
		}

		for i := range o.Products {
			p := &o.Products[i]
			p.OrderID = o.ID
			allergens, tags, err := encodeProductLists(p.Allergens, p.Tags)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO ordered_products (order_id, product_id, name, description, price_cents, allergens, tags)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				o.ID, p.ProductID, p.Name, p.Description, p.PriceCents, allergens, tags,
			)
			if err != nil {
				return fmt.Errorf("insert ordered product: %w", err)
			}
			if p.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("get last id: %w", err)
			}
		}

		for i := range o.Statuses {
			o.Statuses[i].OrderID = o.ID
			if err := insertStatus(ctx, tx, &o.Statuses[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetOrder loads one order with snapshots and status log.
func (db *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return getOrder(ctx, db, id)
}

// ListOrders returns non-deleted orders matching f, most recent reservation first.
func (db *DB) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	where := []string{"is_deleted = 0"}
	var args []any
	if f.RestaurantID > 0 {
		where = append(where, "restaurant_id = ?")
		args = append(args, f.RestaurantID)
	}
	if f.CustomerID > 0 {
		where = append(where, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if !f.From.IsZero() {
		where = append(where, "reserved_for >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "reserved_for < ?")
		args = append(args, f.To.UTC())
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY reserved_for DESC, id DESC`
	query, args = paginate(query, args, f.Limit, f.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, o := range out {
		if err := loadOrderChildren(ctx, db, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StatusPlanner decides the status entries to append to a batch of orders. It must
// return an error, and write nothing, when any order cannot take its new status.
type StatusPlanner func(orders []*models.Order) ([]models.OrderStatus, error)

// AddStatuses re-reads the orders of restaurantID inside one write transaction, asks plan
// for the new status entries and persists them together with first-acceptance stamps.
// Either every entry is written or none is.
func (db *DB) AddStatuses(ctx context.Context, restaurantID int64, orderIDs []int64, plan StatusPlanner) ([]*models.Order, error) {
	var orders []*models.Order
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		orders = orders[:0]
		for _, id := range orderIDs {
			o, err := getOrder(ctx, tx, id)
			if err != nil {
				return err
			}
			if o.RestaurantID != restaurantID || o.IsDeleted {
				return apperr.NotFound("order", id)
			}
			orders = append(orders, o)
		}

		accepted := make(map[int64]bool, len(orders))
		for _, o := range orders {
			accepted[o.ID] = o.AcceptedAt != nil
		}

		statuses, err := plan(orders)
		if err != nil {
			return err
		}
		for i := range statuses {
			if err := insertStatus(ctx, tx, &statuses[i]); err != nil {
				return err
			}
		}
		for _, o := range orders {
			if o.AcceptedAt == nil || accepted[o.ID] {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE orders SET accepted_at = ? WHERE id = ? AND accepted_at IS NULL`,
				o.AcceptedAt.UTC(), o.ID,
			); err != nil {
				return fmt.Errorf("stamp acceptance of order %d: %w", o.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func getOrder(ctx context.Context, q queryer, id int64) (*models.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	if err := loadOrderChildren(ctx, q, o); err != nil {
		return nil, err
	}
	return o, nil
}

func scanOrder(s rowScanner) (*models.Order, error) {
	var (
		o          models.Order
		acceptedAt sql.NullTime
		comment    sql.NullString
	)
	if err := s.Scan(
		&o.ID, &o.Reference, &o.CustomerID, &o.RestaurantID, &o.ReservedFor, &o.CreatedAt, &acceptedAt,
		&o.TotalPriceCents, &o.CustomerComment, &comment, &o.IsDeleted,
	); err != nil {
		return nil, err
	}
	if acceptedAt.Valid {
		at := acceptedAt.Time
		o.AcceptedAt = &at
	}
	if comment.Valid {
		c := comment.String
		o.RestaurantComment = &c
	}
	return &o, nil
}

func loadOrderChildren(ctx context.Context, q queryer, o *models.Order) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, product_id, name, description, price_cents, allergens, tags
		FROM ordered_products WHERE order_id = ? ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("load products of order %d: %w", o.ID, err)
	}
	defer rows.Close()

	o.Products = nil
	for rows.Next() {
		var (
			p               models.OrderedProduct
			allergens, tags string
		)
		if err := rows.Scan(&p.ID, &p.ProductID, &p.Name, &p.Description, &p.PriceCents, &allergens, &tags); err != nil {
			return fmt.Errorf("scan ordered product: %w", err)
		}
		if p.Allergens, err = decodeList(allergens); err != nil {
			return fmt.Errorf("decode allergens: %w", err)
		}
		if p.Tags, err = decodeList(tags); err != nil {
			return fmt.Errorf("decode tags: %w", err)
		}
		p.OrderID = o.ID
		o.Products = append(o.Products, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	statusRows, err := q.QueryContext(ctx,
		`SELECT id, state, date_time FROM order_statuses WHERE order_id = ? ORDER BY date_time, id`, o.ID)
	if err != nil {
		return fmt.Errorf("load statuses of order %d: %w", o.ID, err)
	}
	defer statusRows.Close()

	o.Statuses = nil
	for statusRows.Next() {
		var (
			st  models.OrderStatus
			raw string
		)
		if err := statusRows.Scan(&st.ID, &raw, &st.DateTime); err != nil {
			return fmt.Errorf("scan status: %w", err)
		}
		if st.State, err = models.ParseOrderState(raw); err != nil {
			return fmt.Errorf("order %d: %w", o.ID, err)
		}
		st.OrderID = o.ID
		o.Statuses = append(o.Statuses, st)
	}
	return statusRows.Err()
}

func insertStatus(ctx context.Context, tx *sql.Tx, st *models.OrderStatus) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO order_statuses (order_id, state, date_time) VALUES (?, ?, ?)`,
		st.OrderID, st.State.String(), st.DateTime.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert status for order %d: %w", st.OrderID, err)
	}
	st.ID, err = res.LastInsertId()
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
