package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"
)

const productColumns = `id, restaurant_id, name, description, price_cents, allergens, tags,
	is_active, created_at, updated_at`

// CreateProduct inserts p and sets p.ID.
func (db *DB) CreateProduct(ctx context.Context, p *models.Product) error {
	allergens, tags, err := encodeProductLists(p.Allergens, p.Tags)
	if err != nil {
		return err
	}
	now := db.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	res, err := db.ExecContext(ctx, `
		INSERT INTO products (restaurant_id, name, description, price_cents, allergens, tags, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RestaurantID, p.Name, p.Description, p.PriceCents, allergens, tags, p.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdateProduct overwrites the editable fields of p. Order snapshots are separate rows
// and stay untouched.
func (db *DB) UpdateProduct(ctx context.Context, p *models.Product) error {
	allergens, tags, err := encodeProductLists(p.Allergens, p.Tags)
	if err != nil {
		return err
	}
	p.UpdatedAt = db.now().UTC()

	res, err := db.ExecContext(ctx, `
		UPDATE products SET name = ?, description = ?, price_cents = ?, allergens = ?, tags = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.PriceCents, allergens, tags, p.IsActive, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("product", p.ID)
	}
	return nil
}

// GetProduct loads one product.
func (db *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

// ListProducts returns every product of a restaurant.
func (db *DB) ListProducts(ctx context.Context, restaurantID int64) ([]models.Product, error) {
	return db.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE restaurant_id = ? ORDER BY id`, restaurantID)
}

// ActiveProducts returns the products that can currently be ordered.
func (db *DB) ActiveProducts(ctx context.Context, restaurantID int64) ([]models.Product, error) {
	return db.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE restaurant_id = ? AND is_active = 1 ORDER BY id`, restaurantID)
}

func (db *DB) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProduct(s rowScanner) (*models.Product, error) {
	var (
		p               models.Product
		allergens, tags string
	)
	if err := s.Scan(
		&p.ID, &p.RestaurantID, &p.Name, &p.Description, &p.PriceCents,
		&allergens, &tags, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if p.Allergens, err = decodeList(allergens); err != nil {
		return nil, fmt.Errorf("decode allergens: %w", err)
	}
	if p.Tags, err = decodeList(tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &p, nil
}

func encodeProductLists(allergens, tags []string) (string, string, error) {
	a, err := encodeList(allergens)
	if err != nil {
		return "", "", fmt.Errorf("encode allergens: %w", err)
	}
	t, err := encodeList(tags)
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	return a, t, nil
}
