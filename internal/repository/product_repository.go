// Package repository contains data access logic separated from HTTP handlers.
// This file holds the product queries backing the admin inventory pages.
package repository

import (
	"context"      // context carries request deadlines into the driver
	"database/sql" // sql provides generic database operations
	"errors"       // errors compares against sql.ErrNoRows

	"github.com/iliyamo/kasirku/internal/model"
)

// ProductRepo encapsulates all database queries related to products.
type ProductRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewProductRepo constructs a ProductRepo with the provided DB handle.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = "id, name, price, stock, category, unit, cost, sku, min_stock, is_active, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (*model.Product, error) {
	var (
		p        model.Product
		category sql.NullString
		sku      sql.NullString
		unit     string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &category, &unit, &p.Cost, &sku, &p.MinStock, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Category = category.String
	p.SKU = sku.String
	p.Unit = model.ParseUnit(unit)
	return &p, nil
}

// nullable stores empty strings as NULL so optional columns stay unset.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListActive returns active products, newest first.
func (r *ProductRepo) ListActive(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_active = 1 ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a product by id.  ErrProductNotFound is returned when no row matches.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts the editable product fields and populates p.ID plus the
// column defaults (cost, min_stock, is_active, created_at) from a follow-up SELECT.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const q = "INSERT INTO products (name, price, stock, category, unit) VALUES (?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Price, p.Stock, nullable(p.Category), string(p.Unit))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Update overwrites the editable fields of an existing product.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	const q = `UPDATE products
	           SET name = ?, price = ?, stock = ?, category = ?, unit = ?
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, p.Name, p.Price, p.Stock, nullable(p.Category), string(p.Unit), p.ID); err != nil {
		return err
	}
	// RowsAffected is 0 for an unchanged row in MySQL, so existence is checked by re-reading.
	stored, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Delete permanently removes a product.  There is no check against sales
// history; soft delete via is_active is the intended replacement.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Stats aggregates the active inventory for dashboard widgets.
func (r *ProductRepo) Stats(ctx context.Context) (model.ProductStats, error) {
	const q = `SELECT COUNT(*),
	                  COALESCE(SUM(CASE WHEN stock <= min_stock THEN 1 ELSE 0 END), 0),
	                  COALESCE(SUM(price * stock), 0)
	           FROM products WHERE is_active = 1`
	var s model.ProductStats
	err := r.db.QueryRowContext(ctx, q).Scan(&s.ActiveProducts, &s.LowStock, &s.StockValue)
	return s, err
}
