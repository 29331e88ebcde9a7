package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const productColumns = `id, name, description, price, price_usd, sku, category, images, stock, published, featured, created_at, updated_at`

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal product images: %w", err)
	}

	query := `INSERT INTO products (id, name, description, price, price_usd, sku, category, images, stock, published, featured, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.PriceUSD, p.SKU, p.Category,
		imagesJSON, p.Stock, p.Published, p.Featured)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSKU
		}
		return fmt.Errorf("insert product: %w", insertErr)
	}
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	where := "TRUE"
	args := []interface{}{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.FeaturedOnly {
		where += " AND featured"
	}
	if filter.PublishedOnly {
		where += " AND published"
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 12
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan product row: %w", scanErr)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	pages := (total + limit - 1) / limit
	return &domain.ProductPage{
		Products: products,
		Pagination: domain.Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: pages,
		},
	}, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal product images: %w", err)
	}

	query := `UPDATE products
	          SET name = $2, description = $3, price = $4, price_usd = $5, sku = $6,
	              category = $7, images = $8, stock = $9, published = $10, featured = $11,
	              updated_at = NOW()
	          WHERE id = $1`

	result, updateErr := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.PriceUSD, p.SKU, p.Category,
		imagesJSON, p.Stock, p.Published, p.Featured)
	if updateErr != nil {
		var pqErr *pq.Error
		if errors.As(updateErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSKU
		}
		return fmt.Errorf("update product: %w", updateErr)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		// 23503: order_items keeps a foreign key to products
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrProductReferenced
		}
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var imagesJSON []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.PriceUSD, &p.SKU,
		&p.Category, &imagesJSON, &p.Stock, &p.Published, &p.Featured,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalImages(imagesJSON, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func unmarshalImages(imagesJSON []byte, p *domain.Product) error {
	if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
		return fmt.Errorf("unmarshal product images: %w", err)
	}
	return nil
}
