package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/google/uuid"
)

func (r *Repository) ListCartItems(ctx context.Context, userID string) ([]*domain.CartItem, error) {
	query := `SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at, ` + prefixedProductColumns("p") + `
	          FROM cart_items c
	          JOIN products p ON p.id = c.product_id
	          WHERE c.user_id = $1
	          ORDER BY c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.CartItem, 0)
	for rows.Next() {
		item, scanErr := scanCartItemWithProduct(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan cart item: %w", scanErr)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// AddCartItem upserts on (user_id, product_id): a second add of the same
// product increments the existing row.
func (r *Repository) AddCartItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	query := `INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, NOW(), NOW())
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
	          RETURNING id`

	var itemID string
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), userID, productID, quantity).Scan(&itemID)
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	return r.getCartItem(ctx, userID, itemID)
}

func (r *Repository) SetCartItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.CartItem, error) {
	if quantity == 0 {
		if err := r.RemoveCartItem(ctx, userID, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3, updated_at = NOW() WHERE id = $2 AND user_id = $1`,
		userID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart item quantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update cart item rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrCartItemNotFound
	}
	return r.getCartItem(ctx, userID, itemID)
}

func (r *Repository) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $2 AND user_id = $1`, userID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cart item rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *Repository) getCartItem(ctx context.Context, userID, itemID string) (*domain.CartItem, error) {
	query := `SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at, ` + prefixedProductColumns("p") + `
	          FROM cart_items c
	          JOIN products p ON p.id = c.product_id
	          WHERE c.id = $2 AND c.user_id = $1`

	item, err := scanCartItemWithProduct(r.db.QueryRowContext(ctx, query, userID, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart item: %w", err)
	}
	return item, nil
}

func scanCartItemWithProduct(row rowScanner) (*domain.CartItem, error) {
	var item domain.CartItem
	var p domain.Product
	var imagesJSON []byte
	err := row.Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
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
	item.Product = &p
	return &item, nil
}

func prefixedProductColumns(alias string) string {
	return alias + `.id, ` + alias + `.name, ` + alias + `.description, ` + alias + `.price, ` +
		alias + `.price_usd, ` + alias + `.sku, ` + alias + `.category, ` + alias + `.images, ` +
		alias + `.stock, ` + alias + `.published, ` + alias + `.featured, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
