package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PlaceOrder executes the whole placement as a single transaction:
//
//  1. conditional stock decrement per line (stock >= quantity guard),
//  2. order + order_items insert,
//  3. owner cart clear,
//  4. order.created outbox event.
//
// The conditional UPDATE makes concurrent placements against the same
// product serialize on the row lock; the loser of the race sees the
// decremented stock and fails the guard, rolling its whole order back.
// Stock can never go negative and no partial decrement survives.
func (r *Repository) PlaceOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin placement transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range order.Items {
		item := &order.Items[i]
		result, decErr := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`,
			item.ProductID, item.Quantity)
		if decErr != nil {
			return fmt.Errorf("decrement stock for product %s: %w", item.ProductID, decErr)
		}
		affected, raErr := result.RowsAffected()
		if raErr != nil {
			return fmt.Errorf("decrement stock rows affected: %w", raErr)
		}
		if affected == 0 {
			// Either the product vanished or the stock guard failed;
			// distinguish so the caller can answer 404 vs 400.
			var name string
			nameErr := tx.QueryRowContext(ctx, `SELECT name FROM products WHERE id = $1`, item.ProductID).Scan(&name)
			if errors.Is(nameErr, sql.ErrNoRows) {
				return ErrProductNotFound
			}
			if nameErr != nil {
				return fmt.Errorf("look up product %s: %w", item.ProductID, nameErr)
			}
			return &ErrInsufficientStock{ProductID: item.ProductID, ProductName: name}
		}
	}

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, insertErr := tx.ExecContext(ctx,
		`INSERT INTO orders (id, order_number, user_id, status, payment_status, payment_method, payment_id,
		                     currency, subtotal, shipping_cost, tax, total, shipping_address, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`,
		order.ID, order.OrderNumber, order.UserID, order.Status, order.PaymentStatus,
		order.PaymentMethod, order.PaymentID, order.Currency, order.Subtotal,
		order.ShippingCost, order.Tax, order.Total, addressJSON, order.Notes, now)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = order.ID
		_, itemErr := tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price_at_time, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.OrderID, item.ProductID, item.ProductName,
			item.Quantity, item.PriceAtTime, item.Subtotal)
		if itemErr != nil {
			return fmt.Errorf("insert order item: %w", itemErr)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := insertOutboxEvent(ctx, tx, order.ID, "order.created", orderEventPayload(order)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit placement transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT id, order_number, user_id, status, payment_status, payment_method, payment_id,
	                 currency, subtotal, shipping_cost, tax, total, shipping_address, notes, created_at, updated_at
	          FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := r.loadOrderItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT id, order_number, user_id, status, payment_status, payment_method, payment_id,
	                 currency, subtotal, shipping_cost, tax, total, shipping_address, notes, created_at, updated_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan order row: %w", scanErr)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		if err := r.loadOrderItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateOrderStatus applies a guarded transition. The current row is locked
// for the duration of the check so that concurrent callbacks serialize; a
// same-state update commits as a no-op and is reported as unchanged.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID string, update StatusUpdate) (*domain.Order, *StatusChange, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin status transaction: %w", err)
	}
	defer tx.Rollback()

	var current domain.Order
	err = tx.QueryRowContext(ctx,
		`SELECT status, payment_status, payment_id FROM orders WHERE id = $1 FOR UPDATE`,
		orderID).Scan(&current.Status, &current.PaymentStatus, &current.PaymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("lock order row: %w", err)
	}

	change := &StatusChange{}

	newStatus := current.Status
	if update.Status != nil && *update.Status != current.Status {
		if !current.Status.CanTransitionTo(*update.Status) {
			return nil, nil, &ErrIllegalTransition{From: string(current.Status), To: string(*update.Status)}
		}
		// Refunds require the payment to have actually completed.
		if *update.Status == domain.OrderStatusRefunded {
			ps := current.PaymentStatus
			if update.PaymentStatus != nil {
				ps = *update.PaymentStatus
			}
			if ps != domain.PaymentStatusCompleted && ps != domain.PaymentStatusRefunded {
				return nil, nil, &ErrIllegalTransition{From: string(current.Status), To: string(*update.Status)}
			}
		}
		newStatus = *update.Status
		change.StatusChanged = true
	}

	newPaymentStatus := current.PaymentStatus
	if update.PaymentStatus != nil && *update.PaymentStatus != current.PaymentStatus {
		if !current.PaymentStatus.CanTransitionTo(*update.PaymentStatus) {
			return nil, nil, &ErrIllegalTransition{From: string(current.PaymentStatus), To: string(*update.PaymentStatus)}
		}
		newPaymentStatus = *update.PaymentStatus
		change.PaymentStatusChanged = true
	}

	if update.PromotePending && update.Status == nil &&
		newPaymentStatus == domain.PaymentStatusCompleted &&
		current.Status == domain.OrderStatusPending {
		newStatus = domain.OrderStatusProcessing
		change.StatusChanged = true
	}

	newPaymentID := current.PaymentID
	if update.PaymentID != nil {
		newPaymentID = *update.PaymentID
	}

	_, updateErr := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, payment_id = $4, updated_at = NOW() WHERE id = $1`,
		orderID, newStatus, newPaymentStatus, newPaymentID)
	if updateErr != nil {
		return nil, nil, fmt.Errorf("update order status: %w", updateErr)
	}

	if change.StatusChanged {
		payload := map[string]interface{}{
			"order_id":   orderID,
			"from":       current.Status,
			"to":         newStatus,
			"changed_at": time.Now(),
		}
		if err := insertOutboxEvent(ctx, tx, orderID, "order.status_changed", payload); err != nil {
			return nil, nil, err
		}
	}
	if change.PaymentStatusChanged {
		payload := map[string]interface{}{
			"order_id":   orderID,
			"from":       current.PaymentStatus,
			"to":         newPaymentStatus,
			"payment_id": newPaymentID,
			"changed_at": time.Now(),
		}
		if err := insertOutboxEvent(ctx, tx, orderID, "order.payment_status_changed", payload); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit status transaction: %w", err)
	}

	order, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, change, nil
}

func (r *Repository) loadOrderItems(ctx context.Context, order *domain.Order) error {
	query := `SELECT i.id, i.order_id, i.product_id, i.product_name, i.quantity, i.price_at_time, i.subtotal, ` +
		prefixedProductColumns("p") + `
		 FROM order_items i
		 JOIN products p ON p.id = i.product_id
		 WHERE i.order_id = $1`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	order.Items = order.Items[:0]
	for rows.Next() {
		var item domain.OrderItem
		var p domain.Product
		var imagesJSON []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.PriceAtTime, &item.Subtotal,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.PriceUSD, &p.SKU,
			&p.Category, &imagesJSON, &p.Stock, &p.Published, &p.Featured,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if err := unmarshalImages(imagesJSON, &p); err != nil {
			return err
		}
		item.Product = &p
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var addressJSON []byte
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &order.Status, &order.PaymentStatus,
		&order.PaymentMethod, &order.PaymentID, &order.Currency, &order.Subtotal,
		&order.ShippingCost, &order.Tax, &order.Total, &addressJSON, &order.Notes,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	return &order, nil
}

func orderEventPayload(order *domain.Order) map[string]interface{} {
	items := make([]map[string]interface{}, len(order.Items))
	for i, item := range order.Items {
		items[i] = map[string]interface{}{
			"product_id":    item.ProductID,
			"product_name":  item.ProductName,
			"quantity":      item.Quantity,
			"price_at_time": item.PriceAtTime,
			"subtotal":      item.Subtotal,
		}
	}
	return map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"items":        items,
		"subtotal":     order.Subtotal,
		"total":        order.Total,
		"currency":     order.Currency,
		"placed_at":    order.CreatedAt,
	}
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, aggregateID, eventType string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		aggregateID, eventType, payloadJSON)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
