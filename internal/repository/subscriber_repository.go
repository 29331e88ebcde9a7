package repository

import (
	"context"
	"fmt"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/google/uuid"
)

// UpsertSubscriber inserts a newsletter signup, or returns the existing row
// when the email is already subscribed.
func (r *Repository) UpsertSubscriber(ctx context.Context, email string) (*domain.Subscriber, error) {
	query := `INSERT INTO subscribers (id, email, created_at)
	          VALUES ($1, $2, NOW())
	          ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
	          RETURNING id, email, created_at`

	var s domain.Subscriber
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), email).
		Scan(&s.ID, &s.Email, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert subscriber: %w", err)
	}
	return &s, nil
}

func (r *Repository) ListSubscribers(ctx context.Context) ([]*domain.Subscriber, error) {
	query := `SELECT id, email, created_at FROM subscribers ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := make([]*domain.Subscriber, 0)
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber row: %w", err)
		}
		subscribers = append(subscribers, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return subscribers, nil
}
