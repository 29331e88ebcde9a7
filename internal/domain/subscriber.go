package domain

import "time"

// Subscriber is a newsletter signup. Email is the natural key; repeat
// signups collapse onto the existing row.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
