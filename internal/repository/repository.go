package repository

import (
	"context"
	"errors"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateSKU         = errors.New("product with this sku already exists")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrProductReferenced    = errors.New("product is referenced by existing orders")
)

// ErrInsufficientStock reports which product could not cover the requested
// quantity, so handlers can name it in the response.
type ErrInsufficientStock struct {
	ProductID   string
	ProductName string
}

func (e *ErrInsufficientStock) Error() string {
	return "insufficient stock for " + e.ProductName
}

// ErrIllegalTransition is returned when a status update would violate the
// order lifecycle.
type ErrIllegalTransition struct {
	From string
	To   string
}

func (e *ErrIllegalTransition) Error() string {
	return "illegal transition from " + e.From + " to " + e.To
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type CartRepository interface {
	ListCartItems(ctx context.Context, userID string) ([]*domain.CartItem, error)
	AddCartItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error)
	SetCartItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, itemID string) error
}

type SubscriberRepository interface {
	// UpsertSubscriber is idempotent on email: a repeat signup returns the
	// existing row instead of failing.
	UpsertSubscriber(ctx context.Context, email string) (*domain.Subscriber, error)
	ListSubscribers(ctx context.Context) ([]*domain.Subscriber, error)
}

// StatusUpdate carries the optional fields of an order status update. Nil
// means "leave unchanged".
type StatusUpdate struct {
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
	PaymentID     *string
	// PromotePending moves a still-PENDING order to PROCESSING when this
	// update completes the payment. The decision is taken under the row
	// lock, so a callback racing an admin transition stays a no-op instead
	// of a conflict. Ignored when Status is set explicitly.
	PromotePending bool
}

type OrderRepository interface {
	// PlaceOrder runs the whole placement as one transaction: conditional
	// stock decrements, order + item inserts, owner cart clear, and the
	// outbox event. Any failure rolls everything back.
	PlaceOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	// UpdateOrderStatus applies a guarded status/payment-status transition
	// inside a transaction and reports whether each field actually changed.
	UpdateOrderStatus(ctx context.Context, orderID string, update StatusUpdate) (*domain.Order, *StatusChange, error)
}

// StatusChange reports which transitions UpdateOrderStatus actually applied.
// A replayed callback that sets the same values yields all-false.
type StatusChange struct {
	StatusChanged        bool
	PaymentStatusChanged bool
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error
}
