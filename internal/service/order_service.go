package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/repository"
	"github.com/google/uuid"
)

// orderNumberAttempts bounds the retry loop on order-number collisions. The
// number space is small (6 timestamp digits + 3 random base36 chars), so a
// collision is possible under burst load; the unique index catches it and we
// regenerate.
const orderNumberAttempts = 3

const defaultCountry = "Kenya"

type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	Items         []LineRequest `json:"items"`
	FullName      string        `json:"fullName"`
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Street        string        `json:"street"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	PostalCode    string        `json:"postalCode"`
	Country       string        `json:"country"`
	Phone         string        `json:"phone"`
	Email         string        `json:"email"`
	PaymentMethod string        `json:"paymentMethod"`
	Currency      string        `json:"currency"`
	ShippingCost  int64         `json:"shippingCost"`
	// Tax is what the checkout page computed. It is advisory only: the
	// server recomputes tax from the subtotal and the configured rate.
	Tax   int64  `json:"tax"`
	Notes string `json:"notes"`
}

// OrderNotifier sends the transactional emails around an order. Failures are
// the notifier's to log; order placement never waits on or fails with them.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *domain.Order, customerEmail string) error
	PaymentCompleted(ctx context.Context, order *domain.Order) error
}

type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	notifier OrderNotifier
	// taxRateBP is the tax rate in basis points (1600 = 16%).
	taxRateBP int64
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, notifier OrderNotifier, taxRateBP int64) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		notifier:  notifier,
		taxRateBP: taxRateBP,
	}
}

// PlaceOrder validates and prices the request, then hands the whole write to
// the repository as one transaction. All validation happens before any write;
// the stock check inside the transaction is the authoritative one.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req *PlaceOrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	address, paymentMethod, currency, err := validatePlacement(req)
	if err != nil {
		return nil, err
	}

	var subtotal int64
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		product, getErr := s.products.GetProduct(ctx, line.ProductID)
		if errors.Is(getErr, repository.ErrProductNotFound) {
			return nil, &ProductMissingError{ProductID: line.ProductID}
		}
		if getErr != nil {
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, getErr)
		}
		if product.Stock < line.Quantity {
			return nil, &repository.ErrInsufficientStock{ProductID: product.ID, ProductName: product.Name}
		}

		lineSubtotal := product.Price * int64(line.Quantity)
		subtotal += lineSubtotal
		items = append(items, domain.OrderItem{
			ID:          uuid.New().String(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			PriceAtTime: product.Price,
			Subtotal:    lineSubtotal,
			Product:     product,
		})
	}

	shippingCost := req.ShippingCost
	if shippingCost < 0 {
		shippingCost = 0
	}
	tax := subtotal * s.taxRateBP / 10000

	order := &domain.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentMethod:   paymentMethod,
		Currency:        currency,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		Tax:             tax,
		Total:           subtotal + shippingCost + tax,
		ShippingAddress: *address,
		Notes:           req.Notes,
		Items:           items,
	}

	for attempt := 0; ; attempt++ {
		order.OrderNumber = generateOrderNumber()
		placeErr := s.orders.PlaceOrder(ctx, order)
		if placeErr == nil {
			break
		}
		if errors.Is(placeErr, repository.ErrDuplicateOrderNumber) && attempt < orderNumberAttempts-1 {
			continue
		}
		return nil, placeErr
	}

	// Emails never block the response and never fail the order.
	customerEmail := req.Email
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.OrderPlaced(notifyCtx, order, customerEmail); err != nil {
			log.Printf("order %s: confirmation email failed: %v", order.ID, err)
		}
	}()

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Foreign orders look exactly like missing ones.
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListOrdersByUser(ctx, userID)
}

type UpdateOrderRequest struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	PaymentID     string `json:"paymentId"`
}

// UpdateOrder applies an admin-driven status change through the guarded
// transition table.
func (s *OrderService) UpdateOrder(ctx context.Context, req *UpdateOrderRequest) (*domain.Order, error) {
	verr := &ValidationError{}
	if req.OrderID == "" {
		verr.add("orderId", "Order ID required")
	}
	if req.Status != "" && !domain.ValidOrderStatus(req.Status) {
		verr.add("status", "Invalid order status")
	}
	if req.PaymentStatus != "" && !domain.ValidPaymentStatus(req.PaymentStatus) {
		verr.add("paymentStatus", "Invalid payment status")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	update := repository.StatusUpdate{}
	if req.Status != "" {
		status := domain.OrderStatus(req.Status)
		update.Status = &status
	}
	if req.PaymentStatus != "" {
		paymentStatus := domain.PaymentStatus(req.PaymentStatus)
		update.PaymentStatus = &paymentStatus
	}
	if req.PaymentID != "" {
		update.PaymentID = &req.PaymentID
	}

	order, _, err := s.orders.UpdateOrderStatus(ctx, req.OrderID, update)
	return order, err
}

func validatePlacement(req *PlaceOrderRequest) (*domain.ShippingAddress, domain.PaymentMethod, string, error) {
	verr := &ValidationError{}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = strings.TrimSpace(strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName))
	}
	if fullName == "" {
		verr.add("fullName", "Full name is required")
	} else if len(fullName) > 100 {
		verr.add("fullName", "Full name must be at most 100 characters")
	}
	if req.Street == "" {
		verr.add("street", "Street address is required")
	} else if len(req.Street) > 200 {
		verr.add("street", "Street address must be at most 200 characters")
	}
	if req.City == "" {
		verr.add("city", "City is required")
	}
	if len(req.State) > 100 {
		verr.add("state", "State must be at most 100 characters")
	}
	if req.PostalCode == "" {
		verr.add("postalCode", "Postal code is required")
	} else if len(req.PostalCode) > 20 {
		verr.add("postalCode", "Postal code must be at most 20 characters")
	}
	if req.Phone == "" {
		verr.add("phone", "Phone number is required")
	} else if len(req.Phone) > 20 {
		verr.add("phone", "Phone number must be at most 20 characters")
	}
	// Email is optional; the notifier falls back to a placeholder recipient.
	if req.Email != "" && (len(req.Email) > 255 || !strings.Contains(req.Email, "@")) {
		verr.add("email", "Invalid email address")
	}
	if len(req.Notes) > 500 {
		verr.add("notes", "Notes must be at most 500 characters")
	}

	var paymentMethod domain.PaymentMethod
	switch req.PaymentMethod {
	case string(domain.PaymentMethodStripe):
		paymentMethod = domain.PaymentMethodStripe
	case string(domain.PaymentMethodMpesa):
		paymentMethod = domain.PaymentMethodMpesa
	default:
		verr.add("paymentMethod", "Invalid payment method")
	}

	currency := req.Currency
	switch currency {
	case "":
		currency = "KES"
	case "KES", "USD":
	default:
		verr.add("currency", "Invalid currency")
	}

	if len(verr.Fields) > 0 {
		return nil, "", "", verr
	}

	country := req.Country
	if country == "" {
		country = defaultCountry
	}

	return &domain.ShippingAddress{
		FullName:   fullName,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    country,
		Phone:      req.Phone,
	}, paymentMethod, currency, nil
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func generateOrderNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	ts = ts[len(ts)-6:]

	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))]
	}
	return fmt.Sprintf("ORD-%s-%s", ts, suffix)
}
