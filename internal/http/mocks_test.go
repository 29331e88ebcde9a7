package http

import (
	"context"
	"sync"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/cache"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/payment"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/repository"
)

// The handlers sit on real services over stub repositories, so the tests
// cover the whole error mapping path and not a re-mocked service layer.

type stubProductRepo struct {
	products map[string]*domain.Product
	err      error
}

func (s *stubProductRepo) CreateProduct(_ context.Context, p *domain.Product) error {
	if s.err != nil {
		return s.err
	}
	if s.products == nil {
		s.products = map[string]*domain.Product{}
	}
	s.products[p.ID] = p
	return nil
}

func (s *stubProductRepo) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (s *stubProductRepo) ListProducts(_ context.Context, _ domain.ProductFilter) (*domain.ProductPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	page := &domain.ProductPage{Products: []*domain.Product{}}
	for _, p := range s.products {
		page.Products = append(page.Products, p)
	}
	page.Pagination.Total = len(page.Products)
	return page, nil
}

func (s *stubProductRepo) UpdateProduct(_ context.Context, p *domain.Product) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	s.products[p.ID] = p
	return nil
}

func (s *stubProductRepo) DeleteProduct(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

type stubCartRepo struct {
	items map[string]*domain.CartItem
	err   error
}

func (s *stubCartRepo) ListCartItems(_ context.Context, userID string) ([]*domain.CartItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	var items []*domain.CartItem
	for _, item := range s.items {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *stubCartRepo) AddCartItem(_ context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.items == nil {
		s.items = map[string]*domain.CartItem{}
	}
	for _, item := range s.items {
		if item.UserID == userID && item.ProductID == productID {
			item.Quantity += quantity
			return item, nil
		}
	}
	item := &domain.CartItem{ID: "item-" + productID, UserID: userID, ProductID: productID, Quantity: quantity}
	s.items[item.ID] = item
	return item, nil
}

func (s *stubCartRepo) SetCartItemQuantity(_ context.Context, userID, itemID string, quantity int) (*domain.CartItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return nil, repository.ErrCartItemNotFound
	}
	if quantity == 0 {
		delete(s.items, itemID)
		return nil, nil
	}
	item.Quantity = quantity
	return item, nil
}

func (s *stubCartRepo) RemoveCartItem(_ context.Context, userID, itemID string) error {
	if s.err != nil {
		return s.err
	}
	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return repository.ErrCartItemNotFound
	}
	delete(s.items, itemID)
	return nil
}

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	err    error
}

func (s *stubOrderRepo) PlaceOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.orders == nil {
		s.orders = map[string]*domain.Order{}
	}
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepo) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	order, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) ListOrdersByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var orders []*domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			copied := *o
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (s *stubOrderRepo) UpdateOrderStatus(_ context.Context, orderID string, update repository.StatusUpdate) (*domain.Order, *repository.StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, nil, s.err
	}
	order, ok := s.orders[orderID]
	if !ok {
		return nil, nil, repository.ErrOrderNotFound
	}

	change := &repository.StatusChange{}
	if update.Status != nil && *update.Status != order.Status {
		if !order.Status.CanTransitionTo(*update.Status) {
			return nil, nil, &repository.ErrIllegalTransition{From: string(order.Status), To: string(*update.Status)}
		}
		order.Status = *update.Status
		change.StatusChanged = true
	}
	if update.PaymentStatus != nil && *update.PaymentStatus != order.PaymentStatus {
		if !order.PaymentStatus.CanTransitionTo(*update.PaymentStatus) {
			return nil, nil, &repository.ErrIllegalTransition{From: string(order.PaymentStatus), To: string(*update.PaymentStatus)}
		}
		order.PaymentStatus = *update.PaymentStatus
		change.PaymentStatusChanged = true
	}
	if update.PromotePending && update.Status == nil &&
		order.PaymentStatus == domain.PaymentStatusCompleted &&
		order.Status == domain.OrderStatusPending {
		order.Status = domain.OrderStatusProcessing
		change.StatusChanged = true
	}
	if update.PaymentID != nil {
		order.PaymentID = *update.PaymentID
	}
	copied := *order
	return &copied, change, nil
}

type noopNotifier struct{}

func (noopNotifier) OrderPlaced(context.Context, *domain.Order, string) error { return nil }
func (noopNotifier) PaymentCompleted(context.Context, *domain.Order) error    { return nil }

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*domain.Product, error) {
	return nil, cache.ErrCacheMiss
}
func (noopCache) Set(context.Context, *domain.Product) error { return nil }
func (noopCache) Delete(context.Context, string) error       { return nil }

type stubMpesaGateway struct {
	result *payment.STKPushResult
	err    error
}

func (s *stubMpesaGateway) InitiateSTKPush(context.Context, string, string, int64) (*payment.STKPushResult, error) {
	return s.result, s.err
}

type stubStripeGateway struct {
	result *payment.IntentResult
	err    error
}

func (s *stubStripeGateway) CreateIntent(context.Context, string, int64, string) (*payment.IntentResult, error) {
	return s.result, s.err
}
