package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/cache"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/payment"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/repository"
)

// MockProductRepo implements repository.ProductRepository for testing
type MockProductRepo struct {
	Products map[string]*domain.Product
	Err      error
}

func (m *MockProductRepo) CreateProduct(_ context.Context, p *domain.Product) error {
	if m.Err != nil {
		return m.Err
	}
	if m.Products == nil {
		m.Products = map[string]*domain.Product{}
	}
	m.Products[p.ID] = p
	return nil
}

func (m *MockProductRepo) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *MockProductRepo) ListProducts(_ context.Context, _ domain.ProductFilter) (*domain.ProductPage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	page := &domain.ProductPage{}
	for _, p := range m.Products {
		page.Products = append(page.Products, p)
	}
	page.Pagination.Total = len(page.Products)
	return page, nil
}

func (m *MockProductRepo) UpdateProduct(_ context.Context, p *domain.Product) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.Products[p.ID] = p
	return nil
}

func (m *MockProductRepo) DeleteProduct(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.Products, id)
	return nil
}

// MockCartRepo implements repository.CartRepository for testing
type MockCartRepo struct {
	Items map[string]*domain.CartItem // keyed by item ID
	Err   error
}

func (m *MockCartRepo) ListCartItems(_ context.Context, userID string) ([]*domain.CartItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var items []*domain.CartItem
	for _, item := range m.Items {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *MockCartRepo) AddCartItem(_ context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Items == nil {
		m.Items = map[string]*domain.CartItem{}
	}
	for _, item := range m.Items {
		if item.UserID == userID && item.ProductID == productID {
			item.Quantity += quantity
			return item, nil
		}
	}
	item := &domain.CartItem{
		ID:        "item-" + productID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	m.Items[item.ID] = item
	return item, nil
}

func (m *MockCartRepo) SetCartItemQuantity(_ context.Context, userID, itemID string, quantity int) (*domain.CartItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	item, ok := m.Items[itemID]
	if !ok || item.UserID != userID {
		return nil, repository.ErrCartItemNotFound
	}
	if quantity == 0 {
		delete(m.Items, itemID)
		return nil, nil
	}
	item.Quantity = quantity
	return item, nil
}

func (m *MockCartRepo) RemoveCartItem(_ context.Context, userID, itemID string) error {
	if m.Err != nil {
		return m.Err
	}
	item, ok := m.Items[itemID]
	if !ok || item.UserID != userID {
		return repository.ErrCartItemNotFound
	}
	delete(m.Items, itemID)
	return nil
}

// MockOrderRepo implements repository.OrderRepository with the same guarded
// transition behavior as the real one, so idempotency tests exercise the
// actual StatusChange semantics.
type MockOrderRepo struct {
	mu            sync.Mutex
	Orders        map[string]*domain.Order
	PlaceErr      error
	PlaceErrOnce  error // returned for the first PlaceOrder call only
	PlacedNumbers []string
}

func (m *MockOrderRepo) PlaceOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlacedNumbers = append(m.PlacedNumbers, order.OrderNumber)
	if m.PlaceErrOnce != nil {
		err := m.PlaceErrOnce
		m.PlaceErrOnce = nil
		return err
	}
	if m.PlaceErr != nil {
		return m.PlaceErr
	}
	if m.Orders == nil {
		m.Orders = map[string]*domain.Order{}
	}
	m.Orders[order.ID] = order
	return nil
}

func (m *MockOrderRepo) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepo) ListOrdersByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*domain.Order
	for _, o := range m.Orders {
		if o.UserID == userID {
			copied := *o
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (m *MockOrderRepo) UpdateOrderStatus(_ context.Context, orderID string, update repository.StatusUpdate) (*domain.Order, *repository.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.Orders[orderID]
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

// MockNotifier counts sends; the services fire emails from goroutines so the
// counters are mutex-guarded and tests poll with assert.Eventually.
type MockNotifier struct {
	mu                sync.Mutex
	orderPlaced       int
	paymentCompleted  int
	Err               error
	LastCustomerEmail string
}

func (m *MockNotifier) OrderPlaced(_ context.Context, _ *domain.Order, customerEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderPlaced++
	m.LastCustomerEmail = customerEmail
	return m.Err
}

func (m *MockNotifier) PaymentCompleted(_ context.Context, _ *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentCompleted++
	return m.Err
}

func (m *MockNotifier) OrderPlacedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderPlaced
}

func (m *MockNotifier) PaymentCompletedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paymentCompleted
}

// MockSubscriberRepo implements repository.SubscriberRepository in memory,
// keyed on email like the unique index.
type MockSubscriberRepo struct {
	Subscribers []*domain.Subscriber
	Err         error
}

func (m *MockSubscriberRepo) UpsertSubscriber(_ context.Context, email string) (*domain.Subscriber, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, s := range m.Subscribers {
		if s.Email == email {
			copied := *s
			return &copied, nil
		}
	}
	s := &domain.Subscriber{ID: uuid.New().String(), Email: email, CreatedAt: time.Now()}
	m.Subscribers = append(m.Subscribers, s)
	copied := *s
	return &copied, nil
}

func (m *MockSubscriberRepo) ListSubscribers(_ context.Context) ([]*domain.Subscriber, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Subscribers, nil
}

// MockContactNotifier records the last contact form forwarded to it.
type MockContactNotifier struct {
	Err         error
	Calls       int
	LastSubject string
	LastEmail   string
}

func (m *MockContactNotifier) ContactReceived(_ context.Context, _, email, subject, _ string) error {
	m.Calls++
	m.LastEmail = email
	m.LastSubject = subject
	return m.Err
}

// MockMpesaGateway implements MpesaGateway for testing
type MockMpesaGateway struct {
	Result *payment.STKPushResult
	Err    error
}

func (m *MockMpesaGateway) InitiateSTKPush(_ context.Context, _, _ string, _ int64) (*payment.STKPushResult, error) {
	return m.Result, m.Err
}

// MockStripeGateway implements StripeGateway for testing
type MockStripeGateway struct {
	Result *payment.IntentResult
	Err    error
}

func (m *MockStripeGateway) CreateIntent(_ context.Context, _ string, _ int64, _ string) (*payment.IntentResult, error) {
	return m.Result, m.Err
}

// MockProductCache implements cache.ProductCache for testing
type MockProductCache struct {
	mu       sync.Mutex
	Items    map[string]*domain.Product
	GetErr   error
	SetCalls int
	DelCalls int
}

func (m *MockProductCache) Get(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.Items[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return p, nil
}

func (m *MockProductCache) Set(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Items == nil {
		m.Items = map[string]*domain.Product{}
	}
	m.Items[p.ID] = p
	m.SetCalls++
	return nil
}

func (m *MockProductCache) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Items, id)
	m.DelCalls++
	return nil
}
