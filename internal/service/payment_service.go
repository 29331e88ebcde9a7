package service

import (
	"context"
	"log"
	"time"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/payment"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/repository"
)

type MpesaGateway interface {
	InitiateSTKPush(ctx context.Context, orderID, phone string, amount int64) (*payment.STKPushResult, error)
}

type StripeGateway interface {
	CreateIntent(ctx context.Context, orderID string, amount int64, currency string) (*payment.IntentResult, error)
}

type PaymentService struct {
	orders   repository.OrderRepository
	mpesa    MpesaGateway
	stripe   StripeGateway
	notifier OrderNotifier
}

func NewPaymentService(orders repository.OrderRepository, mpesa MpesaGateway, stripe StripeGateway, notifier OrderNotifier) *PaymentService {
	return &PaymentService{
		orders:   orders,
		mpesa:    mpesa,
		stripe:   stripe,
		notifier: notifier,
	}
}

func (s *PaymentService) InitiateMpesa(ctx context.Context, orderID, phone string, amount int64) (*payment.STKPushResult, error) {
	verr := &ValidationError{}
	if orderID == "" {
		verr.add("orderId", "Order ID required")
	}
	if phone == "" {
		verr.add("phone", "Phone number required")
	}
	if amount <= 0 {
		verr.add("amount", "Amount must be positive")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.mpesa.InitiateSTKPush(ctx, orderID, phone, amount)
}

func (s *PaymentService) InitiateStripe(ctx context.Context, orderID string, amount int64, currency string) (*payment.IntentResult, error) {
	verr := &ValidationError{}
	if orderID == "" {
		verr.add("orderId", "Order ID required")
	}
	if amount <= 0 {
		verr.add("amount", "Amount must be positive")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	if currency == "" {
		currency = "KES"
	}

	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.stripe.CreateIntent(ctx, orderID, amount, currency)
}

type MpesaCallback struct {
	OrderID           string `json:"orderId"`
	CheckoutRequestID string `json:"checkoutRequestId"`
	ResultCode        string `json:"resultCode"`
	ResultDesc        string `json:"resultDesc"`
}

// HandleMpesaCallback maps the Daraja result code onto the payment status:
// 0 completes, 1 and 1032 fail (cancelled on the handset), anything else is
// still pending and leaves the order untouched. Callbacks may arrive out of
// order and more than once; replays commit as no-ops.
func (s *PaymentService) HandleMpesaCallback(ctx context.Context, cb *MpesaCallback) (*domain.Order, error) {
	if cb.OrderID == "" {
		verr := &ValidationError{}
		verr.add("orderId", "Order ID required")
		return nil, verr
	}

	var target domain.PaymentStatus
	switch cb.ResultCode {
	case "0":
		target = domain.PaymentStatusCompleted
	case "1", "1032":
		target = domain.PaymentStatusFailed
	default:
		// Still pending on the provider side; report current state.
		return s.orders.GetOrder(ctx, cb.OrderID)
	}

	return s.applyPaymentResult(ctx, cb.OrderID, target, cb.CheckoutRequestID)
}

type StripeConfirmation struct {
	OrderID         string `json:"orderId"`
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
}

func (s *PaymentService) HandleStripeConfirmation(ctx context.Context, conf *StripeConfirmation) (*domain.Order, error) {
	verr := &ValidationError{}
	if conf.OrderID == "" {
		verr.add("orderId", "Order ID required")
	}
	if conf.PaymentIntentID == "" {
		verr.add("paymentIntentId", "Payment intent ID required")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	var target domain.PaymentStatus
	switch conf.Status {
	case "succeeded":
		target = domain.PaymentStatusCompleted
	case "failed":
		target = domain.PaymentStatusFailed
	default:
		return s.orders.GetOrder(ctx, conf.OrderID)
	}

	return s.applyPaymentResult(ctx, conf.OrderID, target, conf.PaymentIntentID)
}

// applyPaymentResult moves paymentStatus and, on completion, nudges a
// PENDING order into PROCESSING. The nudge decision is taken by the
// repository under the row lock, so a callback racing an admin transition
// never turns into a spurious conflict, and late callbacks cannot drag a
// shipped order backwards.
func (s *PaymentService) applyPaymentResult(ctx context.Context, orderID string, target domain.PaymentStatus, paymentID string) (*domain.Order, error) {
	update := repository.StatusUpdate{
		PaymentStatus:  &target,
		PromotePending: target == domain.PaymentStatusCompleted,
	}
	if paymentID != "" {
		update.PaymentID = &paymentID
	}

	order, change, err := s.orders.UpdateOrderStatus(ctx, orderID, update)
	if err != nil {
		return nil, err
	}

	// Only the delivery that actually flipped the status sends the email;
	// replays see PaymentStatusChanged == false.
	if change.PaymentStatusChanged && target == domain.PaymentStatusCompleted {
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.notifier.PaymentCompleted(notifyCtx, order); err != nil {
				log.Printf("order %s: payment success email failed: %v", order.ID, err)
			}
		}()
	}

	return order, nil
}
