package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/repository"
)

// ContactNotifier forwards contact form submissions to the operator inbox.
type ContactNotifier interface {
	ContactReceived(ctx context.Context, name, email, subject, message string) error
}

// MarketingService covers the storefront's non-transactional mail surface:
// newsletter signups and the contact form.
type MarketingService struct {
	subscribers repository.SubscriberRepository
	notifier    ContactNotifier
}

func NewMarketingService(subscribers repository.SubscriberRepository, notifier ContactNotifier) *MarketingService {
	return &MarketingService{
		subscribers: subscribers,
		notifier:    notifier,
	}
}

// Subscribe records a newsletter signup. Repeat signups succeed and return
// the existing subscriber.
func (s *MarketingService) Subscribe(ctx context.Context, email string) (*domain.Subscriber, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > 255 || !strings.Contains(email, "@") {
		verr := &ValidationError{}
		verr.add("email", "Invalid email address")
		return nil, verr
	}
	return s.subscribers.UpsertSubscriber(ctx, email)
}

func (s *MarketingService) ListSubscribers(ctx context.Context) ([]*domain.Subscriber, error) {
	return s.subscribers.ListSubscribers(ctx)
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitContact validates the form and sends the email synchronously, so a
// failed send surfaces to the caller instead of vanishing.
func (s *MarketingService) SubmitContact(ctx context.Context, req *ContactRequest) error {
	verr := &ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.add("name", "Name is required")
	} else if len(req.Name) > 100 {
		verr.add("name", "Name must be at most 100 characters")
	}
	if req.Email == "" {
		verr.add("email", "Email is required")
	} else if len(req.Email) > 255 || !strings.Contains(req.Email, "@") {
		verr.add("email", "Invalid email address")
	}
	if strings.TrimSpace(req.Subject) == "" {
		verr.add("subject", "Subject is required")
	} else if len(req.Subject) > 200 {
		verr.add("subject", "Subject must be at most 200 characters")
	}
	if strings.TrimSpace(req.Message) == "" {
		verr.add("message", "Message is required")
	} else if len(req.Message) > 5000 {
		verr.add("message", "Message must be at most 5000 characters")
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	if err := s.notifier.ContactReceived(ctx, req.Name, req.Email, req.Subject, req.Message); err != nil {
		return fmt.Errorf("forward contact submission: %w", err)
	}
	return nil
}
