package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
)

// Notifier sends the storefront's transactional mail. Callers treat every
// send as best-effort: errors are logged upstream, never surfaced to the
// customer and never enough to roll an order back.
type Notifier struct {
	sender     EmailSender
	fromEmail  string
	adminEmail string
}

func New(sender EmailSender, fromEmail, adminEmail string) *Notifier {
	return &Notifier{
		sender:     sender,
		fromEmail:  fromEmail,
		adminEmail: adminEmail,
	}
}

// OrderPlaced sends the customer confirmation and the operator notification.
// Both are attempted even if the first fails.
func (n *Notifier) OrderPlaced(ctx context.Context, order *domain.Order, customerEmail string) error {
	if customerEmail == "" {
		customerEmail = "customer@example.com"
	}

	var errs []string
	customerErr := n.sender.Send(ctx, &Email{
		From:    n.fromEmail,
		To:      customerEmail,
		Subject: fmt.Sprintf("Order Confirmation #%s - LUI MICHY", order.OrderNumber),
		Text:    orderConfirmationBody(order),
	})
	if customerErr != nil {
		errs = append(errs, fmt.Sprintf("customer email: %v", customerErr))
	}

	adminErr := n.sender.Send(ctx, &Email{
		From:    n.fromEmail,
		To:      n.adminEmail,
		Subject: fmt.Sprintf("New Order #%s", order.OrderNumber),
		Text:    adminNotificationBody(order),
	})
	if adminErr != nil {
		errs = append(errs, fmt.Sprintf("admin email: %v", adminErr))
	}

	if len(errs) > 0 {
		return fmt.Errorf("order placed notifications: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (n *Notifier) PaymentCompleted(ctx context.Context, order *domain.Order) error {
	err := n.sender.Send(ctx, &Email{
		From:    n.fromEmail,
		To:      n.adminEmail,
		Subject: fmt.Sprintf("Payment Received #%s", order.OrderNumber),
		Text: fmt.Sprintf("Payment for order %s completed via %s.\nTotal: %s %d\n",
			order.OrderNumber, order.PaymentMethod, order.Currency, order.Total),
	})
	if err != nil {
		return fmt.Errorf("payment completed notification: %w", err)
	}
	return nil
}

// ContactReceived forwards a contact form submission to the operator inbox.
// Unlike order mail this is sent synchronously: the email is the whole point
// of the submission, so the caller needs to know it went out.
func (n *Notifier) ContactReceived(ctx context.Context, name, email, subject, message string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "New contact form submission.\n\n")
	fmt.Fprintf(&b, "From: %s\n", name)
	fmt.Fprintf(&b, "Email: %s\n", email)
	fmt.Fprintf(&b, "Subject: %s\n\n", subject)
	b.WriteString(message)
	b.WriteString("\n")

	err := n.sender.Send(ctx, &Email{
		From:    n.fromEmail,
		To:      n.adminEmail,
		Subject: fmt.Sprintf("Contact Form: %s", subject),
		Text:    b.String(),
	})
	if err != nil {
		return fmt.Errorf("contact form notification: %w", err)
	}
	return nil
}

func orderConfirmationBody(order *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", order.ShippingAddress.FullName)
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %s x%d — %s %d\n", item.ProductName, item.Quantity, order.Currency, item.Subtotal)
	}
	fmt.Fprintf(&b, "\nSubtotal: %s %d\n", order.Currency, order.Subtotal)
	fmt.Fprintf(&b, "Shipping: %s %d\n", order.Currency, order.ShippingCost)
	fmt.Fprintf(&b, "Tax: %s %d\n", order.Currency, order.Tax)
	fmt.Fprintf(&b, "Total: %s %d\n\n", order.Currency, order.Total)
	fmt.Fprintf(&b, "Shipping to: %s, %s, %s, %s\n",
		order.ShippingAddress.Street, order.ShippingAddress.City,
		order.ShippingAddress.PostalCode, order.ShippingAddress.Country)
	b.WriteString("\nLUI MICHY Couture\n")
	return b.String()
}

func adminNotificationBody(order *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s from %s (%s).\n\n", order.OrderNumber, order.ShippingAddress.FullName, order.UserID)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %s x%d\n", item.ProductName, item.Quantity)
	}
	fmt.Fprintf(&b, "\nTotal: %s %d\nPayment: %s (%s)\nPhone: %s\n",
		order.Currency, order.Total, order.PaymentMethod, order.PaymentStatus,
		order.ShippingAddress.Phone)
	return b.String()
}
