package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

type IntentResult struct {
	ClientSecret string `json:"clientSecret"`
}

// Stripe payment-intent client, same sandbox convention as the M-Pesa
// gateway: no base URL means fabricated client secrets.
type StripeGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*IntentResult]
}

func NewStripeGateway(baseURL, apiKey string, timeout time.Duration) *StripeGateway {
	return &StripeGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*IntentResult](gobreaker.Settings{
			Name:    "stripe",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, orderID string, amount int64, currency string) (*IntentResult, error) {
	return g.breaker.Execute(func() (*IntentResult, error) {
		if g.baseURL == "" {
			return &IntentResult{
				ClientSecret: fmt.Sprintf("pi_%s_secret_%s", randomToken(13), randomToken(13)),
			}, nil
		}
		return g.createIntent(ctx, orderID, amount, currency)
	})
}

func (g *StripeGateway) createIntent(ctx context.Context, orderID string, amount int64, currency string) (*IntentResult, error) {
	form := url.Values{}
	// Stripe wants minor units; KES prices here are whole units.
	form.Set("amount", strconv.FormatInt(amount*100, 10))
	form.Set("currency", currency)
	form.Set("metadata[order_id]", orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build payment intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment intent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment intent returned status %d", resp.StatusCode)
	}

	var body struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode payment intent response: %w", err)
	}
	return &IntentResult{ClientSecret: body.ClientSecret}, nil
}
