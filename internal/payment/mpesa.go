package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// M-Pesa STK push client. Without a configured base URL it runs in sandbox
// mode and fabricates checkout references the way Daraja's sandbox does;
// pointing BaseURL at the real processrequest endpoint switches it live.
type STKPushResult struct {
	CheckoutRequestID string `json:"checkoutRequestId"`
	Message           string `json:"message"`
}

type MpesaGateway struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*STKPushResult]
}

func NewMpesaGateway(baseURL string, timeout time.Duration) *MpesaGateway {
	return &MpesaGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*STKPushResult](gobreaker.Settings{
			Name:    "mpesa",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (g *MpesaGateway) InitiateSTKPush(ctx context.Context, orderID, phone string, amount int64) (*STKPushResult, error) {
	return g.breaker.Execute(func() (*STKPushResult, error) {
		if g.baseURL == "" {
			return &STKPushResult{
				CheckoutRequestID: fmt.Sprintf("ws_CO_%s", randomToken(18)),
				Message:           "STK push sent. Please enter your M-Pesa PIN.",
			}, nil
		}
		return g.push(ctx, orderID, phone, amount)
	})
}

func (g *MpesaGateway) push(ctx context.Context, orderID, phone string, amount int64) (*STKPushResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"Amount":           amount,
		"PhoneNumber":      phone,
		"AccountReference": orderID,
		"TransactionDesc":  "Order Payment",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal stk push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build stk push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stk push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stk push returned status %d", resp.StatusCode)
	}

	var body struct {
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		CustomerMessage     string `json:"CustomerMessage"`
		ResponseDescription string `json:"ResponseDescription"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode stk push response: %w", err)
	}

	message := body.CustomerMessage
	if message == "" {
		message = body.ResponseDescription
	}
	return &STKPushResult{
		CheckoutRequestID: body.CheckoutRequestID,
		Message:           message,
	}, nil
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}
