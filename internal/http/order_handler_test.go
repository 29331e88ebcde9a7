package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/service"
)

func newOrderHandler(orders *stubOrderRepo, products *stubProductRepo) *OrderHandler {
	svc := service.NewOrderService(orders, products, noopNotifier{}, 1600)
	return NewOrderHandler(svc, 5*time.Second, true)
}

func placementBody() []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"items":         []map[string]interface{}{{"productId": "prod-1", "quantity": 2}},
		"fullName":      "Amina Odhiambo",
		"street":        "12 Riverside Drive",
		"city":          "Nairobi",
		"postalCode":    "00100",
		"phone":         "+254700000000",
		"email":         "amina@example.com",
		"paymentMethod": "MPESA",
	})
	return body
}

func TestOrderCreate_Success(t *testing.T) {
	orders := &stubOrderRepo{}
	handler := newOrderHandler(orders, &stubProductRepo{products: catalogFixture()})

	recorder := httptest.NewRecorder()
	request := withOwner(httptest.NewRequest("POST", "/", bytes.NewReader(placementBody())), "visitor-abc")

	handler.Create(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	var order domain.Order
	if err := json.NewDecoder(recorder.Body).Decode(&order); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if order.Subtotal != 2000 {
		t.Errorf("Expected subtotal 2000, got %d", order.Subtotal)
	}
	if order.Tax != 320 {
		t.Errorf("Expected tax 320, got %d", order.Tax)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("Expected status PENDING, got %s", order.Status)
	}
	if len(orders.orders) != 1 {
		t.Errorf("Expected 1 stored order, got %d", len(orders.orders))
	}
}

func TestOrderCreate_ValidationDetails(t *testing.T) {
	handler := newOrderHandler(&stubOrderRepo{}, &stubProductRepo{products: catalogFixture()})

	body, _ := json.Marshal(map[string]interface{}{
		"items": []map[string]interface{}{{"productId": "prod-1", "quantity": 1}},
	})
	recorder := httptest.NewRecorder()
	request := withOwner(httptest.NewRequest("POST", "/", bytes.NewReader(body)), "visitor-abc")

	handler.Create(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	var response struct {
		Code    string `json:"code"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Code != "validation_failed" {
		t.Errorf("Expected error code 'validation_failed', got '%s'", response.Code)
	}
	if len(response.Details) == 0 {
		t.Error("Expected per-field details in the validation response")
	}
}

func TestOrderCreate_EmptyItems(t *testing.T) {
	handler := newOrderHandler(&stubOrderRepo{}, &stubProductRepo{products: catalogFixture()})

	recorder := httptest.NewRecorder()
	request := withOwner(httptest.NewRequest("POST", "/", bytes.NewReader([]byte(`{"items":[]}`))), "visitor-abc")

	handler.Create(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestOrderCreate_InsufficientStock(t *testing.T) {
	products := &stubProductRepo{products: map[string]*domain.Product{
		"prod-1": {ID: "prod-1", Name: "Ankara Wrap Dress", Price: 1000, SKU: "AWD-001", Category: "dresses", Stock: 1, Published: true},
	}}
	handler := newOrderHandler(&stubOrderRepo{}, products)

	recorder := httptest.NewRecorder()
	request := withOwner(httptest.NewRequest("POST", "/", bytes.NewReader(placementBody())), "visitor-abc")

	handler.Create(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "insufficient_stock" {
		t.Errorf("Expected error code 'insufficient_stock', got '%s'", response.Code)
	}
}

func TestOrderGet_ForeignOrderIs404(t *testing.T) {
	orders := &stubOrderRepo{orders: map[string]*domain.Order{
		"order-1": {ID: "order-1", UserID: "visitor-other"},
	}}
	handler := newOrderHandler(orders, &stubProductRepo{})

	recorder := httptest.NewRecorder()
	request := withOwner(httptest.NewRequest("GET", "/order-1", nil), "visitor-abc")
	request = withURLParam(request, "id", "order-1")

	handler.Get(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestOrderList_Success(t *testing.T) {
	orders := &stubOrderRepo{orders: map[string]*domain.Order{
		"order-1": {ID: "order-1", UserID: "visitor-abc"},
		"order-2": {ID: "order-2", UserID: "visitor-other"},
	}}
	handler := newOrderHandler(orders, &stubProductRepo{})

	recorder := httptest.NewRecorder()
	request := withOwner(httptest.NewRequest("GET", "/", nil), "visitor-abc")

	handler.List(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Orders) != 1 {
		t.Errorf("Expected 1 order, got %d", len(response.Orders))
	}
}

func TestOrderUpdate_IllegalTransitionIs409(t *testing.T) {
	orders := &stubOrderRepo{orders: map[string]*domain.Order{
		"order-1": {
			ID:            "order-1",
			UserID:        "visitor-abc",
			Status:        domain.OrderStatusDelivered,
			PaymentStatus: domain.PaymentStatusCompleted,
		},
	}}
	handler := newOrderHandler(orders, &stubProductRepo{})

	body, _ := json.Marshal(&service.UpdateOrderRequest{OrderID: "order-1", Status: "PENDING"})
	recorder := httptest.NewRecorder()
	request := withOwner(httptest.NewRequest("PUT", "/", bytes.NewReader(body)), "admin-1")

	handler.Update(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "illegal_transition" {
		t.Errorf("Expected error code 'illegal_transition', got '%s'", response.Code)
	}
}

func TestOrderUpdate_Success(t *testing.T) {
	orders := &stubOrderRepo{orders: map[string]*domain.Order{
		"order-1": {
			ID:            "order-1",
			UserID:        "visitor-abc",
			Status:        domain.OrderStatusPending,
			PaymentStatus: domain.PaymentStatusPending,
		},
	}}
	handler := newOrderHandler(orders, &stubProductRepo{})

	body, _ := json.Marshal(&service.UpdateOrderRequest{OrderID: "order-1", Status: "PROCESSING"})
	recorder := httptest.NewRecorder()
	request := withOwner(httptest.NewRequest("PUT", "/", bytes.NewReader(body)), "admin-1")

	handler.Update(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var order domain.Order
	if err := json.NewDecoder(recorder.Body).Decode(&order); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Errorf("Expected status PROCESSING, got %s", order.Status)
	}
}
