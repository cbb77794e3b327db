package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateOrder_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/orders" {
			t.Fatalf("path = %s, want /v1/orders", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "secret" {
			t.Fatalf("basic auth = %q/%q, want rzp_test_key/secret", user, pass)
		}

		var in OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if in.Amount != 5000 || in.Currency != "INR" {
			t.Fatalf("unexpected request: %+v", in)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_1","entity":"order","amount":5000,"currency":"INR","status":"created","attempts":0}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "rzp_test_key", "secret")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	order, err := client.CreateOrder(ctx, OrderRequest{Amount: 5000, Currency: "INR"})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.ID != "order_1" || order.Amount != 5000 || order.Currency != "INR" || order.Status != "created" {
		t.Fatalf("unexpected order: %+v", order)
	}

	var raw map[string]any
	if err := json.Unmarshal(order.Raw, &raw); err != nil {
		t.Fatalf("raw is not JSON: %v", err)
	}
	if raw["entity"] != "order" {
		t.Fatalf("raw response must be kept verbatim, got %s", order.Raw)
	}
}

func TestCreateOrder_APIError(t *testing.T) {
	body := `{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "key", "wrong")

	order, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 5000, Currency: "INR"})
	if order != nil {
		t.Fatalf("expected nil order on error, got %+v", order)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status code = %d, want %d", apiErr.StatusCode, http.StatusUnauthorized)
	}
	if apiErr.Code != "BAD_REQUEST_ERROR" || apiErr.Description != "Authentication failed" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if string(apiErr.Body) != body {
		t.Fatalf("body = %s, want %s", apiErr.Body, body)
	}
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"amount":5000`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "key", "secret")

	order, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 5000, Currency: "INR"})
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if order != nil {
		t.Fatalf("expected nil order, got %+v", order)
	}
}

func TestCreateOrder_NotConfigured(t *testing.T) {
	client := NewClient("", "", "")

	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 5000, Currency: "INR"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
