// Package razorpay предоставляет клиент для API платёжного шлюза Razorpay.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/bgremover/internal/model"
)

// DefaultBaseURL адрес боевого API Razorpay.
const DefaultBaseURL = "https://api.razorpay.com"

// ErrNotConfigured возвращается, если клиенту не переданы ключи доступа.
var ErrNotConfigured = errors.New("razorpay client not configured")

// Client инкапсулирует HTTP-взаимодействие с платёжным шлюзом.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// OrderRequest описывает параметры создания заказа.
type OrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// APIError описывает неуспешный ответ шлюза. Body содержит тело ответа без изменений.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	Body        []byte
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("razorpay: status %d: %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("razorpay: unexpected status: %d", e.StatusCode)
}

// NewClient создаёт клиент шлюза с ключами keyID/keySecret по указанному адресу.
func NewClient(baseURL, keyID, keySecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateOrder создаёт заказ в шлюзе и возвращает его вместе с исходным ответом.
func (c *Client) CreateOrder(ctx context.Context, in OrderRequest) (*model.Order, error) {
	if c == nil || c.keyID == "" || c.keySecret == "" {
		return nil, ErrNotConfigured
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, raw)
	}

	var out orderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("decode response: order id is empty")
	}

	return &model.Order{
		ID:       out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
		Status:   out.Status,
		Raw:      json.RawMessage(raw),
	}, nil
}

func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: raw}

	var body struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Error.Code
		apiErr.Description = body.Error.Description
	}

	return apiErr
}
