// Package removebg предоставляет клиент для API удаления фона remove.bg.
package removebg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/bgremover/internal/model"
)

// DefaultURL адрес метода removebg.
const DefaultURL = "https://api.remove.bg/v1.0/removebg"

// ErrNotConfigured возвращается, если не задан API-ключ.
var ErrNotConfigured = errors.New("remove.bg client not configured")

// Client инкапсулирует HTTP-взаимодействие с remove.bg.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// ErrorItem описывает одну ошибку из ответа remove.bg.
type ErrorItem struct {
	Title  string `json:"title"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// APIError возвращается, если remove.bg ответил не изображением.
type APIError struct {
	StatusCode int
	Errors     []ErrorItem
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("remove.bg: unexpected response, status %d", e.StatusCode)
	}
	titles := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		titles = append(titles, item.Title)
	}
	return fmt.Sprintf("remove.bg: status %d: %s", e.StatusCode, strings.Join(titles, "; "))
}

// NewClient создаёт клиент remove.bg с указанным ключом.
func NewClient(url, apiKey string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Remove отправляет изображение в remove.bg и возвращает результат.
func (c *Client) Remove(ctx context.Context, image []byte, size string) (*model.Cutout, error) {
	if c == nil || c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("image_file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.WriteField("size", size); err != nil {
		return nil, fmt.Errorf("write size field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// Успешный ответ определяется только по типу содержимого.
	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && strings.HasPrefix(contentType, "image/") {
		return &model.Cutout{
			ContentType: contentType,
			Data:        raw,
		}, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var errBody struct {
		Errors []ErrorItem `json:"errors"`
	}
	if err := json.Unmarshal(raw, &errBody); err == nil {
		apiErr.Errors = errBody.Errors
	}

	return nil, apiErr
}
