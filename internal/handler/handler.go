// Package handler содержит HTTP-обработчики API сервиса удаления фона.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/bgremover/internal/middleware"
	"github.com/mmeshcher/bgremover/internal/model"
	"github.com/mmeshcher/bgremover/internal/razorpay"
	"github.com/mmeshcher/bgremover/internal/removebg"
	"github.com/mmeshcher/bgremover/internal/service"
)

const (
	maxUploadSize    = 12 << 20
	freeCutoutSize   = "preview"
	defaultPaidSize  = "full"
	uploadFieldName  = "image_file"
	invalidSignature = "Invalid signature"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateOrder(ctx context.Context) (*model.Order, error)
	VerifyPayment(ctx context.Context, c model.PaymentConfirmation) (bool, error)
	RemoveBackground(ctx context.Context, image []byte, size string) (*model.Cutout, error)
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	premium        *middleware.PremiumMiddleware
	allowedOrigins []string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, premium *middleware.PremiumMiddleware, allowedOrigins []string) *Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Handler{
		service:        s,
		logger:         logger,
		premium:        premium,
		allowedOrigins: allowedOrigins,
	}
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status,omitempty"`
}

// CreateOrder создаёт заказ на премиум-загрузку и возвращает ответ шлюза как есть.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CreateOrder(r.Context())
	if err != nil {
		h.logger.Error("create order error", zap.Error(err))
		writeServerError(w, err)
		return
	}

	if len(order.Raw) == 0 {
		writeJSON(w, http.StatusOK, orderResponse{ID: order.ID, Amount: order.Amount, Currency: order.Currency, Status: order.Status})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(order.Raw)
}

type verifyResponse struct {
	Message string `json:"message"`
}

// VerifyPayment проверяет подпись оплаты и выдаёт премиум-пропуск.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentConfirmation
	// Некорректное тело не отклоняется отдельно: пустые поля не пройдут проверку подписи.
	_ = json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req)

	ok, err := h.service.VerifyPayment(r.Context(), req)
	if err != nil {
		h.logger.Error("verify payment error", zap.Error(err))
		writeServerError(w, err)
		return
	}

	if !ok {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(invalidSignature))
		return
	}

	if err := h.premium.Issue(w, req.OrderID, req.PaymentID); err != nil {
		h.logger.Error("issue premium pass error", zap.Error(err), zap.String("order", req.OrderID))
	}

	writeJSON(w, http.StatusOK, verifyResponse{Message: "Payment successful"})
}

// RemoveBackground удаляет фон в бесплатном режиме предпросмотра.
func (h *Handler) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	h.cutout(w, r, false)
}

// RemoveBackgroundPremium удаляет фон в полном разрешении для оплативших пользователей.
func (h *Handler) RemoveBackgroundPremium(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.PremiumFromContext(r.Context()); !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	h.cutout(w, r, true)
}

type cutoutJSONResponse struct {
	Image string `json:"image"`
}

type cutoutErrorResponse struct {
	Errors []removebg.ErrorItem `json:"errors"`
}

func (h *Handler) cutout(w http.ResponseWriter, r *http.Request, premium bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	size := freeCutoutSize
	if premium {
		size = r.FormValue("size")
		if size == "" {
			size = defaultPaidSize
		}
	}

	file, _, err := r.FormFile(uploadFieldName)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil || len(image) == 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	cutout, err := h.service.RemoveBackground(r.Context(), image, size)
	if err != nil {
		h.writeCutoutError(w, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		dataURL := "data:" + cutout.ContentType + ";base64," + base64.StdEncoding.EncodeToString(cutout.Data)
		writeJSON(w, http.StatusOK, cutoutJSONResponse{Image: dataURL})
		return
	}

	w.Header().Set("Content-Type", cutout.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(cutout.Data)
}

func (h *Handler) writeCutoutError(w http.ResponseWriter, err error) {
	var apiErr *removebg.APIError

	switch {
	case errors.Is(err, service.ErrNotImage), errors.Is(err, service.ErrInvalidSize):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, removebg.ErrNotConfigured):
		h.logger.Error("remove background error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	case errors.As(err, &apiErr):
		h.logger.Warn("remove.bg rejected image", zap.Error(err), zap.Int("status", apiErr.StatusCode))
		items := apiErr.Errors
		if len(items) == 0 {
			items = []removebg.ErrorItem{{Title: "Unexpected response from background removal service"}}
		}
		writeJSON(w, http.StatusBadGateway, cutoutErrorResponse{Errors: items})
	default:
		h.logger.Error("remove background error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Healthz сообщает, что сервис запущен.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeServerError отвечает 500 и по возможности передаёт тело ошибки шлюза без изменений.
func writeServerError(w http.ResponseWriter, err error) {
	var apiErr *razorpay.APIError
	if errors.As(err, &apiErr) && json.Valid(apiErr.Body) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(apiErr.Body)
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
