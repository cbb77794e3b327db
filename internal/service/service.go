// Package service реализует бизнес-логику сервиса удаления фона.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/bgremover/internal/model"
	"github.com/mmeshcher/bgremover/internal/razorpay"
	"github.com/mmeshcher/bgremover/internal/validation"
)

// defaultJournalTimeout ограничивает время записи в журнал.
const defaultJournalTimeout = time.Second

// Стоимость премиум-загрузки в минимальных единицах валюты.
const (
	PremiumAmount   int64 = 5000
	PremiumCurrency       = "INR"
)

var (
	// ErrSecretNotConfigured возвращается, если не задан секрет для проверки подписи.
	ErrSecretNotConfigured = errors.New("payment secret not configured")
	// ErrNotImage возвращается, если загруженный файл не является изображением.
	ErrNotImage = errors.New("uploaded file is not an image")
	// ErrInvalidSize возвращается для неподдерживаемого размера результата.
	ErrInvalidSize = errors.New("unsupported cutout size")
)

// Gateway описывает платёжный шлюз, выпускающий заказы.
type Gateway interface {
	CreateOrder(ctx context.Context, in razorpay.OrderRequest) (*model.Order, error)
}

// Remover описывает внешний сервис удаления фона.
type Remover interface {
	Remove(ctx context.Context, image []byte, size string) (*model.Cutout, error)
}

// Journal описывает журнал платежей. Журнал необязателен и не влияет на ответы API.
type Journal interface {
	Close() error
	SaveOrder(ctx context.Context, order *model.Order) error
	SaveVerification(ctx context.Context, v model.Verification) error
}

// Service содержит бизнес-логику оплаты и удаления фона.
type Service struct {
	gateway Gateway
	remover Remover
	journal Journal
	secret  string
	logger  *zap.Logger

	journalTimeout time.Duration
}

// NewService создаёт сервис. journal и logger могут быть nil.
func NewService(gateway Gateway, remover Remover, journal Journal, secret string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway: gateway,
		remover: remover,
		journal: journal,
		secret:  secret,
		logger:  logger,

		journalTimeout: defaultJournalTimeout,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.journal != nil {
		return s.journal.Close()
	}
	return nil
}

// CreateOrder создаёт в шлюзе заказ на фиксированную сумму премиум-загрузки.
func (s *Service) CreateOrder(ctx context.Context) (*model.Order, error) {
	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   PremiumAmount,
		Currency: PremiumCurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if s.journal != nil {
		jctx, cancel := s.journalContext(ctx)
		defer cancel()
		if err := s.journal.SaveOrder(jctx, order); err != nil {
			s.logger.Warn("journal order error", zap.Error(err), zap.String("order", order.ID))
		}
	}

	return order, nil
}

// journalContext не зависит от отмены запроса, но ограничен по времени.
func (s *Service) journalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.journalTimeout)
}

// VerifyPayment проверяет подпись подтверждения оплаты.
func (s *Service) VerifyPayment(ctx context.Context, c model.PaymentConfirmation) (bool, error) {
	if s.secret == "" {
		return false, ErrSecretNotConfigured
	}

	authentic := validation.IsValidPaymentSignature(s.secret, c.OrderID, c.PaymentID, c.Signature)

	if s.journal != nil {
		v := model.Verification{
			ID:         uuid.NewString(),
			OrderID:    c.OrderID,
			PaymentID:  c.PaymentID,
			Authentic:  authentic,
			VerifiedAt: time.Now().UTC(),
		}
		jctx, cancel := s.journalContext(ctx)
		defer cancel()
		if err := s.journal.SaveVerification(jctx, v); err != nil {
			s.logger.Warn("journal verification error", zap.Error(err), zap.String("order", c.OrderID))
		}
	}

	return authentic, nil
}

// RemoveBackground удаляет фон с изображения через внешний сервис.
func (s *Service) RemoveBackground(ctx context.Context, image []byte, size string) (*model.Cutout, error) {
	mt := mimetype.Detect(image)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}

	if err := validation.ValidateCutoutSize(size); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSize, size)
	}

	cutout, err := s.remover.Remove(ctx, image, size)
	if err != nil {
		return nil, fmt.Errorf("remove background: %w", err)
	}

	return cutout, nil
}
