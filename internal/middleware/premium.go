// Package middleware содержит HTTP middleware сервиса удаления фона.
package middleware

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const premiumKey contextKey = "premium"

const (
	premiumCookieName = "premium_pass"
	premiumIssuer     = "bgremover"
)

// PremiumClaims описывает содержимое премиум-пропуска.
type PremiumClaims struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	jwt.RegisteredClaims
}

// PremiumMiddleware выдаёт и проверяет премиум-пропуск после подтверждённой оплаты.
type PremiumMiddleware struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewPremiumMiddleware создаёт middleware с указанным ключом подписи и временем жизни пропуска.
// При пустом ключе используется случайный ключ процесса.
func NewPremiumMiddleware(secret string, ttl time.Duration) *PremiumMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-premium-key")
		}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &PremiumMiddleware{
		secretKey: key,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Issue устанавливает cookie с премиум-пропуском для оплаченного заказа.
func (p *PremiumMiddleware) Issue(w http.ResponseWriter, orderID, paymentID string) error {
	now := p.now()
	expires := now.Add(p.ttl)

	claims := PremiumClaims{
		OrderID:   orderID,
		PaymentID: paymentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    premiumIssuer,
			Subject:   paymentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secretKey)
	if err != nil {
		return fmt.Errorf("sign premium pass: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     premiumCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Middleware пропускает запрос только с действующим премиум-пропуском.
func (p *PremiumMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(premiumCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		claims, err := p.parse(cookie.Value)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), premiumKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (p *PremiumMiddleware) parse(value string) (*PremiumClaims, error) {
	claims := &PremiumClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return p.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(premiumIssuer),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.PaymentID == "" {
		return nil, errors.New("invalid premium pass")
	}
	return claims, nil
}

// PremiumFromContext извлекает премиум-пропуск из контекста запроса.
func PremiumFromContext(ctx context.Context) (*PremiumClaims, bool) {
	claims, ok := ctx.Value(premiumKey).(*PremiumClaims)
	return claims, ok
}
