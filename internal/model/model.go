// Package model содержит доменные сущности сервиса удаления фона.
package model

import (
	"encoding/json"
	"time"
)

// Order описывает заказ, выпущенный платёжным шлюзом.
// Raw хранит исходный ответ шлюза, который возвращается клиенту без изменений.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
	Raw      json.RawMessage
}

// PaymentConfirmation содержит результат оплаты, переданный клиентом после checkout.
type PaymentConfirmation struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Verification описывает одну попытку проверки подписи платежа.
type Verification struct {
	ID         string
	OrderID    string
	PaymentID  string
	Authentic  bool
	VerifiedAt time.Time
}

// Cutout содержит изображение с удалённым фоном.
type Cutout struct {
	ContentType string
	Data        []byte
}
