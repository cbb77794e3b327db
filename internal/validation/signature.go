// Package validation содержит функции проверки входных данных.
package validation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// PaymentSignature вычисляет hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func PaymentSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// IsValidPaymentSignature сообщает, совпадает ли подпись клиента с ожидаемой.
// Сравнение посимвольное: подпись в другом регистре считается неверной.
func IsValidPaymentSignature(secret, orderID, paymentID, signature string) bool {
	expected := PaymentSignature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
