package orders

import (
	"crypto/rand"
	"fmt"
)

const (
	orderNumberPrefix   = "UX-"
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberLength   = 8
)

// NewOrderNumber returns a human-readable order number of the form
// UX-XXXXXXXX where X is an uppercase letter or digit.
func NewOrderNumber() (string, error) {
	buf := make([]byte, orderNumberLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = orderNumberAlphabet[int(buf[i])%len(orderNumberAlphabet)]
	}
	return orderNumberPrefix + string(buf), nil
}
