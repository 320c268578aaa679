package orders

import (
	"math/rand"
	"strings"
)

const idDigits = 5

// GenerateOrderID returns "ORD" followed by five random digits. Uniqueness is probabilistic;
// Store.Create rejects a collision.
func GenerateOrderID() string {
	return "ORD" + randomDigits(idDigits)
}

// GenerateProductID returns "PROD" followed by five random digits.
func GenerateProductID() string {
	return "PROD" + randomDigits(idDigits)
}

func randomDigits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}
