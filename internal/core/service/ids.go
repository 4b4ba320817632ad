package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// newOpaqueID returns a collision-resistant, non-sequential identifier of n
// url-safe characters. Order ids must not be enumerable.
func newOpaqueID(n int) string {
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		// fallback: use current nanoseconds
		return fmt.Sprintf("%x", time.Now().UnixNano())[:n]
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n]
}

const (
	orderIDLen = 12
	actorIDLen = 16
)

func newOrderID() string { return newOpaqueID(orderIDLen) }
func newActorID() string { return newOpaqueID(actorIDLen) }
