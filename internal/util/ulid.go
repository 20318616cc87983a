package util

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string
func New() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewID generates a type-prefixed id, e.g. NewID("inv") => "inv_01jz...".
func NewID(prefix string) string {
	return prefix + "_" + strings.ToLower(New())
}
