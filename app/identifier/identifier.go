// Package identifier generates the time-ordered ids used as Todo primary keys
// and recovers the creation time embedded in them.
package identifier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timestampDigits is the number of leading hex digits (48 bits) that hold the
// Unix millisecond timestamp of a UUIDv7.
const timestampDigits = 12

// ErrTooShort is returned when an id carries fewer than 48 bits of hex.
var ErrTooShort = errors.New("identifier: fewer than 12 hex digits")

// Generator produces new identifiers.
type Generator func() (string, error)

// Generate returns a new UUIDv7 in canonical lowercase 8-4-4-4-12 form.
func Generate() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("identifier: generate: %w", err)
	}
	return id.String(), nil
}

// ExtractTimestamp returns the creation time embedded in the first 48 bits of id.
// Non-hex characters are ignored, so hyphenated and raw forms give the same result.
func ExtractTimestamp(id string) (time.Time, error) {
	var b strings.Builder
	for _, r := range id {
		if isHex(r) {
			b.WriteRune(r)
			if b.Len() == timestampDigits {
				break
			}
		}
	}
	if b.Len() < timestampDigits {
		return time.Time{}, ErrTooShort
	}

	ms, err := strconv.ParseUint(b.String(), 16, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("identifier: parse timestamp: %w", err)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// CreatedAt is ExtractTimestamp without the error, returning the zero time
// for ids that carry no timestamp.
func CreatedAt(id string) time.Time {
	ts, err := ExtractTimestamp(id)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
