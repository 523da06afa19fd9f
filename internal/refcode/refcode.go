// Package refcode generates the human-facing reference strings handed out
// by the booking flow: reservation codes and payment references.  Codes
// embed a timestamp for operator readability and a random suffix for
// uniqueness; the store's unique key is the final arbiter, this package
// just makes collisions vanishingly rare.
package refcode

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "errors"
    "fmt"
    "time"
)

// ErrExhausted is returned when every generation attempt collided with an
// existing code.  With an 8-hex-char random suffix this indicates a broken
// Exists callback far more likely than genuine exhaustion.
var ErrExhausted = errors.New("refcode: could not generate a unique code")

// ExistsFunc reports whether a candidate code is already taken.  The
// engines bind it to a repository lookup running inside the transaction
// that will persist the code.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

const (
    reservationPrefix = "RES"
    paymentPrefix     = "PAY"
    maxAttempts       = 5
    suffixBytes       = 4
)

func randomSuffix() (string, error) {
    buf := make([]byte, suffixBytes)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}

func generate(ctx context.Context, stem string, exists ExistsFunc) (string, error) {
    for attempt := 0; attempt < maxAttempts; attempt++ {
        suffix, err := randomSuffix()
        if err != nil {
            return "", err
        }
        code := stem + suffix
        taken, err := exists(ctx, code)
        if err != nil {
            return "", err
        }
        if !taken {
            return code, nil
        }
    }
    return "", ErrExhausted
}

// NewReservationCode returns a fresh reservation code of the form
// RES<yyyymmdd><8 hex chars>, e.g. RES20260901a3f09c1d.  The date part
// uses the provided clock so callers control what "today" means.
func NewReservationCode(ctx context.Context, now time.Time, exists ExistsFunc) (string, error) {
    stem := reservationPrefix + now.UTC().Format("20060102")
    return generate(ctx, stem, exists)
}

// NewPaymentRef returns a fresh payment reference of the form
// PAY<unix seconds><8 hex chars>, e.g. PAY1756684800a3f09c1d.
func NewPaymentRef(ctx context.Context, now time.Time, exists ExistsFunc) (string, error) {
    stem := fmt.Sprintf("%s%d", paymentPrefix, now.UTC().Unix())
    return generate(ctx, stem, exists)
}
