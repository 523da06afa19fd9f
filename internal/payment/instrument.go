// Package payment implements the settlement core: validating payment
// instruments, simulating settlement against a provider, and recording
// every attempt in the transactions ledger.  No real money moves; the
// simulation is deterministic so the decline paths are testable.
package payment

import (
    "errors"
    "time"
)

// Instrument validation errors.  These mean the request itself is
// malformed; nothing is recorded in the ledger for them.
var (
    ErrCardNumberLength = errors.New("card number must be 13 to 19 digits")
    ErrCardNumberDigits = errors.New("card number must contain only digits")
    ErrCardChecksum     = errors.New("card number failed checksum")
    ErrCVVInvalid       = errors.New("cvv must be 3 or 4 digits")
    ErrExpiryInvalid    = errors.New("expiry month must be between 1 and 12")
    ErrCardExpired      = errors.New("card has expired")
)

// CardInstrument carries the card details of a payment request.  The card
// number is held only for the duration of the request and never persisted.
type CardInstrument struct {
    Number      string `json:"number"`
    CVV         string `json:"cvv"`
    ExpiryMonth int    `json:"expiry_month"`
    ExpiryYear  int    `json:"expiry_year"`
}

func allDigits(s string) bool {
    for _, c := range s {
        if c < '0' || c > '9' {
            return false
        }
    }
    return len(s) > 0
}

// luhnValid runs the standard mod-10 checksum over a digit string.
func luhnValid(number string) bool {
    sum := 0
    double := false
    for i := len(number) - 1; i >= 0; i-- {
        d := int(number[i] - '0')
        if double {
            d *= 2
            if d > 9 {
                d -= 9
            }
        }
        sum += d
        double = !double
    }
    return sum%10 == 0
}

// Validate checks the card's shape at the given instant: number length and
// digits, CVV shape, that the card is valid through the last day of its
// expiry month, and the mod-10 checksum last.  The first failing check
// wins, so the order is observable for doubly invalid cards.
func (c CardInstrument) Validate(now time.Time) error {
    if len(c.Number) < 13 || len(c.Number) > 19 {
        return ErrCardNumberLength
    }
    if !allDigits(c.Number) {
        return ErrCardNumberDigits
    }
    if !allDigits(c.CVV) || len(c.CVV) < 3 || len(c.CVV) > 4 {
        return ErrCVVInvalid
    }
    if c.ExpiryMonth < 1 || c.ExpiryMonth > 12 {
        return ErrExpiryInvalid
    }
    // Valid through the last instant of the expiry month.
    expiry := time.Date(c.ExpiryYear, time.Month(c.ExpiryMonth)+1, 1, 0, 0, 0, 0, time.UTC)
    if !now.UTC().Before(expiry) {
        return ErrCardExpired
    }
    if !luhnValid(c.Number) {
        return ErrCardChecksum
    }
    return nil
}
