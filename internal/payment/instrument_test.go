package payment

import (
    "errors"
    "testing"
    "time"
)

var validationNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func validCard() CardInstrument {
    return CardInstrument{
        Number:      "4539148803436467",
        CVV:         "123",
        ExpiryMonth: 12,
        ExpiryYear:  2027,
    }
}

func TestCardValidatePasses(t *testing.T) {
    if err := validCard().Validate(validationNow); err != nil {
        t.Fatalf("valid card rejected: %v", err)
    }
}

func TestCardValidateRejections(t *testing.T) {
    cases := []struct {
        name   string
        mutate func(*CardInstrument)
        want   error
    }{
        {"too short", func(c *CardInstrument) { c.Number = "453914880343" }, ErrCardNumberLength},
        {"too long", func(c *CardInstrument) { c.Number = "45391488034364671234" }, ErrCardNumberLength},
        {"non digits", func(c *CardInstrument) { c.Number = "4539-1488-0343-646" }, ErrCardNumberDigits},
        {"bad checksum", func(c *CardInstrument) { c.Number = "4539148803436468" }, ErrCardChecksum},
        {"cvv too short", func(c *CardInstrument) { c.CVV = "12" }, ErrCVVInvalid},
        {"cvv too long", func(c *CardInstrument) { c.CVV = "12345" }, ErrCVVInvalid},
        {"cvv non digits", func(c *CardInstrument) { c.CVV = "12a" }, ErrCVVInvalid},
        {"month zero", func(c *CardInstrument) { c.ExpiryMonth = 0 }, ErrExpiryInvalid},
        {"month thirteen", func(c *CardInstrument) { c.ExpiryMonth = 13 }, ErrExpiryInvalid},
        {"expired last year", func(c *CardInstrument) { c.ExpiryYear = 2025 }, ErrCardExpired},
        {"expired last month", func(c *CardInstrument) { c.ExpiryMonth = 8; c.ExpiryYear = 2026 }, ErrCardExpired},
        // Checksum runs last, so other defects on the same card win.
        {"bad checksum and bad cvv", func(c *CardInstrument) { c.Number = "4539148803436468"; c.CVV = "1" }, ErrCVVInvalid},
        {"bad checksum and expired", func(c *CardInstrument) { c.Number = "4539148803436468"; c.ExpiryYear = 2024 }, ErrCardExpired},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            card := validCard()
            tc.mutate(&card)
            if err := card.Validate(validationNow); !errors.Is(err, tc.want) {
                t.Fatalf("Validate = %v, want %v", err, tc.want)
            }
        })
    }
}

// A card expiring this month is still valid until the month ends.
func TestCardValidThroughEndOfExpiryMonth(t *testing.T) {
    card := validCard()
    card.ExpiryMonth = 9
    card.ExpiryYear = 2026
    if err := card.Validate(validationNow); err != nil {
        t.Fatalf("card expiring this month rejected: %v", err)
    }
    endOfMonth := time.Date(2026, 9, 30, 23, 59, 59, 0, time.UTC)
    if err := card.Validate(endOfMonth); err != nil {
        t.Fatalf("card rejected on last day of expiry month: %v", err)
    }
    firstOfNext := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
    if err := card.Validate(firstOfNext); !errors.Is(err, ErrCardExpired) {
        t.Fatalf("expected ErrCardExpired after expiry month, got %v", err)
    }
}

func TestLuhnValid(t *testing.T) {
    valid := []string{"4539148803436467", "4111111111111111", "79927398713"}
    for _, n := range valid {
        if !luhnValid(n) {
            t.Fatalf("luhnValid(%q) = false, want true", n)
        }
    }
    invalid := []string{"4539148803436468", "79927398710", "1234567890123456"}
    for _, n := range invalid {
        if luhnValid(n) {
            t.Fatalf("luhnValid(%q) = true, want false", n)
        }
    }
}
