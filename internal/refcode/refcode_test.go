package refcode

import (
    "context"
    "errors"
    "fmt"
    "regexp"
    "testing"
    "time"
)

func never(context.Context, string) (bool, error) { return false, nil }

func TestReservationCodeFormat(t *testing.T) {
    now := time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
    code, err := NewReservationCode(context.Background(), now, never)
    if err != nil {
        t.Fatalf("NewReservationCode: %v", err)
    }
    pattern := regexp.MustCompile(`^RES20260901[0-9a-f]{8}$`)
    if !pattern.MatchString(code) {
        t.Fatalf("code %q does not match %v", code, pattern)
    }
}

func TestPaymentRefFormat(t *testing.T) {
    now := time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
    ref, err := NewPaymentRef(context.Background(), now, never)
    if err != nil {
        t.Fatalf("NewPaymentRef: %v", err)
    }
    pattern := regexp.MustCompile(fmt.Sprintf(`^PAY%d[0-9a-f]{8}$`, now.Unix()))
    if !pattern.MatchString(ref) {
        t.Fatalf("ref %q does not match %v", ref, pattern)
    }
}

func TestReservationCodesDistinct(t *testing.T) {
    now := time.Now()
    seen := make(map[string]struct{}, 10000)
    for i := 0; i < 10000; i++ {
        code, err := NewReservationCode(context.Background(), now, never)
        if err != nil {
            t.Fatalf("generation %d: %v", i, err)
        }
        if _, dup := seen[code]; dup {
            t.Fatalf("duplicate code %q after %d generations", code, i)
        }
        seen[code] = struct{}{}
    }
}

func TestGenerateRetriesOnCollision(t *testing.T) {
    calls := 0
    exists := func(context.Context, string) (bool, error) {
        calls++
        return calls <= 2, nil
    }
    code, err := NewReservationCode(context.Background(), time.Now(), exists)
    if err != nil {
        t.Fatalf("NewReservationCode: %v", err)
    }
    if code == "" {
        t.Fatal("expected a code after retries")
    }
    if calls != 3 {
        t.Fatalf("expected 3 existence checks, got %d", calls)
    }
}

func TestGenerateExhaustsAfterMaxAttempts(t *testing.T) {
    always := func(context.Context, string) (bool, error) { return true, nil }
    _, err := NewReservationCode(context.Background(), time.Now(), always)
    if !errors.Is(err, ErrExhausted) {
        t.Fatalf("expected ErrExhausted, got %v", err)
    }
}

func TestGeneratePropagatesExistsError(t *testing.T) {
    boom := errors.New("lookup failed")
    exists := func(context.Context, string) (bool, error) { return false, boom }
    _, err := NewPaymentRef(context.Background(), time.Now(), exists)
    if !errors.Is(err, boom) {
        t.Fatalf("expected lookup error, got %v", err)
    }
}
