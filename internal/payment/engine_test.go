package payment

import (
    "errors"
    "testing"
    "time"
)

func TestValidateRequest(t *testing.T) {
    e := NewEngine(nil, nil, nil, nil, testCeiling)
    now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

    card := validCard()
    cases := []struct {
        name string
        req  Request
        want error
    }{
        {"card with instrument", Request{Method: MethodCard, Card: &card}, nil},
        {"card without instrument", Request{Method: MethodCard}, ErrMissingInstrument},
        {"cash needs nothing", Request{Method: MethodCash}, nil},
        {"transfer with origin", Request{Method: MethodTransfer, OriginAccount: "987654321"}, nil},
        {"transfer without origin", Request{Method: MethodTransfer}, ErrMissingInstrument},
        {"unknown method", Request{Method: "crypto"}, ErrUnsupportedMethod},
        {"empty method", Request{}, ErrUnsupportedMethod},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if err := e.validate(tc.req, now); !errors.Is(err, tc.want) {
                t.Fatalf("validate = %v, want %v", err, tc.want)
            }
        })
    }
}

func TestValidateRequestSurfacesCardErrors(t *testing.T) {
    e := NewEngine(nil, nil, nil, nil, testCeiling)
    now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
    card := validCard()
    card.Number = "4539148803436468"
    err := e.validate(Request{Method: MethodCard, Card: &card}, now)
    if !errors.Is(err, ErrCardChecksum) {
        t.Fatalf("expected ErrCardChecksum, got %v", err)
    }
}

func TestSettleDispatch(t *testing.T) {
    e := NewEngine(nil, nil, nil, nil, testCeiling)
    card := validCard()

    if decline := e.settle(Request{Method: MethodCash}, testCeiling*10); decline != nil {
        t.Fatalf("cash should always settle, got %v", decline)
    }
    if decline := e.settle(Request{Method: MethodCard, Card: &card}, 100); decline != nil {
        t.Fatalf("ordinary card charge declined: %v", decline)
    }
    if decline := e.settle(Request{Method: MethodTransfer, OriginAccount: "000555"}, 100); decline == nil {
        t.Fatal("transfer from failing bank should decline")
    }
}
