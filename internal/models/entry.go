package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operation is the kind of event an Entry records
type Operation string

const (
	// Operations that appear in input logs
	OpInquiry     Operation = "balance inquiry"
	OpWithdrew    Operation = "withdrew"
	OpTransferred Operation = "transferred"

	// Derived operations, never read from input
	OpReceived     Operation = "received"
	OpFinalBalance Operation = "final balance"
)

// HasCounterparty reports whether entries of this operation name a second account
func (op Operation) HasCounterparty() bool {
	return op == OpTransferred || op == OpReceived
}

// WallClock drops the zone from t and keeps its calendar reading, to the
// second, as a UTC time. Log timestamps carry no zone, so every entry
// timestamp is held in this form and formats back to the same text.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// Entry is one immutable event in an account's ledger.
//
// Counterparty is set only for transferred and received entries. Amount is
// non-negative for every operation except OpFinalBalance, which carries the
// signed net total of the ledger it closes.
type Entry struct {
	Timestamp    time.Time
	Account      string
	Operation    Operation
	Amount       decimal.Decimal
	Counterparty string
}

// IsDebit reports whether the entry reduces the account balance
func (e Entry) IsDebit() bool {
	return e.Operation == OpWithdrew || e.Operation == OpTransferred
}

// IsCredit reports whether the entry increases the account balance
func (e Entry) IsCredit() bool {
	return e.Operation == OpReceived
}
