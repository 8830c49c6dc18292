package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode selects which ledger operation a transaction request performs.
type Mode string

const (
	ModeAdd    Mode = "add"
	ModeRedeem Mode = "redeem"
)

// CustomerRecord is the canonical ledger entry for one mobile number.
type CustomerRecord struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Mobile          string           `json:"mobile"`
	TotalPoints     int64            `json:"totalPoints"`
	LastTransaction *LastTransaction `json:"lastTransaction,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// LastTransaction is the audit entry for the most recent accepted transaction.
type LastTransaction struct {
	Description string    `json:"description"`
	PointsDelta int64     `json:"pointsDelta"`
	Timestamp   time.Time `json:"timestamp"`
}

// Clone returns a deep copy so callers never share the audit pointer with the store.
func (c CustomerRecord) Clone() CustomerRecord {
	if c.LastTransaction != nil {
		lt := *c.LastTransaction
		c.LastTransaction = &lt
	}
	return c
}

// TransactionRequest is a validated, normalized transaction ready for the ledger.
// Amount is set for ModeAdd, Points for ModeRedeem.
type TransactionRequest struct {
	Mobile string
	Name   string
	Mode   Mode
	Amount decimal.Decimal
	Points int64
}
