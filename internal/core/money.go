// Package core holds the finance domain: users, transactions, and the pure
// aggregation logic the dashboard is built on.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a positive decimal amount from user input. It accepts
// both dot and comma decimal separators. Zero and negative values are
// rejected: every recorded movement must carry a positive amount, the
// income/expense split is expressed by the transaction type.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// signed returns the amount with the sign implied by the transaction type:
// income counts positive, expense negative.
func (t Transaction) signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
