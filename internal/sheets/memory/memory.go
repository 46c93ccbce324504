// Package memory is an in-process ledger used in tests and local runs
// where no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dennis-XXII/expense-tracker/internal/core"
	ports "github.com/Dennis-XXII/expense-tracker/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var _ ports.LedgerWriter = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

// Append stores the transaction and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, _ core.User, t core.Transaction) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, t)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (l *Ledger) Rows() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.rows...)
}
