package sheets

import (
	"context"

	"github.com/Dennis-XXII/expense-tracker/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// LedgerWriter mirrors a transaction into an external ledger and
	// returns a reference to the written row.
	LedgerWriter interface {
		Append(ctx context.Context, user core.User, t core.Transaction) (rowRef string, err error)
	}
)
