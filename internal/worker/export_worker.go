// Package worker mirrors saved transactions into the external ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dennis-XXII/expense-tracker/internal/amqp"
	"github.com/Dennis-XXII/expense-tracker/internal/core"
	"github.com/Dennis-XXII/expense-tracker/internal/log"
	"github.com/Dennis-XXII/expense-tracker/internal/sheets"
	"github.com/Dennis-XXII/expense-tracker/internal/storage"
)

// Store is the slice of the repository the worker needs.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (core.User, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
	ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkExported(ctx context.Context, id uuid.UUID) error
}

// ExportWorker consumes transaction events and appends the rows to the
// ledger. A periodic sweep over unexported rows backstops lost messages.
type ExportWorker struct {
	store     Store
	ledger    sheets.LedgerWriter
	logger    *log.Logger
	batchSize int
}

func NewExportWorker(store Store, ledger sheets.LedgerWriter, logger *log.Logger, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		ledger:    ledger,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleMessage processes one raw delivery from the export queue.
func (w *ExportWorker) HandleMessage(ctx context.Context, body []byte) error {
	event, err := amqp.TransactionEventFromJSON(body)
	if err != nil {
		// Undecodable payloads are logged and dropped, requeueing
		// them would loop forever.
		w.logger.ErrorContext(ctx, "Dropping undecodable message", log.FieldError, err)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldTransactionID, event.TransactionID,
		log.FieldOperation, event.Action)

	if event.Action == amqp.ActionDeleted {
		// Deletions keep their sheet rows as an audit trail.
		return nil
	}

	if err := w.exportTransaction(ctx, event.TransactionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Row deleted between publish and consume.
			w.logger.WarnContext(ctx, "Transaction vanished before export",
				log.FieldTransactionID, event.TransactionID)
			return nil
		}
		return err
	}
	return nil
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id uuid.UUID) error {
	t, err := w.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	user, err := w.store.GetUser(ctx, t.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	rowRef, err := w.ledger.Append(ctx, user, t)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}
	if err := w.store.MarkExported(ctx, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	w.logger.InfoContext(ctx, "Transaction exported",
		log.FieldTransactionID, id,
		log.FieldSheetRange, rowRef)
	return nil
}

// ProcessPending exports any rows the queue never delivered. This is a
// backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, t := range pending {
		if err := w.exportTransaction(ctx, t.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export pending transaction",
				log.FieldTransactionID, t.ID,
				log.FieldError, err)
		}
	}
	return nil
}

// RunSweep calls ProcessPending on an interval until ctx is done.
func (w *ExportWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Pending sweep failed", log.FieldError, err)
			}
		}
	}
}
