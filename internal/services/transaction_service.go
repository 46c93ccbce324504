// Package services orchestrates writes across storage and messaging.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Dennis-XXII/expense-tracker/internal/amqp"
	"github.com/Dennis-XXII/expense-tracker/internal/core"
	"github.com/Dennis-XXII/expense-tracker/internal/log"
)

// Store is the slice of the repository the service needs.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (core.User, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]core.Transaction, error)
}

// Publisher sends change events and limit alerts to the broker.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
	PublishLimitAlert(ctx context.Context, alert *amqp.LimitAlert) error
}

// Daily-limit alert thresholds as fractions of the configured limit.
var (
	thresholdWarn = decimal.NewFromFloat(0.8)
)

// TransactionService applies writes and fans out the side effects. A
// broker failure never fails the request; the row is saved and the
// export worker's sweep picks it up later.
type TransactionService struct {
	store     Store
	publisher Publisher
	logger    *log.Logger
	location  *time.Location
	now       func() time.Time
}

func NewTransactionService(store Store, publisher Publisher, logger *log.Logger, location *time.Location) *TransactionService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentService),
		location:  location,
		now:       time.Now,
	}
}

// Create validates and stores a new transaction for an existing user.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize(s.now())
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if _, err := s.store.GetUser(ctx, t.UserID); err != nil {
		return core.Transaction{}, fmt.Errorf("lookup user: %w", err)
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishEvent(ctx, amqp.ActionCreated, created)
	s.checkDailyLimit(ctx, created)
	return created, nil
}

// Update replaces a transaction's mutable fields.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize(s.now())
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishEvent(ctx, amqp.ActionUpdated, updated)
	s.checkDailyLimit(ctx, updated)
	return updated, nil
}

// Delete removes a transaction.
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, amqp.ActionDeleted, t)
	return nil
}

func (s *TransactionService) publishEvent(ctx context.Context, action string, t core.Transaction) {
	event := amqp.NewTransactionEvent(action, t.ID, t.UserID)
	if err := s.publisher.PublishTransactionEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldTransactionID, t.ID,
			log.FieldOperation, action,
			log.FieldError, err)
	}
}

// checkDailyLimit publishes an alert when today's spending crosses 80%
// or 100% of the user's daily limit. Only expenses dated today count.
func (s *TransactionService) checkDailyLimit(ctx context.Context, t core.Transaction) {
	if t.Type != core.Expense {
		return
	}

	user, err := s.store.GetUser(ctx, t.UserID)
	if err != nil || !user.DailyLimit.IsPositive() {
		return
	}
	transactions, err := s.store.ListByUser(ctx, t.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list transactions for limit check",
			log.FieldUserID, t.UserID, log.FieldError, err)
		return
	}

	summary := core.Summarize(user, transactions, s.now(), s.location)
	var message string
	switch {
	case summary.SpentToday.GreaterThanOrEqual(user.DailyLimit):
		message = "Daily spending limit reached"
	case summary.SpentToday.GreaterThanOrEqual(user.DailyLimit.Mul(thresholdWarn)):
		message = "You have used 80% of your daily limit"
	default:
		return
	}

	alert := &amqp.LimitAlert{
		UserID:     user.ID,
		SpentToday: summary.SpentToday.String(),
		Limit:      user.DailyLimit.String(),
		Message:    message,
		Timestamp:  s.now(),
	}
	if err := s.publisher.PublishLimitAlert(ctx, alert); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish limit alert",
			log.FieldUserID, user.ID, log.FieldError, err)
	}
}

// NoopPublisher drops every message. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransactionEvent(context.Context, *amqp.TransactionEvent) error {
	return nil
}

func (NoopPublisher) PublishLimitAlert(context.Context, *amqp.LimitAlert) error {
	return nil
}

// AMQPPublisher routes messages to the broker's export and alert queues.
type AMQPPublisher struct {
	Client      *amqp.Client
	ExportQueue string
	AlertQueue  string
}

func (p *AMQPPublisher) PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	return p.Client.Publish(ctx, p.ExportQueue, event)
}

func (p *AMQPPublisher) PublishLimitAlert(ctx context.Context, alert *amqp.LimitAlert) error {
	return p.Client.Publish(ctx, p.AlertQueue, alert)
}
