package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event actions carried on the export queue.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is a lightweight notification that a transaction
// changed. It carries only identifiers; the worker fetches the full row
// from the database so a stale queue never exports stale data.
type TransactionEvent struct {
	Action        string    `json:"action"`
	TransactionID uuid.UUID `json:"transactionId"`
	UserID        uuid.UUID `json:"userId"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(action string, transactionID, userID uuid.UUID) *TransactionEvent {
	return &TransactionEvent{
		Action:        action,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// LimitAlert is published when an expense pushes a user's daily spend
// past a threshold of their configured limit.
type LimitAlert struct {
	UserID     uuid.UUID `json:"userId"`
	SpentToday string    `json:"spentToday"`
	Limit      string    `json:"limit"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

func (m *LimitAlert) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LimitAlertFromJSON(data []byte) (*LimitAlert, error) {
	var msg LimitAlert
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
