package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DefaultCategory is assigned when a transaction arrives without one.
const DefaultCategory = "Uncategorized"

// MaxDescriptionLength caps transaction descriptions.
const MaxDescriptionLength = 300

type (
	TransactionType string

	// User is an account holder. The PIN is stored only as a bcrypt hash.
	User struct {
		ID             uuid.UUID
		Username       string
		PINHash        string
		FirstName      string
		LastName       string
		InitialBalance decimal.Decimal
		DailyLimit     decimal.Decimal
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	// Transaction is a single money movement belonging to one user.
	Transaction struct {
		ID          uuid.UUID
		UserID      uuid.UUID
		Type        TransactionType
		Category    string
		Amount      decimal.Decimal
		Date        time.Time
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrUsernameLength     = errors.New("username must be 8-12 characters")
	ErrInvalidPIN         = errors.New("pin must be 4-6 digits")
	ErrNameRequired       = errors.New("first and last name are required")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidType        = errors.New("transaction type must be income or expense")
	ErrDescriptionTooLong = errors.New("description too long (max 300 characters)")
	ErrMissingUser        = errors.New("valid user id required")
)

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

// NormalizeUsername applies the canonical form: trimmed and lowercased.
// Usernames are case-insensitive everywhere.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername checks the 8-12 character constraint on the normalized
// form. Length is counted in characters, not bytes.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(NormalizeUsername(username))
	if n < 8 || n > 12 {
		return ErrUsernameLength
	}
	return nil
}

// ValidatePIN checks the raw (unhashed) PIN format.
func ValidatePIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return ErrInvalidPIN
	}
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Normalize fills defaults: empty category becomes DefaultCategory and a zero
// date becomes now. Call before Validate on inbound data.
func (t *Transaction) Normalize(now time.Time) {
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.Date.IsZero() {
		t.Date = now
	}
}

func (t Transaction) Validate() error {
	if t.UserID == uuid.Nil {
		return ErrMissingUser
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
