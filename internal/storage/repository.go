// Package storage persists users and transactions in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Dennis-XXII/expense-tracker/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
)

// Repository is the SQLite-backed transaction store. Amounts are stored as
// decimal strings; balance is always derived at read time, never stored,
// so a single-row write is the only atomicity the schema needs.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts a new user. Username uniqueness is enforced by the
// schema; a violation surfaces as ErrDuplicateUsername.
func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, pin_hash, first_name, last_name, initial_balance, daily_limit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Username, u.PINHash, u.FirstName, u.LastName,
		u.InitialBalance.String(), u.DailyLimit.String(), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, ErrDuplicateUsername
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, pin_hash, first_name, last_name, initial_balance, daily_limit, created_at, updated_at
		FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

// GetUserByUsername looks a user up by the normalized username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, pin_hash, first_name, last_name, initial_balance, daily_limit, created_at, updated_at
		FROM users WHERE username = ?`, core.NormalizeUsername(username))
	return scanUser(row)
}

// UserUpdate carries the optional profile fields of a partial update. Nil
// means "leave unchanged"; the PIN and username are never updatable here.
type UserUpdate struct {
	FirstName      *string
	LastName       *string
	InitialBalance *decimal.Decimal
	DailyLimit     *decimal.Decimal
}

// UpdateUser applies a partial profile update and returns the stored user.
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, upd UserUpdate) (core.User, error) {
	u, err := r.GetUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}

	if upd.FirstName != nil {
		u.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		u.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.InitialBalance != nil {
		u.InitialBalance = *upd.InitialBalance
	}
	if upd.DailyLimit != nil {
		u.DailyLimit = *upd.DailyLimit
	}
	u.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		UPDATE users SET first_name = ?, last_name = ?, initial_balance = ?, daily_limit = ?, updated_at = ?
		WHERE id = ?`,
		u.FirstName, u.LastName, u.InitialBalance.String(), u.DailyLimit.String(), u.UpdatedAt, id.String(),
	)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// CreateTransaction inserts a transaction. The caller is responsible for
// Normalize/Validate; the store only persists.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, category, amount, date, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.UserID.String(), string(t.Type), t.Category,
		t.Amount.String(), t.Date.UTC(), t.Description, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"category", t.Category,
		"amount", t.Amount.String())
	return t, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, category, amount, date, description, created_at, updated_at
		FROM transactions WHERE id = ?`, id.String())
	return scanTransaction(row)
}

// ListByUser returns the user's full history sorted by date descending.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, category, amount, date, description, created_at, updated_at
		FROM transactions WHERE user_id = ? ORDER BY date DESC`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// UpdateTransaction replaces all mutable fields of an existing transaction.
func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, category = ?, amount = ?, date = ?, description = ?, exported_at = NULL, updated_at = ?
		WHERE id = ?`,
		string(t.Type), t.Category, t.Amount.String(), t.Date.UTC(), t.Description, t.UpdatedAt, t.ID.String(),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return r.GetTransaction(ctx, t.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// ListUnexported returns transactions not yet mirrored to the spreadsheet
// ledger, oldest first. Used by the export worker's backup sweep.
func (r *Repository) ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, category, amount, date, description, created_at, updated_at
		FROM transactions WHERE exported_at IS NULL ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// MarkExported records a successful spreadsheet append.
func (r *Repository) MarkExported(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported_at = ? WHERE id = ?`, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (core.User, error) {
	var (
		u                core.User
		id, balance, lim string
	)
	err := row.Scan(&id, &u.Username, &u.PINHash, &u.FirstName, &u.LastName, &balance, &lim, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return core.User{}, fmt.Errorf("parse user id: %w", err)
	}
	if u.InitialBalance, err = decimal.NewFromString(balance); err != nil {
		return core.User{}, fmt.Errorf("parse initial balance: %w", err)
	}
	if u.DailyLimit, err = decimal.NewFromString(lim); err != nil {
		return core.User{}, fmt.Errorf("parse daily limit: %w", err)
	}
	return u, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                    core.Transaction
		id, userID, typ, amt string
	)
	err := row.Scan(&id, &userID, &typ, &t.Category, &amt, &t.Date, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if t.ID, err = uuid.Parse(id); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction user id: %w", err)
	}
	if t.Amount, err = decimal.NewFromString(amt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	t.Type = core.TransactionType(typ)
	return t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
