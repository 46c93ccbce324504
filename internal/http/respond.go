package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Dennis-XXII/expense-tracker/internal/core"
)

type messageResponse struct {
	Message string `json:"message"`
}

// userResponse is the public user shape. The PIN hash never leaves the
// server. Field names match the API's historical JSON contract.
type userResponse struct {
	ID                 uuid.UUID       `json:"_id"`
	Username           string          `json:"username"`
	FirstName          string          `json:"firstName"`
	LastName           string          `json:"lastName"`
	InitialBalance     decimal.Decimal `json:"initialBalance"`
	DailySpendingLimit decimal.Decimal `json:"dailySpendingLimit"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Username:           u.Username,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		InitialBalance:     u.InitialBalance,
		DailySpendingLimit: u.DailyLimit,
	}
}

type transactionResponse struct {
	ID          uuid.UUID       `json:"_id"`
	User        uuid.UUID       `json:"user"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		User:        t.UserID,
		Type:        string(t.Type),
		Category:    t.Category,
		Amount:      t.Amount,
		Date:        t.Date,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTransactionResponses(transactions []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// clientIP extracts the originating address, preferring the first
// X-Forwarded-For hop when behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
