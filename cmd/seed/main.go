// Command seed resets the database and fills it with a demo account plus
// three months of plausible daily activity.
package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dennis-XXII/expense-tracker/internal/config"
	"github.com/Dennis-XXII/expense-tracker/internal/core"
	"github.com/Dennis-XXII/expense-tracker/internal/log"
	"github.com/Dennis-XXII/expense-tracker/internal/storage"
)

const (
	seedUsername = "dennis123"
	seedPIN      = "1234"
)

var foodDescriptions = []string{"Lunch", "Dinner", "Groceries", "Coffee", "Snacks"}

var shoppingDescriptions = []string{"7-Eleven", "Online Shopping", "Cinema", "Subscription", "Gadget"}

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentApp,
	})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	// Flush: start from an empty database file.
	if err := os.Remove(cfg.SQLiteDBPath); err != nil && !os.IsNotExist(err) {
		logger.Error("Failed to remove existing database", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPIN), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash PIN", log.FieldError, err)
		os.Exit(1)
	}

	user, err := repo.CreateUser(ctx, core.User{
		ID:             uuid.New(),
		Username:       core.NormalizeUsername(seedUsername),
		PINHash:        string(hash),
		FirstName:      "Dennis",
		LastName:       "Swar",
		InitialBalance: decimal.NewFromInt(50000),
		DailyLimit:     decimal.NewFromInt(2000),
	})
	if err != nil {
		logger.Error("Failed to create demo user", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Demo user created", log.FieldUsername, user.Username)

	loc := cfg.Location()
	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month()-3, 1, 12, 0, 0, 0, loc)

	count := 0
	for d := start; !d.After(now); d = d.AddDate(0, 0, 1) {
		for _, t := range transactionsForDay(user.ID, d) {
			if _, err := repo.CreateTransaction(ctx, t); err != nil {
				logger.Error("Failed to insert transaction", log.FieldError, err)
				os.Exit(1)
			}
			count++
		}
	}

	logger.Info("Seed complete",
		"transactions", count,
		log.FieldUsername, seedUsername,
		"pin", seedPIN)
}

// transactionsForDay generates the demo activity for one calendar day:
// rent and utilities on the 1st, salary on the 28th, then randomized food,
// commute, freelance and shopping entries.
func transactionsForDay(userID uuid.UUID, day time.Time) []core.Transaction {
	var out []core.Transaction

	add := func(typ core.TransactionType, category string, amount int64, description string) {
		out = append(out, core.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Type:        typ,
			Category:    category,
			Amount:      decimal.NewFromInt(amount),
			Date:        day,
			Description: description,
		})
	}

	if day.Day() == 1 {
		add(core.Expense, "Housing", 6000, "Monthly Rent Payment")
		add(core.Expense, "Utilities", randomAmount(1200, 1500), "Electric & Water Bill")
	}
	if day.Day() == 28 {
		add(core.Income, "Salary", 20000, "Monthly Salary (Main Job)")
	}

	// Freelance income lands roughly once a week.
	if rand.Float64() < 0.15 {
		add(core.Income, "Freelance", randomAmount(1500, 5000), "Freelance Project Payment")
	}

	if rand.Float64() < 0.9 {
		desc := foodDescriptions[rand.Intn(len(foodDescriptions))]
		add(core.Expense, "Food", randomAmount(80, 350), desc)
	}

	if wd := day.Weekday(); wd >= time.Monday && wd <= time.Friday && rand.Float64() < 0.8 {
		add(core.Expense, "Transport", randomAmount(45, 150), "BTS/Taxi Commute")
	}

	if rand.Float64() < 0.2 {
		desc := shoppingDescriptions[rand.Intn(len(shoppingDescriptions))]
		add(core.Expense, "Shopping", randomAmount(200, 1200), desc)
	}

	return out
}

func randomAmount(min, max int64) int64 {
	return min + rand.Int63n(max-min+1)
}
