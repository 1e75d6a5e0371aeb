package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"imagegen/internal/config"
	"imagegen/internal/db"
	"imagegen/internal/logging"
	"imagegen/internal/services"
	"imagegen/internal/store"
	"imagegen/internal/websocket"
)

type seedUser struct {
	id      string
	email   string
	credits int64
}

var seedUsers = []seedUser{
	{"testuser1", "testuser1@example.com", 100},
	{"testuser2", "testuser2@example.com", 50},
	{"testuser3", "testuser3@example.com", 10},
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	transactions := store.NewTransactionStore(database)
	credits := services.NewCreditService(db.NewTxRunner(database), users, transactions, websocket.NewHub(), cfg.InitialCredits, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, seed := range seedUsers {
		if _, err := users.GetByID(ctx, seed.id); err == nil {
			log.Infof("user %s already exists, skipping", seed.id)
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			log.Fatalf("failed to check user %s: %v", seed.id, err)
		}
		email := seed.email
		user, err := credits.CreateAccount(ctx, seed.id, &email, seed.credits)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", seed.id, err)
		}
		log.Infof("seeded %s with %d credits", user.ID, user.Credits)
	}
}
