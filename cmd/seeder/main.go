package main

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	// Connect directly to the primary database
	dbURL := fmt.Sprintf("%s?authToken=%s", cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		log.Fatalf("Failed to open primary database: %s", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to primary database: %s", err)
	}

	log.Info("Successfully connected to the primary database.")

	// Create dummy users on the leaderboard to predict with
	users := []struct {
		ID   string
		Name string
	}{
		{"user-1", "Seeder User A"},
		{"user-2", "Seeder User B"},
		{"user-3", "Seeder User C"},
		{"user-4", "Seeder User D"},
	}

	for _, u := range users {
		_, err := db.Exec(`
			INSERT OR IGNORE INTO standings (user_id, username, points, exact_draws, exact_scores, goal_diffs, correct_winners)
			VALUES (?, ?, 0, 0, 0, 0, 0)`, u.ID, u.Name)
		if err != nil {
			log.Fatalf("Failed to insert dummy user %s: %s", u.Name, err)
		}
	}
	log.Info("Ensured dummy users exist.")

	teams := []string{"FCK", "BIF", "AGF", "FCM", "AaB", "OB", "RFC", "VFF"}

	const batchSize = 100
	const numMatches = 1000

	log.Info("Preparing to insert dummy matches...", "total", numMatches, "batch_size", batchSize)
	startTime := time.Now()

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %s", err)
	}

	now := time.Now()
	for i := 0; i < numMatches; i++ {
		matchID := uuid.New().String()
		home := teams[rand.Intn(len(teams))]
		away := teams[rand.Intn(len(teams))]
		for away == home {
			away = teams[rand.Intn(len(teams))]
		}
		kickoff := now.Add(time.Duration(rand.Intn(90*24)) * time.Hour)

		_, err := tx.Exec(`
			INSERT INTO matches (id, home_team, away_team, kickoff_at, league, status, created_at)
			VALUES (?, ?, ?, ?, 'Superligaen', 'scheduled', ?)`,
			matchID, home, away, kickoff.Unix(), now.Unix(),
		)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert dummy match: %s", err)
		}

		// Roughly half the users predict each match
		for _, u := range users {
			if rand.Intn(2) == 0 {
				continue
			}
			_, err := tx.Exec(`
				INSERT INTO predictions (id, user_id, match_id, home_goals, away_goals, seq, updated_at)
				VALUES (?, ?, ?, ?, ?, 1, ?)`,
				uuid.New().String(), u.ID, matchID, rand.Intn(5), rand.Intn(5), now.Unix(),
			)
			if err != nil {
				tx.Rollback()
				log.Fatalf("Failed to insert dummy prediction: %s", err)
			}
		}

		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				log.Fatalf("Failed to commit batch: %s", err)
			}
			log.Info("Inserted batch", "matches", i+1)
			tx, err = db.Begin()
			if err != nil {
				log.Fatalf("Failed to begin transaction: %s", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit final batch: %s", err)
	}

	log.Info("Seeding complete.", "matches", numMatches, "duration", time.Since(startTime))
}
