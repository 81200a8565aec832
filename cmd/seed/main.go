// Command main runs the database seeder for Gatherly.
package main

import (
	"flag"
	"log"

	"gatherly/internal/config"
	"gatherly/internal/database"
	"gatherly/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 12, "Number of users to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("fast", false, "Skip password hashing for faster reseeds")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *skipBcrypt,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("📧 All seeded users have the password: password123")
}
