package main

import (
	"log"

	"masterboxer.com/social-posts/config"
	"masterboxer.com/social-posts/database"
)

func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Migrate: DB connection failed: ", err)
	}
	defer db.Close()

	log.Println("Running database migrations")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate: ", err)
	}
	log.Println("Migrations finished")
}
