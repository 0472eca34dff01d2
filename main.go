package main

import (
	"log"
	"os"

	"github.com/example/flashdeck/internal/cli"
	"github.com/example/flashdeck/internal/database"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for DB_TYPE / DATABASE_URL / FLASHDECK_DATA_DIR.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	app := cli.NewApp()
	if err := app.Run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
