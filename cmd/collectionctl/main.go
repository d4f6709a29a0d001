package main

import (
	"log"
	"os"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/segyhp/collection-engine/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	if err := logger.Setup(logger.DefaultConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
