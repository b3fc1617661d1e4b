package main

import (
	"log"
	"os"
	"path/filepath"

	"verify-bot/bot"
	"verify-bot/config"
	"verify-bot/handlers"
	"verify-bot/model"
	"verify-bot/storage"
)

func main() {
	cfg := config.Load()
	if err := os.MkdirAll(cfg.DataDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	store, err := storage.Open(filepath.Join(cfg.DataDir, "settings.db"), model.DefaultSettings(cfg.ProcessDelayMs))
	if err != nil {
		log.Fatalf("Error opening settings store: %v", err)
	}
	defer store.Close()

	b, err := bot.New(cfg, store)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}

	handlers.Register(b)

	b.Run()

	defer b.Close()
}
