// Команда migrate применяет встроенные миграции goose:
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate status
package main

import (
	"context"
	"os"

	"meetspace_backend/internal/config"
	"meetspace_backend/internal/database"
	"meetspace_backend/internal/logger"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	config.LoadConfig()
	logger.Init(config.AppConfig.Server.Env)

	if err := database.Migrate(context.Background(), config.AppConfig.Database.DSN, command); err != nil {
		logger.Fatal("Migration failed", "command", command, "error", err)
	}
}
