// Package database открывает подключение к PostgreSQL и применяет миграции.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"meetspace_backend/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Connect открывает GORM поверх pgx и проверяет соединение.
// TranslateError превращает нарушения уникальности и внешних ключей
// в gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func Connect(ctx context.Context, dsn string, debug bool) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	return db, nil
}

// Migrate выполняет команду goose (up, down, status, version, reset)
// над встроенными миграциями.
func Migrate(ctx context.Context, dsn, command string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	return migrateDB(ctx, sqlDB, command)
}

func migrateDB(ctx context.Context, sqlDB *sql.DB, command string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	started := time.Now()
	if err := goose.RunContext(ctx, command, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	logger.Info("Migrations finished", "command", command, "duration", time.Since(started))
	return nil
}

// Up применяет все новые миграции.
func Up(ctx context.Context, dsn string) error {
	return Migrate(ctx, dsn, "up")
}
