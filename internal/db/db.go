package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"farm-to-keells/internal/config"
	"farm-to-keells/internal/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	applicationName = "farm-to-keells"
	pingTimeout     = 5 * time.Second
)

func buildDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s application_name=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslMode, applicationName,
	)
}

// DSN is the connection string for components that hold their own
// connection, such as the change-feed listener.
func DSN(cfg *config.Config) string {
	return buildDSN(cfg)
}

func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	return newDatabaseWithDriver(cfg, "postgres")
}

func newDatabaseWithDriver(cfg *config.Config, driver string) (*sql.DB, error) {
	db, err := sql.Open(driver, buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	// The listener holds one more connection outside this pool.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

// InitDB opens the pool or exits the process.
func InitDB(cfg *config.Config) *sql.DB {
	db, err := NewDatabase(cfg)
	if err != nil {
		logger.L().Fatal("database unavailable", zap.String("host", cfg.DBHost), zap.Error(err))
	}

	logger.L().Info("database connection established", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return db
}
