// Command console is the farmer's terminal client.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"farm-to-keells/internal/config"
	"farm-to-keells/internal/console"
	"farm-to-keells/internal/db"
	"farm-to-keells/internal/farmer"
	"farm-to-keells/internal/logger"
	"farm-to-keells/internal/notification"
	"farm-to-keells/internal/realtime"
	"farm-to-keells/internal/session"
	"farm-to-keells/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "console:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()

	if err := logger.InitFile(cfg.AppEnv, cfg.ConsoleLogFile); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logger.Sync()
	l := logger.L()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	farmerSvc := farmer.NewService(
		farmer.NewRepository(database),
		storage.NewBucket(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket),
	)
	notificationSvc := notification.NewService(notification.NewRepository(database), farmerSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub(0)
	defer hub.Close()
	go func() {
		if err := realtime.NewListener(db.DSN(cfg), hub).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.Error("change feed stopped", zap.Error(err))
		}
	}()

	sess := session.New(session.NewFileStorage(cfg.SessionFile), farmerSvc)
	if sess.Hydrate(ctx) {
		l.Info("restored saved session")
	}

	app := console.New(console.Deps{
		Auth:          farmerSvc,
		Notifications: notificationSvc,
		Live:          hub,
		Session:       sess,
	})
	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}
