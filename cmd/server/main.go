package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farm-to-keells/internal/analytics"
	"farm-to-keells/internal/auth"
	"farm-to-keells/internal/config"
	"farm-to-keells/internal/db"
	"farm-to-keells/internal/farmer"
	"farm-to-keells/internal/handler"
	"farm-to-keells/internal/jobs"
	"farm-to-keells/internal/logger"
	"farm-to-keells/internal/mailer"
	"farm-to-keells/internal/metrics"
	"farm-to-keells/internal/middleware"
	"farm-to-keells/internal/notification"
	"farm-to-keells/internal/order"
	"farm-to-keells/internal/payment"
	"farm-to-keells/internal/product"
	"farm-to-keells/internal/realtime"
	"farm-to-keells/internal/storage"

	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var (
	initDBFunc = db.InitDB

	startServerFunc = func(ctx context.Context, addr string, h http.Handler) error {
		srv := &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}

	startListenerFunc = func(ctx context.Context, dsn string, hub *realtime.Hub) error {
		return realtime.NewListener(dsn, hub).Run(ctx)
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

// server is the wired application: the HTTP router plus the pieces that run
// beside it.
type server struct {
	router  http.Handler
	hub     *realtime.Hub
	limiter *middleware.RateLimiter
	orders  order.Service
}

func newServer(cfg *config.Config, database *sql.DB) *server {
	hub := realtime.NewHub(0)
	metrics.Default.Register("realtime_events_delivered", &hub.Delivered)
	metrics.Default.Register("realtime_events_dropped", &hub.Dropped)

	farmerSvc := farmer.NewService(
		farmer.NewRepository(database),
		storage.NewBucket(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket),
	)
	notificationSvc := notification.NewService(notification.NewRepository(database), farmerSvc)
	orderSvc := order.NewService(order.NewRepository(database), notificationSvc)

	h := &handler.Handler{
		FarmerSvc:       farmerSvc,
		ProductSvc:      product.NewService(product.NewRepository(database)),
		OrderSvc:        orderSvc,
		NotificationSvc: notificationSvc,
		PaymentSvc:      payment.NewService(payment.NewGateway(cfg.PaymentBaseURL), farmerSvc, notificationSvc),
		Mailer: mailer.New(mailer.Config{
			APIURL:      cfg.EmailAPIURL,
			ServiceID:   cfg.EmailServiceID,
			TemplateID:  cfg.EmailTemplateID,
			PublicKey:   cfg.EmailPublicKey,
			AccessToken: cfg.EmailAccessToken,
		}),
		Analytics: analytics.NewClient(cfg.AnalyticsURL),
		Admin:     auth.Admin{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash},
	}

	limiter := middleware.NewRateLimiter()
	return &server{
		router:  setupRouter(h, realtime.NewWSHandler(hub, cfg.AllowedOrigins), limiter, cfg.AllowedOrigins),
		hub:     hub,
		limiter: limiter,
		orders:  orderSvc,
	}
}

// setupRouter runs request id, access log, CORS, auth and rate limiting, in
// that order, ahead of the routes.
func setupRouter(h *handler.Handler, ws http.Handler, limiter *middleware.RateLimiter, origins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /ws/notifications", ws)
	mux.Handle("GET /metrics", middleware.RequireRole(auth.RoleAdmin)(metrics.Default.Handler()))
	h.Register(mux)

	var root http.Handler = mux
	root = limiter.Middleware(root)
	root = middleware.AuthMiddleware(root)
	root = middleware.CORSWithOrigins(origins)(root)
	root = logger.LoggingMiddleware(root)
	root = logger.RequestIDMiddleware(root)
	return root
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, token issuing will fail")
	}

	database := initDBFunc(cfg)
	defer database.Close()

	srv := newServer(cfg, database)
	defer srv.hub.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := startListenerFunc(ctx, db.DSN(cfg), srv.hub); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("change feed stopped", zap.Error(err))
		}
	}()

	go srv.limiter.Run(ctx)

	scheduler := jobs.NewScheduler()
	if err := scheduler.AddReconcile(cfg.ReconcileSchedule, srv.orders); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	log.Info("server listening", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, ":"+cfg.AppPort, srv.router)
}
