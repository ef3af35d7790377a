package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/clock"
	"github.com/juju/loggo"

	"access-console/internal/auth"
	"access-console/internal/cache"
	"access-console/internal/config"
	"access-console/internal/database"
	"access-console/internal/db"
	"access-console/internal/events"
	"access-console/internal/handlers"
	"access-console/internal/health"
	h "access-console/internal/http"
	"access-console/internal/middleware"
	"access-console/internal/repositories"
	"access-console/internal/services"
	"access-console/internal/session"
	"access-console/internal/storage"
	"access-console/internal/upstream"
	"access-console/migrations"
)

var logger = loggo.GetLogger("console")

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := loggo.ConfigureLoggers(cfg.Logging.Config); err != nil {
		logger.Warningf("[Config] Invalid logging config %q: %v", cfg.Logging.Config, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := map[string]health.Pinger{"redis": nil, "database": nil}

	// Sessions live in Redis when it is reachable, otherwise in memory
	var store session.Store
	if cfg.Redis.Enabled {
		if err := cache.Init(cfg); err != nil {
			logger.Warningf("[Redis] Unavailable at %s: %v (sessions kept in memory)", cfg.RedisAddr(), err)
		} else {
			logger.Infof("[Redis] Connected to %s", cfg.RedisAddr())
			store = session.NewRedisStore(cache.GetClient(), cfg.SessionTTL())
			deps["redis"] = health.PingFunc(cache.Ping)
		}
	}
	if store == nil {
		store = session.NewMemoryStore(clock.WallClock, cfg.SessionTTL())
	}
	defer cache.Close()

	// The audit log is persisted only with a database
	var auditRepo *repositories.AuditLogRepository
	if cfg.Database.Enabled {
		pool, err := connectDatabase(ctx, cfg)
		if err != nil {
			logger.Criticalf("[DB] %v", err)
			os.Exit(1)
		}
		defer pool.Close()
		auditRepo = repositories.NewAuditLogRepository(pool)
		deps["database"] = health.PingFunc(pool.Ping)
	} else {
		logger.Infof("[DB] Disabled, audit entries go to the log only")
	}

	var uploader services.Uploader
	if cfg.Reports.Enabled() {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.Reports)
		if err != nil {
			logger.Errorf("[Reports] Export disabled: %v", err)
		} else {
			uploader = s3Uploader
		}
	}

	jwtManager := auth.NewJWTManager(cfg)
	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.UpstreamTimeout())
	hub := events.NewHub()

	// Initialize services
	auditService := services.NewAuditService(auditRepo)
	sessionService := services.NewSessionService(store, jwtManager)
	connectionService := services.NewConnectionService(client, store, hub)
	roleService := services.NewRoleService(client)
	shareAccessService := services.NewShareAccessService(client, store, connectionService, auditService)
	accessService := services.NewAccessService(client, store, connectionService, roleService, auditService)
	groupService := services.NewGroupService(client, store, connectionService, auditService)
	bankDetailsService := services.NewBankDetailsService(client, auditService)
	reportService := services.NewReportService(connectionService, accessService, uploader, auditService)

	router := h.NewRouter(cfg, h.Handlers{
		Session:     handlers.NewSessionHandler(sessionService, connectionService),
		Dashboard:   handlers.NewDashboardHandler(),
		Connection:  handlers.NewConnectionHandler(connectionService),
		Role:        handlers.NewRoleHandler(roleService),
		ShareAccess: handlers.NewShareAccessHandler(shareAccessService),
		Access:      handlers.NewAccessHandler(accessService),
		Group:       handlers.NewGroupHandler(groupService),
		BankDetails: handlers.NewBankDetailsHandler(bankDetailsService),
		Report:      handlers.NewReportHandler(reportService),
		AuditLog:    handlers.NewAuditLogHandler(auditService),
		Websocket:   handlers.NewWebsocketHandler(connectionService, hub, clock.WallClock, cfg.Server.CorsAllowedOrigins),
		Health:      handlers.NewHealthHandler(health.NewHealthChecker(deps)),
	}, middleware.NewAuthMiddleware(jwtManager, store))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Infof("[Server] Listening on %s (upstream %s)", srv.Addr, cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Criticalf("[Server] %v", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Infof("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("[Server] Shutdown: %v", err)
	}
}

// connectDatabase opens the pool and applies the embedded migrations.
func connectDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Infof("[DB] Connected to %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.NewMigrator(pool, migrations.FS).RunMigrations(migrateCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
