package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caseportal/internal/portal/config"
	"caseportal/internal/portal/guard"
	"caseportal/internal/portal/handler"
	"caseportal/internal/portal/metrics"
	"caseportal/internal/portal/repository"
	"caseportal/internal/portal/router"
	"caseportal/internal/portal/service"
	"caseportal/internal/portal/session"
	"caseportal/internal/portal/util"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// 0. Load Config
	cfg, err := config.LoadConfig()
	util.InitLogger(os.Getenv("LOG_LEVEL"))
	logger := util.GetLogger()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 1. Init Store
	var (
		cases    repository.CaseRepository
		auditLog repository.AuditRepository
		client   *mongo.Client
	)
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		cases = repository.NewMemoryCaseRepository()
		auditLog = repository.NewMemoryAuditRepository()
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		cancel()
		if err != nil {
			logger.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		db := client.Database(cfg.DBName)
		cases = repository.NewMongoCaseRepository(db, cfg.CasesCollection)
		auditLog = repository.NewMongoAuditRepository(db, cfg.CaseAuditCollection)
	}

	// Ensure Indexes
	if err := cases.EnsureIndexes(context.Background()); err != nil {
		logger.Warn("Failed to ensure case indexes", "error", err)
	}
	if err := auditLog.EnsureAuditIndexes(context.Background()); err != nil {
		logger.Warn("Failed to ensure audit indexes", "error", err)
	}

	// 2. Init Layers
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sessions := session.NewManager(session.NewMemoryStore(), session.NewTokens(cfg.JWTSecret, cfg.SessionTTL))
	g := guard.New(guard.Homes{
		Login:    cfg.LoginPath,
		Citizen:  cfg.CitizenHomePath,
		Officer:  cfg.OfficerHomePath,
		Chairman: cfg.ChairmanHomePath,
	}, guard.Policy{
		ChairmanSuperuser:     cfg.ChairmanSuperuser,
		DefaultEmptyToCitizen: cfg.DefaultEmptyToCitizen,
	})

	svc := service.NewService(cases, auditLog, sessions, g, m)
	h := handler.NewPortalHandler(svc)

	// 3. Init Echo & Routes
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	router.RegisterRoutes(e, h, reg, cfg.AuthFlowSecret)

	// 4. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("shutting down the server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server Shutdown Failed", "error", err)
	}

	// Pending audit writes go to the store before it closes
	svc.WaitAudits()

	if client != nil {
		if err := client.Disconnect(ctx); err != nil {
			logger.Error("Failed to disconnect DB", "error", err)
		}
	}

	logger.Info("Server exited properly")
}
