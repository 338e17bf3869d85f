package main

import (
	"os"
	"strings"

	"github.com/nimasrn/sms-portal/internal/config"
	gateway "github.com/nimasrn/sms-portal/internal/gateways"
	"github.com/nimasrn/sms-portal/internal/handlers"
	"github.com/nimasrn/sms-portal/internal/repository"
	"github.com/nimasrn/sms-portal/internal/services"
	"github.com/nimasrn/sms-portal/internal/staging"
	xhttp "github.com/nimasrn/sms-portal/pkg/http"
	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/nimasrn/sms-portal/pkg/pg"
	"github.com/nimasrn/sms-portal/pkg/prom"
	"github.com/nimasrn/sms-portal/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	if cfg.LogLevel != "" {
		logger.SetLevel(cfg.LogLevel)
	}
	logger.Info("starting sms portal", "version", version, "commit", commit, "env", cfg.AppEnv)

	readConf := pg.Config{
		User:     cfg.PostgresReadUser,
		Host:     cfg.PostgresReadHost,
		Port:     cfg.PostgresReadPort,
		Password: cfg.PostgresReadPassword,
		Database: cfg.PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     cfg.PostgresWriteUser,
		Host:     cfg.PostgresWriteHost,
		Port:     cfg.PostgresWritePort,
		Password: cfg.PostgresWritePassword,
		Database: cfg.PostgresWriteDatabase,
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, cfg.AppEnv == "dev")
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	health := map[string]handlers.Pinger{"postgres": db}

	var store staging.Store
	switch cfg.StagingBackend {
	case "memory":
		store = staging.NewMemoryStore(cfg.StagingTTL)
	default:
		rdb, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{cfg.RedisAddr},
			ClientName: cfg.AppName,
			DB:         cfg.RedisDatabase,
			Username:   cfg.RedisUsername,
			Password:   cfg.RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		defer redis.Close()
		store = staging.NewRedisStore(rdb, cfg.StagingTTL)
		health["redis"] = rdb
	}
	logger.Info("staging backend ready", "backend", cfg.StagingBackend, "ttl", cfg.StagingTTL)

	if cfg.PromNamespace != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Error("failed creating metrics", "error", err)
			return
		}
		go prom.ListenAndServer(cfg.MetricsAddr, cfg.MetricsURI)
	}

	gw, err := gateway.NewClient(gateway.Config{
		BaseURL:  cfg.GatewayBaseUrl,
		APIKey:   cfg.GatewayApiKey,
		SenderID: cfg.GatewaySenderID,
		Timeout:  cfg.GatewayTimeout,
		MaxConns: cfg.GatewayMaxConns,
	})
	if err != nil {
		logger.Error("failed creating gateway client", "error", err)
		return
	}
	defer gw.Close()

	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)
	logRepo := repository.NewSMSLogRepository(db)

	// services
	bulkService := services.NewBulkSMSService(contactRepo, logRepo, gw, store, services.BulkOptions{
		ChunkSize:       cfg.BulkChunkSize,
		Concurrency:     cfg.BulkConcurrency,
		FreshnessWindow: cfg.StagingTTL,
		SystemMaxLen:    cfg.SystemMessageMaxLen,
	})
	contactService := services.NewContactService(contactRepo)
	notificationService := services.NewNotificationService(userRepo, bulkService, cfg.AppName)

	// transport
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.SessionMiddleware)
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout, handlers.BulkSendPath))

	auth := handlers.NewAuth(userRepo)
	g := s.Router.Group(handlers.APIPrefix)
	handlers.RegisterSMSRoutes(g, handlers.NewSMSHandler(bulkService, logRepo), auth)
	handlers.RegisterContactRoutes(g, handlers.NewContactHandler(contactService), auth)
	handlers.RegisterAdminRoutes(g, handlers.NewAdminHandler(notificationService), auth)
	handlers.RegisterHealthRoutes(s.Router, handlers.NewHealthHandler(health))

	closed := s.CloseOnSignal()
	if err := s.ListenAndServe(cfg.HttpListenAddr); err != nil {
		logger.Error("error in running http-server", "error", err)
		return
	}
	// a bulk send in flight finishes before the process exits
	<-closed
	logger.Info("gateway client stats", "stats", gw.Stats())
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, "--env=") {
			p := strings.TrimPrefix(v, "--env=")
			if _, err := os.Stat(p); err != nil {
				logger.Error("failed to open the passed env file", "path", p, "error", err)
				return ""
			}
			return p
		}
	}
	return ""
}
