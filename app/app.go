package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"labdesk/activity"
	"labdesk/config"
	"labdesk/db"
	"labdesk/lending"
	"labdesk/lock"
	"labdesk/metrics"
	"labdesk/report"
	"labdesk/scheduling"
	"labdesk/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Short aliases for handlers.
type Ctx = gin.Context
type H = gin.H

// App holds every dependency the handlers need.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config config.Config
	Logger *slog.Logger

	Repo       *db.Repo
	Sessions   *session.AppSessionStore
	Tokens     *session.Issuer
	Activity   *activity.Log
	Lending    *lending.Manager
	Scheduling *scheduling.Manager
	Reporter   *report.Reporter

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// New connects to the database and Redis and assembles the application.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	return Assemble(cfg, logger, conn, rdb), nil
}

// Assemble wires the application around already opened connections.
func Assemble(cfg config.Config, logger *slog.Logger, conn *gorm.DB, rdb *redis.Client) *App {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.LockBackend == config.LockRedis {
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL)
	}

	repo := db.NewRepo(conn)
	act := activity.New(repo, logger, m)
	sessions := session.NewAppSessionStore(rdb, cfg.SessionTTL)

	r := gin.New()
	r.Use(gin.Recovery(), AccessLog(logger, m))
	useCORS(r, cfg.WebOrigins)

	return &App{
		Router:     r,
		DB:         conn,
		RDB:        rdb,
		Config:     cfg,
		Logger:     logger,
		Repo:       repo,
		Sessions:   sessions,
		Tokens:     session.NewIssuer(cfg.JWTSecret, sessions),
		Activity:   act,
		Lending:    lending.NewManager(repo, act, cfg.Lending, lending.WithLocker(locker), lending.WithMetrics(m)),
		Scheduling: scheduling.NewManager(repo, act, cfg.Scheduling, scheduling.WithLocker(locker), scheduling.WithMetrics(m)),
		Reporter:   report.New(repo),
		Registry:   reg,
		Metrics:    m,
	}
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
