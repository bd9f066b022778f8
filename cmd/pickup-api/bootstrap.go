package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/PickupDesk/config"
	pickupsapi "github.com/BearBump/PickupDesk/internal/api/pickups_api"
	"github.com/BearBump/PickupDesk/internal/broker/kafka"
	"github.com/BearBump/PickupDesk/internal/cache"
	"github.com/BearBump/PickupDesk/internal/cache/rediscache"
	"github.com/BearBump/PickupDesk/internal/integrations/backend"
	"github.com/BearBump/PickupDesk/internal/integrations/backend/fake"
	"github.com/BearBump/PickupDesk/internal/notify"
	"github.com/BearBump/PickupDesk/internal/services/couriers"
	"github.com/BearBump/PickupDesk/internal/services/pickups"
)

// backendSource is what both the HTTP client and the fake backend provide.
type backendSource interface {
	pickups.Source
	couriers.Source
}

type pickupAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    pickupAPIOpts
	svc     *pickups.Service
	api     *pickupsapi.PickupsAPI
	closers []func() error
}

func newBackendSource(cfg *config.Config) backendSource {
	if cfg.Backend.Mode == "fake" || cfg.Backend.BaseURL == "" {
		slog.Info("using in-process fake backend")
		return fake.New()
	}
	return backend.New(cfg.Backend.BaseURL, cfg.Backend.Token)
}

func newExecutor(cfg *config.Config) (pickups.Executor, func() error) {
	if cfg.PickupDesk.ExecutorMode == "kafka" {
		topic := cfg.Kafka.PickupChangedTopicName
		if topic == "" {
			topic = "pickup.changed"
		}
		brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
		p := kafka.NewProducer(brokers, topic)
		return pickups.NewPublishingExecutor(p), p.Close
	}
	delay := time.Duration(cfg.PickupDesk.CommitDelayMillis) * time.Millisecond
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return pickups.SimulatedExecutor{Delay: delay}, nil
}

func mustBootstrapPickupAPI() *pickupAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("config parse failed, %v", err))
	}

	httpAddr := cfg.PickupDesk.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	courierTTL := time.Duration(cfg.PickupDesk.CourierCacheTTLSeconds) * time.Second
	if courierTTL <= 0 {
		courierTTL = 10 * time.Minute
	}
	swaggerPath := cfg.PickupDesk.SwaggerFile
	if swaggerPath == "" {
		swaggerPath = os.Getenv("swaggerPath")
	}

	var closers []func() error

	src := newBackendSource(cfg)
	exec, closeExec := newExecutor(cfg)
	if closeExec != nil {
		closers = append(closers, closeExec)
	}

	var courierCache cache.BytesCache
	var limiter pickupsapi.Limiter
	if cfg.Redis.Host != "" {
		rc := rediscache.New(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.Prefix)
		courierCache = rc
		limiter = rc.Limiter()
		closers = append(closers, rc.Close)
	}

	board := notify.NewBoard()
	svc := pickups.New(src, exec, board)
	dir := couriers.New(src, courierCache, courierTTL)
	api := pickupsapi.New(svc, dir, board)
	if limiter != nil && cfg.PickupDesk.MutationRateLimitPerMinute > 0 {
		api.WithRateLimit(limiter, cfg.PickupDesk.MutationRateLimitPerMinute)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &pickupAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: pickupAPIOpts{
			httpAddr:    httpAddr,
			swaggerPath: swaggerPath,
		},
		svc:     svc,
		api:     api,
		closers: closers,
	}
}

func (a *pickupAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for _, c := range a.closers {
		_ = c()
	}
}

func (a *pickupAPIApp) Run() error {
	return runPickupAPI(a.ctx, a.opts, a.api, a.svc)
}
