package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/paystell/paystell-daemon/internal/config"
	"github.com/paystell/paystell-daemon/internal/core/application"
	"github.com/paystell/paystell-daemon/internal/core/application/optimistic"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	"github.com/paystell/paystell-daemon/internal/infrastructure/network/horizon"
	"github.com/paystell/paystell-daemon/internal/infrastructure/pubsub"
	httpinterface "github.com/paystell/paystell-daemon/internal/interfaces/http"
	"github.com/paystell/paystell-daemon/pkg/realtime"
	"github.com/paystell/paystell-daemon/pkg/replayguard"
	"github.com/paystell/paystell-daemon/pkg/scheduler"
	"github.com/paystell/paystell-daemon/pkg/stats"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const replayKeyPrefix = "paystell:replay"

var channelStates = []string{
	string(realtime.StateDisconnected),
	string(realtime.StateConnecting),
	string(realtime.StateConnected),
	string(realtime.StateReconnecting),
	string(realtime.StateOffline),
}

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	var (
		datadir         = config.GetDatadir()
		dbType          = config.GetString(config.DBTypeKey)
		address         = fmt.Sprintf(":%d", config.GetInt(config.ListeningPortKey))
		statsInterval   = time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		profilerEnabled = config.GetBool(config.EnableProfilerKey)
	)

	sched := scheduler.New()

	replayStore, closeReplayStore, err := newReplayStore()
	if err != nil {
		log.WithError(err).Fatal("error while setting up replay store")
	}
	defer closeReplayStore()

	pubsubSvc, err := newPubSub(dbType)
	if err != nil {
		log.WithError(err).Fatal("error while setting up webhooks")
	}

	networkSvc, err := horizon.NewService(horizon.Config{
		URL:            config.GetString(config.HorizonURLKey),
		RequestTimeout: config.GetDuration(config.HorizonRequestTimeoutKey),
		RateLimit:      config.GetFloat(config.HorizonRateLimitKey),
		RateBurst:      config.GetInt(config.HorizonRateBurstKey),
	})
	if err != nil {
		log.WithError(err).Fatal("error while setting up horizon client")
	}

	appConfig := &application.Config{
		DBType:      dbType,
		DBConfig:    config.GetDbDatadir(),
		PubSub:      pubsubSvc,
		Network:     networkSvc,
		ReplayStore: replayStore,
		Scheduler:   sched,
		DepositTTL:  config.GetDuration(config.DepositTTLKey),
		Queue: optimistic.Config{
			Timeout:         config.GetDuration(config.OptimisticTxTimeoutKey),
			Retention:       config.GetDuration(config.OptimisticTxRetentionKey),
			ReconcileWindow: config.GetDuration(config.ReconcileWindowKey),
		},
		Monitor: application.MonitorConfig{
			SweepInterval: config.GetDuration(config.SweepIntervalKey),
			PollInterval:  config.GetDuration(config.PollIntervalKey),
		},
	}

	var channel *realtime.Channel
	if realtimeURL := config.GetString(config.RealtimeURLKey); realtimeURL != "" {
		channel, err = realtime.New(realtime.Config{
			URL:                  realtimeURL,
			PingInterval:         config.GetDuration(config.PingIntervalKey),
			ReconnectBaseDelay:   config.GetDuration(config.ReconnectBaseDelayKey),
			MaxReconnectAttempts: config.GetInt(config.MaxReconnectAttemptsKey),
			Scheduler:            sched,
		})
		if err != nil {
			log.WithError(err).Fatal("error while setting up realtime channel")
		}
		appConfig.Channel = channel
	} else {
		log.Warn("realtime url not set, relying on network polling only")
	}

	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid app config")
	}
	defer appConfig.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := appConfig.TransactionMonitor().Start(ctx); err != nil {
		log.WithError(err).Fatal("error while starting transaction monitor")
	}

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address: address,
		RouterOpts: httpinterface.RouterOpts{
			DepositSvc:     appConfig.DepositService(),
			MonitoringSvc:  appConfig.MonitoringService(),
			TransactionSvc: appConfig.TransactionService(),
			Monitor:        appConfig.TransactionMonitor(),
			PubSubSvc:      appConfig.PubSubService(),
			AllowedOrigins: config.GetStringSlice(config.CorsAllowedOriginsKey),
			EnableProfiler: profilerEnabled,
		},
	})
	if err != nil {
		log.WithError(err).Fatal("error while setting up http interface")
	}

	var probes []stats.Probe
	if channel != nil {
		probes = append(probes, func() {
			status := channel.Status()
			stats.SetChannelState(
				string(status.State), channelStates, status.ReconnectAttempts,
			)
		})
	}
	var dumpPath string
	if profilerEnabled {
		dumpPath = filepath.Join(config.GetProfilerDatadir(), "metrics")
	}
	stats.EnableMemoryStatistics(ctx, statsInterval, dumpPath, probes...)

	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("error while starting http interface")
	}
	defer svc.Stop()

	log.WithFields(log.Fields{
		"datadir": datadir,
		"db":      dbType,
		"horizon": config.GetString(config.HorizonURLKey),
	}).Info("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")
}

func newReplayStore() (replayguard.Store, func(), error) {
	capacity := config.GetInt(config.ReplayCacheSizeKey)

	if config.GetString(config.ReplayStoreTypeKey) == application.ReplayStoreRedis {
		client := redis.NewClient(&redis.Options{
			Addr: config.GetString(config.RedisAddrKey),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}

		store, err := replayguard.NewRedisStore(client, replayKeyPrefix, capacity)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, func() { client.Close() }, nil
	}

	store, err := replayguard.NewMemoryStore(capacity)
	if err != nil {
		return nil, nil, err
	}
	log.Warn(
		"replay protection is local to this process, " +
			"use the redis store when running more instances",
	)
	return store, func() {}, nil
}

func newPubSub(dbType string) (ports.PubSub, error) {
	var store pubsub.SubscriptionStore
	if dbType == application.DBBadger {
		s, err := pubsub.NewBadgerStore(config.GetDbDatadir(), log.StandardLogger())
		if err != nil {
			return nil, err
		}
		store = s
	} else {
		store = pubsub.NewInmemoryStore()
	}
	return pubsub.NewService(store, 0)
}
