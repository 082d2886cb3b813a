package application

import (
	"fmt"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/application/optimistic"
	"github.com/paystell/paystell-daemon/internal/core/application/pubsub"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	dbbadger "github.com/paystell/paystell-daemon/internal/infrastructure/storage/db/badger"
	"github.com/paystell/paystell-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/paystell/paystell-daemon/pkg/replayguard"
	"github.com/paystell/paystell-daemon/pkg/scheduler"
	log "github.com/sirupsen/logrus"
)

var (
	SupportedDBType = map[string]struct{}{
		DBInmemory: {},
		DBBadger:   {},
	}
)

// Config holds the external dependencies of the application layer and lazily
// builds its services so that they all share the same repositories, queue
// and notifier.
type Config struct {
	DBType string
	// DBConfig is the datadir for the badger db.
	DBConfig interface{}

	PubSub      ports.PubSub
	Network     ports.Network
	ReplayStore replayguard.Store
	Channel     RealtimeChannel
	Scheduler   scheduler.Scheduler

	DepositTTL time.Duration
	Queue      optimistic.Config
	Monitor    MonitorConfig

	repo        ports.RepoManager
	pubsub      *pubsub.Service
	guard       *replayguard.Guard
	queue       *optimistic.Queue
	deposit     DepositService
	monitoring  MonitoringService
	transaction TransactionService
	monitor     TransactionMonitor
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("db type %q not supported", c.DBType)
	}
	if c.ReplayStore == nil {
		return replayguard.ErrMissingStore
	}
	if c.PubSub == nil {
		return fmt.Errorf("missing pubsub service")
	}
	if c.Network == nil {
		return fmt.Errorf("missing network service")
	}
	if c.Scheduler == nil {
		c.Scheduler = scheduler.New()
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.replayGuard(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) PubSubService() *pubsub.Service {
	if c.pubsub == nil {
		c.pubsub = pubsub.NewService(c.PubSub)
	}
	return c.pubsub
}

func (c *Config) OptimisticQueue() *optimistic.Queue {
	if c.queue == nil {
		cfg := c.Queue
		cfg.Clock = c.Scheduler
		c.queue = optimistic.NewQueue(cfg)
	}
	return c.queue
}

func (c *Config) DepositService() DepositService {
	if c.deposit == nil {
		c.deposit = NewDepositService(
			c.RepoManager(), c.PubSubService(), c.Scheduler, c.DepositTTL,
		)
	}
	return c.deposit
}

func (c *Config) MonitoringService() MonitoringService {
	if c.monitoring == nil {
		c.monitoring = NewMonitoringService(c.RepoManager(), c.Scheduler)
	}
	return c.monitoring
}

func (c *Config) TransactionService() TransactionService {
	if c.transaction == nil {
		guard, _ := c.replayGuard()
		c.transaction = NewTransactionService(
			guard, c.OptimisticQueue(), c.Network, c.PubSubService(), c.Scheduler,
		)
	}
	return c.transaction
}

func (c *Config) TransactionMonitor() TransactionMonitor {
	if c.monitor == nil {
		c.monitor = NewTransactionMonitor(
			c.Channel, c.OptimisticQueue(), c.RepoManager(), c.Network,
			c.PubSubService(), c.Scheduler, c.Monitor,
		)
	}
	return c.monitor
}

// Close waits for the pending background jobs and releases the
// repositories and the notifier.
func (c *Config) Close() {
	if c.monitor != nil {
		c.monitor.Stop()
	}
	if c.transaction != nil {
		c.transaction.Close()
	}
	if c.pubsub != nil {
		c.pubsub.Close()
	}
	if c.repo != nil {
		c.repo.Close()
	}
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.StandardLogger())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		default:
			c.repo = inmemory.NewRepoManager()
		}
	}
	return c.repo, nil
}

func (c *Config) replayGuard() (*replayguard.Guard, error) {
	if c.guard == nil {
		guard, err := replayguard.NewGuard(c.ReplayStore)
		if err != nil {
			return nil, err
		}
		c.guard = guard
	}
	return c.guard, nil
}
