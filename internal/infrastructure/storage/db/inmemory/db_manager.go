package inmemory

import (
	"sync"

	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
)

type depositInmemoryStore struct {
	deposits map[string]domain.DepositRequest
	locker   *sync.RWMutex
}

type monitoringInmemoryStore struct {
	configs map[domain.MonitoringKey]domain.MonitoringConfig
	locker  *sync.RWMutex
}

// RepoManager holds the in-memory repositories. Nothing survives a restart.
type RepoManager struct {
	depositRepository    domain.DepositRepository
	monitoringRepository domain.MonitoringRepository
}

func NewRepoManager() ports.RepoManager {
	depositStore := &depositInmemoryStore{
		deposits: map[string]domain.DepositRequest{},
		locker:   &sync.RWMutex{},
	}
	monitoringStore := &monitoringInmemoryStore{
		configs: map[domain.MonitoringKey]domain.MonitoringConfig{},
		locker:  &sync.RWMutex{},
	}

	return &RepoManager{
		depositRepository:    NewDepositRepositoryImpl(depositStore),
		monitoringRepository: NewMonitoringRepositoryImpl(monitoringStore),
	}
}

func (d *RepoManager) DepositRepository() domain.DepositRepository {
	return d.depositRepository
}

func (d *RepoManager) MonitoringRepository() domain.MonitoringRepository {
	return d.monitoringRepository
}

func (d *RepoManager) Close() {}
