package inmemory

import (
	"context"

	"github.com/paystell/paystell-daemon/internal/core/domain"
)

type monitoringRepositoryImpl struct {
	store *monitoringInmemoryStore
}

// NewMonitoringRepositoryImpl returns a new inmemory MonitoringRepository
// implementation.
func NewMonitoringRepositoryImpl(
	store *monitoringInmemoryStore,
) domain.MonitoringRepository {
	return &monitoringRepositoryImpl{store}
}

func (r *monitoringRepositoryImpl) SaveConfig(
	_ context.Context, config *domain.MonitoringConfig,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.configs[config.Key()] = *config
	return nil
}

func (r *monitoringRepositoryImpl) GetConfig(
	_ context.Context, key domain.MonitoringKey,
) (*domain.MonitoringConfig, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	config, ok := r.store.configs[key]
	if !ok {
		return nil, domain.ErrMonitoringConfigNotFound
	}
	return &config, nil
}

func (r *monitoringRepositoryImpl) ListConfigs(
	_ context.Context, address string, asset domain.Asset,
) ([]domain.MonitoringConfig, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	configs := make([]domain.MonitoringConfig, 0)
	for key, c := range r.store.configs {
		if address != "" && key.Address != address {
			continue
		}
		if asset != "" && key.Asset != asset {
			continue
		}
		configs = append(configs, c)
	}
	return configs, nil
}

func (r *monitoringRepositoryImpl) RemoveConfig(
	_ context.Context, key domain.MonitoringKey,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.configs[key]; !ok {
		return domain.ErrMonitoringConfigNotFound
	}
	delete(r.store.configs, key)
	return nil
}
