package dbbadger

import (
	"context"

	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type monitoringRepositoryImpl struct {
	store *badgerhold.Store
}

// NewMonitoringRepositoryImpl initialize a badger implementation of the
// domain.MonitoringRepository
func NewMonitoringRepositoryImpl(
	store *badgerhold.Store,
) domain.MonitoringRepository {
	return monitoringRepositoryImpl{store}
}

func (m monitoringRepositoryImpl) SaveConfig(
	_ context.Context, config *domain.MonitoringConfig,
) error {
	return m.store.Upsert(config.Key().String(), config)
}

func (m monitoringRepositoryImpl) GetConfig(
	_ context.Context, key domain.MonitoringKey,
) (*domain.MonitoringConfig, error) {
	var config domain.MonitoringConfig
	if err := m.store.Get(key.String(), &config); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrMonitoringConfigNotFound
		}
		return nil, err
	}
	return &config, nil
}

func (m monitoringRepositoryImpl) ListConfigs(
	_ context.Context, address string, asset domain.Asset,
) ([]domain.MonitoringConfig, error) {
	var all []domain.MonitoringConfig
	if err := m.store.Find(&all, nil); err != nil {
		return nil, err
	}

	configs := make([]domain.MonitoringConfig, 0, len(all))
	for _, c := range all {
		if address != "" && c.Address != address {
			continue
		}
		if asset != "" && c.Asset != asset {
			continue
		}
		configs = append(configs, c)
	}
	return configs, nil
}

func (m monitoringRepositoryImpl) RemoveConfig(
	_ context.Context, key domain.MonitoringKey,
) error {
	if err := m.store.Delete(
		key.String(), domain.MonitoringConfig{},
	); err != nil {
		if err == badgerhold.ErrNotFound {
			return domain.ErrMonitoringConfigNotFound
		}
		return err
	}
	return nil
}
