package application

import (
	"context"
	"errors"

	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// MonitoringService manages the (address, asset) pairs whose incoming
// payments are reconciled against pending deposits. A config can be replaced,
// listed or removed only by the user who registered it or by the holder of
// the monitored address.
type MonitoringService interface {
	StartMonitoring(
		ctx context.Context, requester Requester, req StartMonitoringReq,
	) (*domain.MonitoringConfig, error)
	ListMonitoring(
		ctx context.Context, requester Requester, address, asset string,
	) ([]domain.MonitoringConfig, error)
	StopMonitoring(
		ctx context.Context, requester Requester, address, asset string,
	) error
}

type monitoringService struct {
	repo  domain.MonitoringRepository
	clock Clock
}

func NewMonitoringService(
	repoManager ports.RepoManager, clock Clock,
) MonitoringService {
	return &monitoringService{repoManager.MonitoringRepository(), clock}
}

func (s *monitoringService) StartMonitoring(
	ctx context.Context, requester Requester, req StartMonitoringReq,
) (*domain.MonitoringConfig, error) {
	if requester.UserID == "" {
		return nil, ErrMissingRequester
	}

	asset, err := domain.ParseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	minAmount, err := domain.ParseAmount(req.MinAmount)
	if err != nil {
		return nil, err
	}
	maxAmount, err := domain.ParseAmount(req.MaxAmount)
	if err != nil {
		return nil, err
	}
	address := req.Address
	if address == "" {
		address = requester.Address
	}

	config, err := domain.NewMonitoringConfig(
		address, asset, minAmount, maxAmount, req.Memo, s.clock.Now(),
	)
	if err != nil {
		return nil, err
	}
	config.OwnerID = requester.UserID

	if _, err := s.getOwnedConfig(ctx, requester, config.Key()); err != nil {
		if !errors.Is(err, domain.ErrMonitoringConfigNotFound) {
			return nil, err
		}
	}

	if err := s.repo.SaveConfig(ctx, config); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"owner":   config.OwnerID,
		"address": config.Address,
		"asset":   config.Asset,
	}).Debug("started deposit monitoring")
	return config, nil
}

func (s *monitoringService) ListMonitoring(
	ctx context.Context, requester Requester, address, asset string,
) ([]domain.MonitoringConfig, error) {
	if requester.UserID == "" {
		return nil, ErrMissingRequester
	}

	var a domain.Asset
	if asset != "" {
		parsed, err := domain.ParseAsset(asset)
		if err != nil {
			return nil, err
		}
		a = parsed
	}
	configs, err := s.repo.ListConfigs(ctx, address, a)
	if err != nil {
		return nil, err
	}

	owned := make([]domain.MonitoringConfig, 0, len(configs))
	for _, c := range configs {
		if c.IsOwnedBy(requester.UserID, requester.Address) {
			owned = append(owned, c)
		}
	}
	return owned, nil
}

func (s *monitoringService) StopMonitoring(
	ctx context.Context, requester Requester, address, asset string,
) error {
	if requester.UserID == "" {
		return ErrMissingRequester
	}
	if address == "" {
		return domain.ErrMissingAddress
	}
	a, err := domain.ParseAsset(asset)
	if err != nil {
		return err
	}

	key := domain.MonitoringKey{Address: address, Asset: a}
	if _, err := s.getOwnedConfig(ctx, requester, key); err != nil {
		return err
	}
	return s.repo.RemoveConfig(ctx, key)
}

func (s *monitoringService) getOwnedConfig(
	ctx context.Context, requester Requester, key domain.MonitoringKey,
) (*domain.MonitoringConfig, error) {
	config, err := s.repo.GetConfig(ctx, key)
	if err != nil {
		return nil, err
	}
	if !config.IsOwnedBy(requester.UserID, requester.Address) {
		return nil, domain.ErrNotMonitoringOwner
	}
	return config, nil
}
