package application

import (
	"context"
	"sort"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/application/pubsub"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Clock ...
type Clock interface {
	Now() time.Time
}

// DepositService defines the methods of the application layer to manage the
// deposit requests of users. Ownership is enforced here: a requester can only
// touch deposits whose owner or address is theirs.
type DepositService interface {
	CreateDeposit(
		ctx context.Context, requester Requester, req CreateDepositReq,
	) (*domain.DepositRequest, error)
	// ListDeposits returns the deposits of the requester, most recent first.
	ListDeposits(
		ctx context.Context, requester Requester, req ListDepositsReq,
	) ([]domain.DepositRequest, error)
	GetDeposit(
		ctx context.Context, requester Requester, id string,
	) (*domain.DepositRequest, error)
	UpdateDeposit(
		ctx context.Context, requester Requester, id string,
		req UpdateDepositReq,
	) (*domain.DepositRequest, error)
	DeleteDeposit(ctx context.Context, requester Requester, id string) error
}

type depositService struct {
	repo   domain.DepositRepository
	pubsub *pubsub.Service
	clock  Clock
	ttl    time.Duration
}

func NewDepositService(
	repoManager ports.RepoManager, pubsubSvc *pubsub.Service, clock Clock,
	ttl time.Duration,
) DepositService {
	if ttl <= 0 {
		ttl = domain.DefaultDepositTTL
	}
	return &depositService{
		repo:   repoManager.DepositRepository(),
		pubsub: pubsubSvc,
		clock:  clock,
		ttl:    ttl,
	}
}

func (s *depositService) CreateDeposit(
	ctx context.Context, requester Requester, req CreateDepositReq,
) (*domain.DepositRequest, error) {
	if requester.UserID == "" {
		return nil, ErrMissingRequester
	}

	asset, err := domain.ParseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	address := requester.Address
	if req.CustomAddress != "" {
		address = req.CustomAddress
	}

	deposit, err := domain.NewDepositRequest(
		requester.UserID, address, asset, amount, req.Memo,
		s.clock.Now(), s.ttl,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddDeposit(ctx, deposit); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"id":      deposit.ID,
		"owner":   deposit.OwnerID,
		"asset":   deposit.Asset,
		"expires": deposit.ExpiresAt,
	}).Debug("deposit request created")

	s.pubsub.PublishDepositEvent(*deposit)
	return deposit, nil
}

func (s *depositService) ListDeposits(
	ctx context.Context, requester Requester, req ListDepositsReq,
) ([]domain.DepositRequest, error) {
	if requester.UserID == "" {
		return nil, ErrMissingRequester
	}
	ownerID := req.UserID
	if ownerID == "" {
		ownerID = requester.UserID
	}
	if ownerID != requester.UserID {
		return nil, domain.ErrNotDepositOwner
	}

	var status domain.DepositStatus
	if req.Status != "" {
		st, err := domain.ParseDepositStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}

	deposits, err := s.repo.GetDepositsForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	list := make([]domain.DepositRequest, 0, len(deposits))
	for _, d := range deposits {
		d := withEffectiveStatus(d, now)
		if status != "" && d.Status != status {
			continue
		}
		list = append(list, d)
	}
	sortDepositsByNewest(list)
	return list, nil
}

func (s *depositService) GetDeposit(
	ctx context.Context, requester Requester, id string,
) (*domain.DepositRequest, error) {
	deposit, err := s.getOwnedDeposit(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	d := withEffectiveStatus(*deposit, s.clock.Now())
	return &d, nil
}

func (s *depositService) UpdateDeposit(
	ctx context.Context, requester Requester, id string, req UpdateDepositReq,
) (*domain.DepositRequest, error) {
	update, err := req.toDomain()
	if err != nil {
		return nil, err
	}

	deposit, err := s.getOwnedDeposit(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		d := withEffectiveStatus(*deposit, s.clock.Now())
		return &d, nil
	}

	updated, err := s.repo.UpdateDeposit(ctx, id, update)
	if err != nil {
		return nil, err
	}

	if updated.Status != deposit.Status {
		s.pubsub.PublishDepositEvent(*updated)
	}
	d := withEffectiveStatus(*updated, s.clock.Now())
	return &d, nil
}

func (s *depositService) DeleteDeposit(
	ctx context.Context, requester Requester, id string,
) error {
	if _, err := s.getOwnedDeposit(ctx, requester, id); err != nil {
		return err
	}

	found, err := s.repo.DeleteDeposit(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrDepositNotFound
	}
	return nil
}

func (s *depositService) getOwnedDeposit(
	ctx context.Context, requester Requester, id string,
) (*domain.DepositRequest, error) {
	if requester.UserID == "" {
		return nil, ErrMissingRequester
	}

	deposit, err := s.repo.GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}
	if !deposit.IsOwnedBy(requester.UserID, requester.Address) {
		return nil, domain.ErrNotDepositOwner
	}
	return deposit, nil
}

func withEffectiveStatus(
	d domain.DepositRequest, now time.Time,
) domain.DepositRequest {
	d.Status = d.EffectiveStatus(now)
	return d
}

func sortDepositsByNewest(deposits []domain.DepositRequest) {
	sort.SliceStable(deposits, func(i, j int) bool {
		return deposits[i].CreatedAt.After(deposits[j].CreatedAt)
	})
}
