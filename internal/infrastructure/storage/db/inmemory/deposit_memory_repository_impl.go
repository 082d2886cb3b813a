package inmemory

import (
	"context"

	"github.com/paystell/paystell-daemon/internal/core/domain"
)

type depositRepositoryImpl struct {
	store *depositInmemoryStore
}

// NewDepositRepositoryImpl returns a new inmemory DepositRepository
// implementation.
func NewDepositRepositoryImpl(
	store *depositInmemoryStore,
) domain.DepositRepository {
	return &depositRepositoryImpl{store}
}

func (r *depositRepositoryImpl) AddDeposit(
	_ context.Context, deposit *domain.DepositRequest,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.deposits[deposit.ID]; ok {
		return domain.ErrDepositAlreadyExists
	}
	r.store.deposits[deposit.ID] = *deposit
	return nil
}

func (r *depositRepositoryImpl) GetDeposit(
	_ context.Context, id string,
) (*domain.DepositRequest, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	deposit, ok := r.store.deposits[id]
	if !ok {
		return nil, domain.ErrDepositNotFound
	}
	return &deposit, nil
}

func (r *depositRepositoryImpl) UpdateDeposit(
	_ context.Context, id string, update domain.DepositUpdate,
) (*domain.DepositRequest, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	deposit, ok := r.store.deposits[id]
	if !ok {
		return nil, domain.ErrDepositNotFound
	}
	if err := deposit.Apply(update); err != nil {
		return nil, err
	}
	r.store.deposits[id] = deposit
	return &deposit, nil
}

func (r *depositRepositoryImpl) DeleteDeposit(
	_ context.Context, id string,
) (bool, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.deposits[id]; !ok {
		return false, nil
	}
	delete(r.store.deposits, id)
	return true, nil
}

func (r *depositRepositoryImpl) GetDepositsForOwner(
	_ context.Context, ownerID string,
) ([]domain.DepositRequest, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	deposits := make([]domain.DepositRequest, 0)
	for _, d := range r.store.deposits {
		if d.OwnerID == ownerID {
			deposits = append(deposits, d)
		}
	}
	return deposits, nil
}

func (r *depositRepositoryImpl) GetAllDeposits(
	_ context.Context,
) ([]domain.DepositRequest, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	deposits := make([]domain.DepositRequest, 0, len(r.store.deposits))
	for _, d := range r.store.deposits {
		deposits = append(deposits, d)
	}
	return deposits, nil
}
