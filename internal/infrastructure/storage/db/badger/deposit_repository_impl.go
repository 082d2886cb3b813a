package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type depositRepositoryImpl struct {
	store *badgerhold.Store
}

// NewDepositRepositoryImpl initialize a badger implementation of the
// domain.DepositRepository
func NewDepositRepositoryImpl(store *badgerhold.Store) domain.DepositRepository {
	return depositRepositoryImpl{store}
}

func (d depositRepositoryImpl) AddDeposit(
	_ context.Context, deposit *domain.DepositRequest,
) error {
	if err := d.store.Insert(deposit.ID, deposit); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrDepositAlreadyExists
		}
		return err
	}
	return nil
}

func (d depositRepositoryImpl) GetDeposit(
	_ context.Context, id string,
) (*domain.DepositRequest, error) {
	var deposit domain.DepositRequest
	if err := d.store.Get(id, &deposit); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrDepositNotFound
		}
		return nil, err
	}
	return &deposit, nil
}

func (d depositRepositoryImpl) UpdateDeposit(
	_ context.Context, id string, update domain.DepositUpdate,
) (*domain.DepositRequest, error) {
	var deposit domain.DepositRequest

	if err := updateWithRetry(d.store, func(tx *badger.Txn) error {
		deposit = domain.DepositRequest{}
		if err := d.store.TxGet(tx, id, &deposit); err != nil {
			if err == badgerhold.ErrNotFound {
				return domain.ErrDepositNotFound
			}
			return err
		}
		if err := deposit.Apply(update); err != nil {
			return err
		}
		return d.store.TxUpdate(tx, id, &deposit)
	}); err != nil {
		return nil, err
	}

	return &deposit, nil
}

func (d depositRepositoryImpl) DeleteDeposit(
	_ context.Context, id string,
) (bool, error) {
	if err := d.store.Delete(id, domain.DepositRequest{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d depositRepositoryImpl) GetDepositsForOwner(
	_ context.Context, ownerID string,
) ([]domain.DepositRequest, error) {
	query := badgerhold.Where("OwnerID").Eq(ownerID)
	return d.findDeposits(query)
}

func (d depositRepositoryImpl) GetAllDeposits(
	_ context.Context,
) ([]domain.DepositRequest, error) {
	return d.findDeposits(nil)
}

func (d depositRepositoryImpl) findDeposits(
	query *badgerhold.Query,
) ([]domain.DepositRequest, error) {
	deposits := make([]domain.DepositRequest, 0)
	if err := d.store.Find(&deposits, query); err != nil {
		return nil, err
	}
	return deposits, nil
}
