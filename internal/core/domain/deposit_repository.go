package domain

import "context"

// DepositRepository is the abstraction for any kind of database intended to
// persist DepositRequests. No authorization is enforced at this level.
type DepositRepository interface {
	// AddDeposit adds a new deposit to the repository. The id must not be
	// already in use.
	AddDeposit(ctx context.Context, deposit *DepositRequest) error
	// GetDeposit returns the deposit with the given id.
	GetDeposit(ctx context.Context, id string) (*DepositRequest, error)
	// UpdateDeposit applies the allow-listed changes to the deposit with the
	// given id and returns its updated version.
	UpdateDeposit(
		ctx context.Context, id string, update DepositUpdate,
	) (*DepositRequest, error)
	// DeleteDeposit removes a deposit and returns whether it existed.
	DeleteDeposit(ctx context.Context, id string) (bool, error)
	// GetDepositsForOwner returns the deposits of the given owner, in no
	// particular order.
	GetDepositsForOwner(
		ctx context.Context, ownerID string,
	) ([]DepositRequest, error)
	// GetAllDeposits returns all deposits.
	GetAllDeposits(ctx context.Context) ([]DepositRequest, error)
}
