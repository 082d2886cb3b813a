package ports

import (
	"context"
	"errors"
)

var (
	// ErrTransactionRejected is returned when the network refuses a
	// transaction envelope, i.e. it won't ever be included in a ledger.
	ErrTransactionRejected = errors.New("transaction rejected by the network")
	// ErrNetworkTransactionNotFound is returned when the network doesn't know
	// a transaction (yet).
	ErrNetworkTransactionNotFound = errors.New("transaction not found on network")
)

// Network is the gateway to the blockchain network. It's treated as an
// opaque submission endpoint.
type Network interface {
	// SubmitTransaction submits a signed transaction envelope and waits for
	// its inclusion. Errors wrapping ErrTransactionRejected mean the
	// transaction failed for good, any other error leaves its fate unknown.
	SubmitTransaction(
		ctx context.Context, envelope string,
	) (NetworkTransaction, error)
	// GetTransaction returns the transaction with the given hash or
	// ErrNetworkTransactionNotFound.
	GetTransaction(ctx context.Context, hash string) (NetworkTransaction, error)
}
