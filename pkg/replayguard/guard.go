// Package replayguard deduplicates submissions of signed transactions by the
// SHA-256 hash of their exact payload.
//
// The guard is an approximation of replay protection: the set of processed
// hashes is bounded and evicts the oldest-inserted entry when full, and the
// in-memory store does not survive a restart. Use the Redis store to share
// the set among instances.
package replayguard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrTransactionAlreadyProcessed is returned when the hash of a payload
	// is already present in the store.
	ErrTransactionAlreadyProcessed = errors.New("transaction already processed")
	// ErrInvalidCapacity ...
	ErrInvalidCapacity = errors.New("capacity must be greater than zero")
	// ErrMissingStore ...
	ErrMissingStore = errors.New("missing replay store")
)

// Store holds the set of processed hashes.
type Store interface {
	// Add inserts the hash and reports whether it was absent. Check and
	// insert must happen atomically.
	Add(ctx context.Context, hash string) (bool, error)
	// Contains reports whether the hash is in the set.
	Contains(ctx context.Context, hash string) (bool, error)
	// Len returns the number of hashes in the set.
	Len(ctx context.Context) (int, error)
}

// Guard rejects signed payloads that were already submitted.
type Guard struct {
	store Store
}

// NewGuard returns a Guard on top of the given store.
func NewGuard(store Store) (*Guard, error) {
	if store == nil {
		return nil, ErrMissingStore
	}
	return &Guard{store}, nil
}

// Hash returns the hex encoded SHA-256 of the payload.
func Hash(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func (g *Guard) IsProcessed(ctx context.Context, hash string) (bool, error) {
	return g.store.Contains(ctx, hash)
}

func (g *Guard) MarkProcessed(ctx context.Context, hash string) error {
	_, err := g.store.Add(ctx, hash)
	return err
}

// ValidateAndReserve hashes the payload and reserves the hash before
// returning it, so that concurrent callers with the same payload cannot both
// succeed. A reservation is never released: a submission failing afterwards
// must be re-signed to get a new hash.
func (g *Guard) ValidateAndReserve(
	ctx context.Context, payload string,
) (string, error) {
	hash := Hash(payload)

	added, err := g.store.Add(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("reserving transaction %s: %w", hash, err)
	}
	if !added {
		return "", ErrTransactionAlreadyProcessed
	}
	return hash, nil
}

// Size returns the number of processed hashes currently remembered.
func (g *Guard) Size(ctx context.Context) (int, error) {
	return g.store.Len(ctx)
}
