package db_test

import (
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	dbbadger "github.com/paystell/paystell-daemon/internal/infrastructure/storage/db/badger"
	"github.com/paystell/paystell-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type repoManager struct {
	Name    string
	Manager ports.RepoManager
}

func createRepoManagers(t *testing.T) []repoManager {
	badgerManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	managers := []repoManager{
		{Name: "inmemory", Manager: inmemory.NewRepoManager()},
		{Name: "badger", Manager: badgerManager},
	}
	t.Cleanup(func() {
		for _, m := range managers {
			m.Manager.Close()
		}
	})
	return managers
}

func makeRandomDeposit(t *testing.T, ownerID string) *domain.DepositRequest {
	amount := decimal.RequireFromString("12.5")
	deposit, err := domain.NewDepositRequest(
		ownerID, randomAddress(), domain.AssetUSDC, &amount, randomHex(8),
		now, domain.DefaultDepositTTL,
	)
	require.NoError(t, err)
	return deposit
}

func randomAddress() string {
	return "G" + randomHex(27)
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}
