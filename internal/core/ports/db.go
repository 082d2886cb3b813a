package ports

import (
	"github.com/paystell/paystell-daemon/internal/core/domain"
)

// RepoManager interface defines the methods to access the deposit and
// monitoring repositories.
type RepoManager interface {
	DepositRepository() domain.DepositRepository
	MonitoringRepository() domain.MonitoringRepository

	Close()
}
