// Package optimistic tracks transactions from the moment they're submitted to
// the network until their outcome is known, so that they can be shown before
// any confirmation.
package optimistic

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTimeout         = 5 * time.Minute
	DefaultRetention       = 24 * time.Hour
	DefaultReconcileWindow = 5 * time.Minute

	defaultFailureReason = "transaction failed"
)

// Clock ...
type Clock interface {
	Now() time.Time
}

type Config struct {
	// Timeout after which a pending transaction is considered failed.
	Timeout time.Duration
	// Retention of settled transactions before they're dropped.
	Retention time.Duration
	// ReconcileWindow is the max distance in time between the submission of a
	// transaction and an event matching it by amount and asset.
	ReconcileWindow time.Duration
	Clock           Clock
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Queue owns the optimistic transactions. Callers only ever get copies.
type Queue struct {
	cfg Config

	mtx     sync.Mutex
	entries map[string]*domain.OptimisticTransaction
	// order keeps transaction ids by submission time.
	order []string
}

func NewQueue(cfg Config) *Queue {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.ReconcileWindow <= 0 {
		cfg.ReconcileWindow = DefaultReconcileWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}

	return &Queue{
		cfg:     cfg,
		entries: make(map[string]*domain.OptimisticTransaction),
	}
}

// Submit adds a pending transaction and returns its id.
func (q *Queue) Submit(draft domain.TransactionDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", err
	}

	tx := &domain.OptimisticTransaction{
		ID:        uuid.New().String(),
		OwnerID:   draft.OwnerID,
		Type:      draft.Type,
		Amount:    draft.Amount,
		Asset:     draft.Asset,
		Status:    domain.TransactionStatusPending,
		Timestamp: q.cfg.Clock.Now(),
	}

	q.mtx.Lock()
	defer q.mtx.Unlock()

	q.entries[tx.ID] = tx
	q.order = append(q.order, tx.ID)
	return tx.ID, nil
}

// AttachHash records the network hash of a pending transaction.
func (q *Queue) AttachHash(id, hash string) error {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	tx, ok := q.entries[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if tx.Status.IsTerminal() {
		return nil
	}
	tx.TransactionHash = hash
	return nil
}

// Fail marks a pending transaction as failed, for example when the network
// rejects it.
func (q *Queue) Fail(id, reason string) error {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	tx, ok := q.entries[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if tx.Status.IsTerminal() {
		return nil
	}
	if reason == "" {
		reason = defaultFailureReason
	}
	q.settle(tx, domain.TransactionStatusFailed, reason)
	return nil
}

// Reconcile applies an authoritative outcome to the matching transaction and
// returns whether one was found.
// Transactions are matched by hash first. Otherwise, the earliest submitted
// pending transaction with no hash, with the same amount and asset (when
// reported by the event) and submitted within the reconcile window from the
// event is picked. Settled transactions are never changed.
func (q *Queue) Reconcile(event domain.TransactionEvent) bool {
	_, matched := q.Settle(event)
	return matched
}

// Settle is Reconcile, but also returns a copy of the transaction if the
// event made it change status.
func (q *Queue) Settle(
	event domain.TransactionEvent,
) (*domain.OptimisticTransaction, bool) {
	if !event.Status.IsTerminal() {
		return nil, false
	}

	q.mtx.Lock()
	defer q.mtx.Unlock()

	tx := q.match(event)
	if tx == nil {
		log.WithFields(log.Fields{
			"hash":   event.TransactionHash,
			"status": event.Status,
		}).Debug("optimistic queue: ignoring unmatched transaction event")
		return nil, false
	}

	if tx.Status.IsTerminal() {
		return nil, true
	}

	if event.TransactionHash != "" {
		tx.TransactionHash = event.TransactionHash
	}
	reason := ""
	if event.Status == domain.TransactionStatusFailed {
		reason = event.Error
		if reason == "" {
			reason = defaultFailureReason
		}
	}
	q.settle(tx, event.Status, reason)

	cp := *tx
	return &cp, true
}

// TimeoutSweep fails every transaction still pending after the timeout and
// returns them. Transactions settled for longer than the retention period are
// dropped.
func (q *Queue) TimeoutSweep(now time.Time) []domain.OptimisticTransaction {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	expired := make([]domain.OptimisticTransaction, 0)
	order := make([]string, 0, len(q.order))

	for _, id := range q.order {
		tx := q.entries[id]

		if tx.Status == domain.TransactionStatusPending &&
			now.Sub(tx.Timestamp) > q.cfg.Timeout {
			q.settleAt(tx, domain.TransactionStatusFailed,
				domain.ErrTransactionTimeout.Error(), now)
			expired = append(expired, *tx)
		}

		if tx.SettledAt != nil && now.Sub(*tx.SettledAt) > q.cfg.Retention {
			delete(q.entries, id)
			continue
		}
		order = append(order, id)
	}
	q.order = order

	return expired
}

// ListByStatus returns the transactions with the given status in submission
// order.
func (q *Queue) ListByStatus(
	status domain.TransactionStatus,
) []domain.OptimisticTransaction {
	return q.filter(func(tx *domain.OptimisticTransaction) bool {
		return tx.Status == status
	})
}

// List returns all transactions in submission order.
func (q *Queue) List() []domain.OptimisticTransaction {
	return q.filter(func(*domain.OptimisticTransaction) bool { return true })
}

// ListForOwner ...
func (q *Queue) ListForOwner(ownerID string) []domain.OptimisticTransaction {
	return q.filter(func(tx *domain.OptimisticTransaction) bool {
		return tx.OwnerID == ownerID
	})
}

func (q *Queue) Get(id string) (*domain.OptimisticTransaction, error) {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	tx, ok := q.entries[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

// Buckets groups the given transactions for display. Pending transactions
// already known by the network are processing.
func Buckets(txs []domain.OptimisticTransaction) domain.TransactionBuckets {
	buckets := domain.TransactionBuckets{
		Pending:    make([]domain.OptimisticTransaction, 0),
		Processing: make([]domain.OptimisticTransaction, 0),
		Completed:  make([]domain.OptimisticTransaction, 0),
		Failed:     make([]domain.OptimisticTransaction, 0),
	}

	for _, tx := range txs {
		switch tx.Status {
		case domain.TransactionStatusPending:
			if tx.TransactionHash != "" {
				buckets.Processing = append(buckets.Processing, tx)
			} else {
				buckets.Pending = append(buckets.Pending, tx)
			}
		case domain.TransactionStatusConfirmed:
			buckets.Completed = append(buckets.Completed, tx)
		case domain.TransactionStatusFailed:
			buckets.Failed = append(buckets.Failed, tx)
		}
	}
	return buckets
}

func (q *Queue) Buckets() domain.TransactionBuckets {
	return Buckets(q.List())
}

func (q *Queue) match(
	event domain.TransactionEvent,
) *domain.OptimisticTransaction {
	if event.TransactionHash != "" {
		for _, id := range q.order {
			if tx := q.entries[id]; tx.TransactionHash == event.TransactionHash {
				return tx
			}
		}
	}

	eventTime := event.Timestamp
	if eventTime.IsZero() {
		eventTime = q.cfg.Clock.Now()
	}

	for _, id := range q.order {
		tx := q.entries[id]
		if tx.Status != domain.TransactionStatusPending || tx.TransactionHash != "" {
			continue
		}
		if event.Asset != "" && event.Asset != tx.Asset {
			continue
		}
		if event.Amount != nil && !event.Amount.Equal(tx.Amount) {
			continue
		}
		if eventTime.Sub(tx.Timestamp).Abs() > q.cfg.ReconcileWindow {
			continue
		}
		return tx
	}
	return nil
}

func (q *Queue) filter(
	keep func(tx *domain.OptimisticTransaction) bool,
) []domain.OptimisticTransaction {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	txs := make([]domain.OptimisticTransaction, 0)
	for _, id := range q.order {
		if tx := q.entries[id]; keep(tx) {
			txs = append(txs, *tx)
		}
	}
	return txs
}

func (q *Queue) settle(
	tx *domain.OptimisticTransaction, status domain.TransactionStatus,
	reason string,
) {
	q.settleAt(tx, status, reason, q.cfg.Clock.Now())
}

func (q *Queue) settleAt(
	tx *domain.OptimisticTransaction, status domain.TransactionStatus,
	reason string, at time.Time,
) {
	tx.Status = status
	tx.Error = reason
	tx.SettledAt = &at
}
