package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/application/optimistic"
	"github.com/paystell/paystell-daemon/internal/core/application/pubsub"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	"github.com/paystell/paystell-daemon/pkg/realtime"
	"github.com/paystell/paystell-daemon/pkg/scheduler"
	log "github.com/sirupsen/logrus"
)

const pollTimeout = 10 * time.Second

// RealtimeChannel is the subset of *realtime.Channel used by the monitor.
type RealtimeChannel interface {
	Connect(ctx context.Context) error
	Disconnect()
	On(msgType realtime.MessageType, handler realtime.Handler) uint64
	Off(msgType realtime.MessageType, id uint64) bool
	Status() realtime.Status
}

// TransactionMonitor routes realtime events and network polls into the
// optimistic transaction queue and the deposit repository, and periodically
// sweeps what was never settled.
type TransactionMonitor interface {
	Start(ctx context.Context) error
	Stop()
	// View returns the combined picture of the requester's deposits,
	// transactions and balances, along with the channel status.
	View(ctx context.Context, requester Requester) (*MonitorView, error)
}

type MonitorConfig struct {
	SweepInterval time.Duration
	PollInterval  time.Duration
}

type transactionMonitor struct {
	channel        RealtimeChannel
	queue          *optimistic.Queue
	depositRepo    domain.DepositRepository
	monitoringRepo domain.MonitoringRepository
	network        ports.Network
	pubsub         *pubsub.Service
	sched          scheduler.Scheduler
	cfg            MonitorConfig

	lock       sync.Mutex
	started    bool
	handlerIDs map[realtime.MessageType]uint64
	sweepTimer scheduler.Timer
	pollTimer  scheduler.Timer
	polling    int32

	balancesLock sync.RWMutex
	balances     map[string]Balance
}

// NewTransactionMonitor returns a TransactionMonitor. The channel and the
// network are optional: without a channel only polling settles transactions,
// without a network no polling happens.
func NewTransactionMonitor(
	channel RealtimeChannel, queue *optimistic.Queue,
	repoManager ports.RepoManager, network ports.Network,
	pubsubSvc *pubsub.Service, sched scheduler.Scheduler, cfg MonitorConfig,
) TransactionMonitor {
	return newTransactionMonitor(
		channel, queue, repoManager, network, pubsubSvc, sched, cfg,
	)
}

func newTransactionMonitor(
	channel RealtimeChannel, queue *optimistic.Queue,
	repoManager ports.RepoManager, network ports.Network,
	pubsubSvc *pubsub.Service, sched scheduler.Scheduler, cfg MonitorConfig,
) *transactionMonitor {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if sched == nil {
		sched = scheduler.New()
	}

	return &transactionMonitor{
		channel:        channel,
		queue:          queue,
		depositRepo:    repoManager.DepositRepository(),
		monitoringRepo: repoManager.MonitoringRepository(),
		network:        network,
		pubsub:         pubsubSvc,
		sched:          sched,
		cfg:            cfg,
		handlerIDs:     make(map[realtime.MessageType]uint64),
		balances:       make(map[string]Balance),
	}
}

func (m *transactionMonitor) Start(ctx context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.started {
		return ErrMonitorAlreadyStarted
	}
	m.started = true

	if m.channel != nil {
		handlers := map[realtime.MessageType]realtime.Handler{
			realtime.TypeTransaction: m.handleTransactionMessage,
			realtime.TypeDeposit:     m.handleDepositMessage,
			realtime.TypeBalance:     m.handleBalanceMessage,
			realtime.TypeError:       m.handleErrorMessage,
		}
		for _, msgType := range []realtime.MessageType{
			realtime.TypeTransaction, realtime.TypeDeposit,
			realtime.TypeBalance, realtime.TypeError,
		} {
			m.handlerIDs[msgType] = m.channel.On(msgType, handlers[msgType])
		}

		// A failed connection is retried by the channel itself.
		if err := m.channel.Connect(ctx); err != nil {
			log.WithError(err).Warn("monitor: realtime channel not connected")
		}
	}

	m.sweepTimer = scheduler.Every(m.sched, m.cfg.SweepInterval, m.sweep)
	if m.network != nil {
		m.pollTimer = scheduler.Every(m.sched, m.cfg.PollInterval, m.poll)
	}

	log.Debug("monitor: started")
	return nil
}

func (m *transactionMonitor) Stop() {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.started {
		return
	}
	m.started = false

	if m.sweepTimer != nil {
		m.sweepTimer.Stop()
		m.sweepTimer = nil
	}
	if m.pollTimer != nil {
		m.pollTimer.Stop()
		m.pollTimer = nil
	}

	if m.channel != nil {
		for msgType, id := range m.handlerIDs {
			m.channel.Off(msgType, id)
			delete(m.handlerIDs, msgType)
		}
		m.channel.Disconnect()
	}

	log.Debug("monitor: stopped")
}

func (m *transactionMonitor) View(
	ctx context.Context, requester Requester,
) (*MonitorView, error) {
	if requester.UserID == "" {
		return nil, ErrMissingRequester
	}

	deposits, err := m.depositRepo.GetDepositsForOwner(ctx, requester.UserID)
	if err != nil {
		return nil, err
	}
	now := m.sched.Now()
	for i := range deposits {
		deposits[i] = withEffectiveStatus(deposits[i], now)
	}
	sortDepositsByNewest(deposits)

	channelStatus := realtime.Status{State: realtime.StateDisconnected}
	if m.channel != nil {
		channelStatus = m.channel.Status()
	}

	return &MonitorView{
		Deposits:     deposits,
		Transactions: optimistic.Buckets(m.queue.ListForOwner(requester.UserID)),
		Channel:      channelStatus,
		Balances:     m.balancesForAddress(requester.Address),
	}, nil
}

func (m *transactionMonitor) handleTransactionMessage(msg realtime.Message) {
	data := transactionEventData{}
	if err := msg.Decode(&data); err != nil {
		log.WithError(err).Warn("monitor: invalid transaction event")
		return
	}

	event, err := data.toDomain(m.eventTime(msg))
	if err != nil {
		log.WithError(err).Debug("monitor: ignoring transaction event")
		return
	}
	m.settleTransaction(event)
}

func (m *transactionMonitor) handleDepositMessage(msg realtime.Message) {
	data := depositEventData{}
	if err := msg.Decode(&data); err != nil {
		log.WithError(err).Warn("monitor: invalid deposit event")
		return
	}

	if err := m.settleDeposit(context.Background(), data, m.eventTime(msg)); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"deposit": data.DepositID,
			"address": data.Address,
			"asset":   data.Asset,
		}).Warn("monitor: failed to apply deposit event")
	}
}

func (m *transactionMonitor) handleBalanceMessage(msg realtime.Message) {
	data := balanceEventData{}
	if err := msg.Decode(&data); err != nil {
		log.WithError(err).Warn("monitor: invalid balance event")
		return
	}
	asset, err := domain.ParseAsset(data.Asset)
	if err != nil || data.Address == "" {
		log.WithField("asset", data.Asset).Debug("monitor: ignoring balance event")
		return
	}

	balance := Balance{
		Address:   data.Address,
		Asset:     asset,
		Balance:   data.Balance,
		UpdatedAt: m.eventTime(msg),
	}
	key := domain.MonitoringKey{Address: data.Address, Asset: asset}.String()

	m.balancesLock.Lock()
	defer m.balancesLock.Unlock()
	if prev, ok := m.balances[key]; ok && prev.UpdatedAt.After(balance.UpdatedAt) {
		return
	}
	m.balances[key] = balance
}

func (m *transactionMonitor) handleErrorMessage(msg realtime.Message) {
	data := errorEventData{}
	//nolint
	msg.Decode(&data)
	log.WithFields(log.Fields{
		"code":    data.Code,
		"message": data.Message,
	}).Warn("monitor: realtime server reported an error")
}

func (m *transactionMonitor) settleTransaction(event domain.TransactionEvent) {
	tx, matched := m.queue.Settle(event)
	if !matched {
		return
	}
	if tx != nil {
		log.WithFields(log.Fields{
			"id":     tx.ID,
			"hash":   tx.TransactionHash,
			"status": tx.Status,
		}).Debug("monitor: transaction settled")
		m.pubsub.PublishTransactionEvent(*tx)
	}
}

// settleDeposit applies a deposit outcome. Events naming a deposit target it,
// otherwise the payment must pass the monitoring config of its address and
// asset, and settles the oldest pending deposit accepting it.
func (m *transactionMonitor) settleDeposit(
	ctx context.Context, data depositEventData, at time.Time,
) error {
	status := domain.DepositStatusCompleted
	if data.Status != "" {
		st, err := domain.ParseDepositStatus(data.Status)
		if err != nil {
			return err
		}
		status = st
	}

	depositID := data.DepositID
	if depositID == "" {
		deposit, err := m.matchDeposit(ctx, data, at)
		if err != nil {
			return err
		}
		if deposit == nil {
			log.WithFields(log.Fields{
				"address": data.Address,
				"asset":   data.Asset,
			}).Debug("monitor: no deposit matches payment")
			return nil
		}
		depositID = deposit.ID
	}

	prev, err := m.depositRepo.GetDeposit(ctx, depositID)
	if err != nil {
		return err
	}

	update := domain.DepositUpdate{Status: &status}
	if data.TransactionHash != "" {
		update.TransactionHash = &data.TransactionHash
	}
	if status == domain.DepositStatusCompleted {
		confirmedAt := at
		if data.ConfirmedAt != nil {
			confirmedAt = *data.ConfirmedAt
		}
		if prev.ConfirmedAt != nil {
			confirmedAt = *prev.ConfirmedAt
		}
		update.ConfirmedAt = &confirmedAt
	}

	updated, err := m.depositRepo.UpdateDeposit(ctx, depositID, update)
	if err != nil {
		return err
	}
	if updated.Status != prev.Status {
		log.WithFields(log.Fields{
			"id":     updated.ID,
			"status": updated.Status,
		}).Debug("monitor: deposit settled")
		m.pubsub.PublishDepositEvent(*updated)
	}
	return nil
}

func (m *transactionMonitor) matchDeposit(
	ctx context.Context, data depositEventData, at time.Time,
) (*domain.DepositRequest, error) {
	if data.Address == "" {
		return nil, domain.ErrMissingAddress
	}
	asset, err := domain.ParseAsset(data.Asset)
	if err != nil {
		return nil, err
	}

	config, err := m.monitoringRepo.GetConfig(
		ctx, domain.MonitoringKey{Address: data.Address, Asset: asset},
	)
	if err != nil {
		if errors.Is(err, domain.ErrMonitoringConfigNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !config.Accepts(data.Amount, data.Memo) {
		return nil, nil
	}

	deposits, err := m.depositRepo.GetAllDeposits(ctx)
	if err != nil {
		return nil, err
	}

	var oldest *domain.DepositRequest
	for i := range deposits {
		d := &deposits[i]
		if d.Address != data.Address || d.Asset != asset {
			continue
		}
		if d.Status != domain.DepositStatusPending || d.IsStale(at) {
			continue
		}
		if !d.Accepts(data.Amount, data.Memo) {
			continue
		}
		if oldest == nil || d.CreatedAt.Before(oldest.CreatedAt) {
			oldest = d
		}
	}
	return oldest, nil
}

func (m *transactionMonitor) sweep() {
	now := m.sched.Now()

	for _, tx := range m.queue.TimeoutSweep(now) {
		log.WithField("id", tx.ID).Debug("monitor: transaction timed out")
		m.pubsub.PublishTransactionEvent(tx)
	}

	ctx := context.Background()
	deposits, err := m.depositRepo.GetAllDeposits(ctx)
	if err != nil {
		log.WithError(err).Warn("monitor: failed to list deposits for sweep")
		return
	}

	expired := domain.DepositStatusExpired
	for _, d := range deposits {
		if !d.IsStale(now) {
			continue
		}
		updated, err := m.depositRepo.UpdateDeposit(
			ctx, d.ID, domain.DepositUpdate{Status: &expired},
		)
		if err != nil {
			log.WithError(err).WithField("id", d.ID).
				Warn("monitor: failed to expire deposit")
			continue
		}
		m.pubsub.PublishDepositEvent(*updated)
	}
}

func (m *transactionMonitor) poll() {
	if !atomic.CompareAndSwapInt32(&m.polling, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&m.polling, 0)

	for _, tx := range m.queue.ListByStatus(domain.TransactionStatusPending) {
		if tx.TransactionHash == "" {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
		res, err := m.network.GetTransaction(ctx, tx.TransactionHash)
		cancel()
		if err != nil {
			if !errors.Is(err, ports.ErrNetworkTransactionNotFound) {
				log.WithError(err).WithField("hash", tx.TransactionHash).
					Warn("monitor: failed to poll transaction")
			}
			continue
		}

		status := domain.TransactionStatusConfirmed
		reason := ""
		if !res.IsSuccessful() {
			status = domain.TransactionStatusFailed
			reason = joinCodes(res.GetResultCodes())
		}
		m.settleTransaction(domain.TransactionEvent{
			TransactionHash: tx.TransactionHash,
			Status:          status,
			Error:           reason,
			Timestamp:       m.sched.Now(),
		})
	}
}

func (m *transactionMonitor) balancesForAddress(address string) []Balance {
	m.balancesLock.RLock()
	defer m.balancesLock.RUnlock()

	balances := make([]Balance, 0)
	if address == "" {
		return balances
	}
	for _, b := range m.balances {
		if b.Address == address {
			balances = append(balances, b)
		}
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Asset < balances[j].Asset
	})
	return balances
}

func (m *transactionMonitor) eventTime(msg realtime.Message) time.Time {
	if msg.Timestamp <= 0 {
		return m.sched.Now()
	}
	return msg.Time()
}

func (d transactionEventData) toDomain(
	at time.Time,
) (domain.TransactionEvent, error) {
	hash := d.TransactionHash
	if hash == "" {
		hash = d.Hash
	}
	status, err := domain.ParseTransactionStatus(d.Status)
	if err != nil {
		return domain.TransactionEvent{}, err
	}
	if !status.IsTerminal() {
		return domain.TransactionEvent{}, fmt.Errorf("status %s is not final", status)
	}

	var asset domain.Asset
	if d.Asset != "" {
		if asset, err = domain.ParseAsset(d.Asset); err != nil {
			return domain.TransactionEvent{}, err
		}
	}

	return domain.TransactionEvent{
		TransactionHash: hash,
		Status:          status,
		Amount:          d.Amount,
		Asset:           asset,
		Error:           d.Error,
		Timestamp:       at,
	}, nil
}
