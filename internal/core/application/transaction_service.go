package application

import (
	"context"
	"errors"
	"sync"

	"github.com/paystell/paystell-daemon/internal/core/application/optimistic"
	"github.com/paystell/paystell-daemon/internal/core/application/pubsub"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	"github.com/paystell/paystell-daemon/pkg/replayguard"
	"github.com/paystell/paystell-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
)

// TransactionService submits signed transactions to the network on behalf of
// users. A signed envelope is accepted only once, and the transaction is
// tracked optimistically from the moment it's accepted.
type TransactionService interface {
	// SubmitTransaction accepts the transaction and returns it as pending.
	// The submission to the network happens in background.
	SubmitTransaction(
		ctx context.Context, requester Requester, req SubmitTransactionReq,
	) (*domain.OptimisticTransaction, error)
	// ListTransactions returns the transactions of the requester, optionally
	// filtered by status, in submission order.
	ListTransactions(
		ctx context.Context, requester Requester, status string,
	) ([]domain.OptimisticTransaction, error)
	// Close waits for the submissions in flight.
	Close()
}

type transactionService struct {
	guard   *replayguard.Guard
	queue   *optimistic.Queue
	network ports.Network
	pubsub  *pubsub.Service
	clock   Clock

	wg sync.WaitGroup
}

func NewTransactionService(
	guard *replayguard.Guard, queue *optimistic.Queue, network ports.Network,
	pubsubSvc *pubsub.Service, clock Clock,
) TransactionService {
	return &transactionService{
		guard:   guard,
		queue:   queue,
		network: network,
		pubsub:  pubsubSvc,
		clock:   clock,
	}
}

func (s *transactionService) SubmitTransaction(
	ctx context.Context, requester Requester, req SubmitTransactionReq,
) (*domain.OptimisticTransaction, error) {
	if requester.UserID == "" {
		return nil, ErrMissingRequester
	}
	if req.Envelope == "" {
		return nil, domain.ErrMissingEnvelope
	}

	draft, err := parseDraft(requester, req)
	if err != nil {
		return nil, err
	}

	hash, err := s.guard.ValidateAndReserve(ctx, req.Envelope)
	if err != nil {
		if errors.Is(err, replayguard.ErrTransactionAlreadyProcessed) {
			stats.ReplayRejections.Inc()
			log.WithField("payload_hash", replayguard.Hash(req.Envelope)).
				Warn("rejected replayed transaction")
		}
		return nil, err
	}

	id, err := s.queue.Submit(draft)
	if err != nil {
		return nil, err
	}
	tx, err := s.queue.Get(id)
	if err != nil {
		return nil, err
	}
	s.pubsub.PublishTransactionEvent(*tx)

	log.WithFields(log.Fields{
		"id":           id,
		"payload_hash": hash,
	}).Debug("transaction accepted")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.submit(id, draft, req.Envelope)
	}()

	return tx, nil
}

func (s *transactionService) ListTransactions(
	_ context.Context, requester Requester, status string,
) ([]domain.OptimisticTransaction, error) {
	if requester.UserID == "" {
		return nil, ErrMissingRequester
	}

	var st domain.TransactionStatus
	if status != "" {
		parsed, err := domain.ParseTransactionStatus(status)
		if err != nil {
			return nil, err
		}
		st = parsed
	}

	txs := s.queue.ListForOwner(requester.UserID)
	if st == "" {
		return txs, nil
	}
	filtered := make([]domain.OptimisticTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Status == st {
			filtered = append(filtered, tx)
		}
	}
	return filtered, nil
}

func (s *transactionService) Close() {
	s.wg.Wait()
}

func (s *transactionService) submit(
	id string, draft domain.TransactionDraft, envelope string,
) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	logger := log.WithField("id", id)

	res, err := s.network.SubmitTransaction(ctx, envelope)
	if err != nil {
		if errors.Is(err, ports.ErrTransactionRejected) {
			logger.WithError(err).Debug("transaction rejected")
			if err := s.queue.Fail(id, err.Error()); err != nil {
				logger.WithError(err).Warn("failed to mark transaction as failed")
				return
			}
			s.publishTransaction(id)
			return
		}
		// The transaction might still be included, it's left pending and will
		// be settled by a network event or by the timeout sweep.
		logger.WithError(err).Warn("transaction submission outcome unknown")
		if res != nil && res.GetHash() != "" {
			//nolint
			s.queue.AttachHash(id, res.GetHash())
		}
		return
	}

	if err := s.queue.AttachHash(id, res.GetHash()); err != nil {
		logger.WithError(err).Warn("failed to attach hash to transaction")
		return
	}

	status := domain.TransactionStatusConfirmed
	reason := ""
	if !res.IsSuccessful() {
		status = domain.TransactionStatusFailed
		reason = joinCodes(res.GetResultCodes())
	}
	settled, _ := s.queue.Settle(domain.TransactionEvent{
		TransactionHash: res.GetHash(),
		Status:          status,
		Amount:          &draft.Amount,
		Asset:           draft.Asset,
		Error:           reason,
		Timestamp:       s.clock.Now(),
	})
	if settled != nil {
		s.pubsub.PublishTransactionEvent(*settled)
	}
}

func (s *transactionService) publishTransaction(id string) {
	tx, err := s.queue.Get(id)
	if err != nil {
		return
	}
	s.pubsub.PublishTransactionEvent(*tx)
}
