package dbbadger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	valueLogGCInterval = 30 * time.Minute

	maxTxAttempts = 5
	txRetryDelay  = 10 * time.Millisecond
)

// RepoManager holds the badgerhold store backing the deposit and monitoring
// repositories.
type RepoManager struct {
	store    *badgerhold.Store
	quitChan chan struct{}

	depositRepository    domain.DepositRepository
	monitoringRepository domain.MonitoringRepository
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// It expects a base data dir and an optional logger. An empty data dir makes
// the store in-memory.
func NewRepoManager(
	baseDbDir string, logger badger.Logger,
) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "main")
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening main db: %w", err)
	}

	quitChan := make(chan struct{})
	if len(dbDir) > 0 {
		go runValueLogGC(store, quitChan)
	}

	return &RepoManager{
		store:                store,
		quitChan:             quitChan,
		depositRepository:    NewDepositRepositoryImpl(store),
		monitoringRepository: NewMonitoringRepositoryImpl(store),
	}, nil
}

func (d *RepoManager) DepositRepository() domain.DepositRepository {
	return d.depositRepository
}

func (d *RepoManager) MonitoringRepository() domain.MonitoringRepository {
	return d.monitoringRepository
}

func (d *RepoManager) Close() {
	close(d.quitChan)
	if err := d.store.Close(); err != nil {
		log.WithError(err).Warn("error while closing db")
	}
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

// updateWithRetry runs fn in a read-write transaction, retrying it from
// scratch when the commit conflicts with a concurrent one. fn must not keep
// state across attempts.
func updateWithRetry(store *badgerhold.Store, fn func(tx *badger.Txn) error) error {
	for attempt := 1; ; attempt++ {
		err := store.Badger().Update(fn)
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxTxAttempts {
			return err
		}
		log.WithField("attempt", attempt).Debug("db: transaction conflict, retrying")
		time.Sleep(time.Duration(attempt) * txRetryDelay)
	}
}

func runValueLogGC(store *badgerhold.Store, quitChan chan struct{}) {
	ticker := time.NewTicker(valueLogGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-quitChan:
			return
		case <-ticker.C:
			if err := store.Badger().RunValueLogGC(0.5); err != nil &&
				err != badger.ErrNoRewrite {
				log.Error(err)
			}
		}
	}
}
