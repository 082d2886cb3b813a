package pubsub

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

// SubscriptionStore persists webhook subscriptions.
type SubscriptionStore interface {
	Add(sub Subscription) error
	// Remove returns whether a subscription with the given id existed and
	// belonged to the owner. Other owners' subscriptions are left untouched.
	Remove(owner, id string) (bool, error)
	// ListByTopic returns the owner's subscriptions for the topic, or all of
	// them if the topic is empty, sorted by id.
	ListByTopic(owner, topic string) ([]Subscription, error)
	Close() error
}

type inmemoryStore struct {
	lock *sync.RWMutex
	subs map[string]Subscription
}

// NewInmemoryStore returns a SubscriptionStore that doesn't survive
// restarts.
func NewInmemoryStore() SubscriptionStore {
	return &inmemoryStore{&sync.RWMutex{}, make(map[string]Subscription)}
}

func (s *inmemoryStore) Add(sub Subscription) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.subs[sub.ID] = sub
	return nil
}

func (s *inmemoryStore) Remove(owner, id string) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if sub, ok := s.subs[id]; !ok || sub.Owner != owner {
		return false, nil
	}
	delete(s.subs, id)
	return true, nil
}

func (s *inmemoryStore) ListByTopic(
	owner, topic string,
) ([]Subscription, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	subs := make([]Subscription, 0)
	for _, sub := range s.subs {
		if sub.Owner != owner {
			continue
		}
		if topic == "" || sub.Event == topic {
			subs = append(subs, sub)
		}
	}
	sortByID(subs)
	return subs, nil
}

func (s *inmemoryStore) Close() error { return nil }

type badgerStore struct {
	store *badgerhold.Store
}

// NewBadgerStore returns a SubscriptionStore persisted in a dedicated badger
// db under the given datadir. An empty datadir makes the db in-memory.
func NewBadgerStore(
	baseDbDir string, logger badger.Logger,
) (SubscriptionStore, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "pubsub")
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if len(dbDir) <= 0 {
		opts.InMemory = true
	}

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, fmt.Errorf("opening pubsub db: %w", err)
	}
	return &badgerStore{store}, nil
}

func (s *badgerStore) Add(sub Subscription) error {
	return s.store.Upsert(sub.ID, sub)
}

func (s *badgerStore) Remove(owner, id string) (bool, error) {
	var removed bool
	err := s.store.Badger().Update(func(tx *badger.Txn) error {
		var sub Subscription
		if err := s.store.TxGet(tx, id, &sub); err != nil {
			if err == badgerhold.ErrNotFound {
				return nil
			}
			return err
		}
		if sub.Owner != owner {
			return nil
		}
		if err := s.store.TxDelete(tx, id, Subscription{}); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *badgerStore) ListByTopic(
	owner, topic string,
) ([]Subscription, error) {
	query := badgerhold.Where("Owner").Eq(owner)
	if topic != "" {
		query = query.And("Event").Eq(topic)
	}

	subs := make([]Subscription, 0)
	if err := s.store.Find(&subs, query); err != nil {
		return nil, err
	}
	sortByID(subs)
	return subs, nil
}

func (s *badgerStore) Close() error {
	return s.store.Close()
}

func sortByID(subs []Subscription) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].ID < subs[j].ID
	})
}
