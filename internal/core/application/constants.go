package application

import "time"

const (
	DBInmemory = "inmemory"
	DBBadger   = "badger"

	ReplayStoreInmemory = "inmemory"
	ReplayStoreRedis    = "redis"

	DefaultSweepInterval = 30 * time.Second
	DefaultPollInterval  = 15 * time.Second

	// submitTimeout bounds the background submission of a transaction.
	submitTimeout = 2 * time.Minute
)
