package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/paystell/paystell-daemon/internal/core/application"
	"github.com/spf13/viper"
)

const (
	// ListeningPortKey is the port where the HTTP interface will listen on
	ListeningPortKey = "LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// ReplayStoreTypeKey selects where the hashes of processed transactions
	// are kept. Multiple instances of the daemon must share a redis store.
	ReplayStoreTypeKey = "REPLAY_STORE_TYPE"
	// ReplayCacheSizeKey is the max number of processed transaction hashes
	// remembered before the oldest ones are evicted
	ReplayCacheSizeKey = "REPLAY_CACHE_SIZE"
	// RedisAddrKey is the <host:port> of the redis server used as replay store
	RedisAddrKey = "REDIS_ADDR"
	// DepositTTLKey is how long a deposit request stays open
	DepositTTLKey = "DEPOSIT_TTL"
	// RealtimeURLKey is the websocket url of the realtime event server. The
	// realtime channel is disabled if not set
	RealtimeURLKey          = "REALTIME_URL"
	PingIntervalKey         = "PING_INTERVAL"
	ReconnectBaseDelayKey   = "RECONNECT_BASE_DELAY"
	MaxReconnectAttemptsKey = "MAX_RECONNECT_ATTEMPTS"
	// OptimisticTxTimeoutKey is the time after which a pending transaction
	// is considered failed
	OptimisticTxTimeoutKey = "OPTIMISTIC_TX_TIMEOUT"
	// OptimisticTxRetentionKey is how long settled transactions are kept
	OptimisticTxRetentionKey = "OPTIMISTIC_TX_RETENTION"
	// ReconcileWindowKey is the max time distance between a transaction and
	// an event matching it by amount and asset
	ReconcileWindowKey = "RECONCILE_WINDOW"
	SweepIntervalKey   = "SWEEP_INTERVAL"
	PollIntervalKey    = "POLL_INTERVAL"
	// HorizonURLKey is the endpoint of the Horizon server used to submit and
	// look up transactions
	HorizonURLKey            = "HORIZON_URL"
	HorizonRequestTimeoutKey = "HORIZON_REQUEST_TIMEOUT"
	// HorizonRateLimitKey is the number of requests per second to Horizon
	HorizonRateLimitKey = "HORIZON_RATE_LIMIT"
	HorizonRateBurstKey = "HORIZON_RATE_BURST"
	// CorsAllowedOriginsKey is a comma separated list of origins allowed to
	// call the HTTP interface
	CorsAllowedOriginsKey = "CORS_ALLOWED_ORIGINS"
	// StatsIntervalKey defines interval in seconds for printing basic statistics
	StatsIntervalKey = "STATS_INTERVAL"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"

	DbLocation       = "db"
	ProfilerLocation = "stats"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("paystell-daemon", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("PAYSTELL")
	vip.AutomaticEnv()

	vip.SetDefault(ListeningPortKey, 8080)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(ReplayStoreTypeKey, application.ReplayStoreInmemory)
	vip.SetDefault(ReplayCacheSizeKey, 10000)
	vip.SetDefault(RedisAddrKey, "localhost:6379")
	vip.SetDefault(DepositTTLKey, 30*time.Minute)
	vip.SetDefault(PingIntervalKey, 30*time.Second)
	vip.SetDefault(ReconnectBaseDelayKey, time.Second)
	vip.SetDefault(MaxReconnectAttemptsKey, 5)
	vip.SetDefault(OptimisticTxTimeoutKey, 5*time.Minute)
	vip.SetDefault(OptimisticTxRetentionKey, 24*time.Hour)
	vip.SetDefault(ReconcileWindowKey, 5*time.Minute)
	vip.SetDefault(SweepIntervalKey, application.DefaultSweepInterval)
	vip.SetDefault(PollIntervalKey, application.DefaultPollInterval)
	vip.SetDefault(HorizonURLKey, "https://horizon-testnet.stellar.org")
	vip.SetDefault(HorizonRequestTimeoutKey, 30*time.Second)
	vip.SetDefault(HorizonRateLimitKey, 10)
	vip.SetDefault(HorizonRateBurstKey, 1)
	vip.SetDefault(CorsAllowedOriginsKey, "*")
	vip.SetDefault(StatsIntervalKey, 600)
	vip.SetDefault(EnableProfilerKey, false)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

// GetStringSlice splits comma separated values, as set via env.
func GetStringSlice(key string) []string {
	list := make([]string, 0)
	for _, v := range strings.Split(vip.GetString(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDatadir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

func GetProfilerDatadir() string {
	return filepath.Join(GetDatadir(), ProfilerLocation)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, ok := application.SupportedDBType[GetString(DBTypeKey)]; !ok {
		return fmt.Errorf(
			"%s must be either %q or %q",
			DBTypeKey, application.DBInmemory, application.DBBadger,
		)
	}

	switch GetString(ReplayStoreTypeKey) {
	case application.ReplayStoreInmemory:
	case application.ReplayStoreRedis:
		if GetString(RedisAddrKey) == "" {
			return fmt.Errorf("missing redis address for replay store")
		}
	default:
		return fmt.Errorf(
			"%s must be either %q or %q", ReplayStoreTypeKey,
			application.ReplayStoreInmemory, application.ReplayStoreRedis,
		)
	}

	if GetInt(ReplayCacheSizeKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", ReplayCacheSizeKey)
	}

	for _, key := range []string{
		DepositTTLKey, PingIntervalKey, ReconnectBaseDelayKey,
		OptimisticTxTimeoutKey, OptimisticTxRetentionKey, ReconcileWindowKey,
		SweepIntervalKey, PollIntervalKey, HorizonRequestTimeoutKey,
	} {
		if GetDuration(key) <= 0 {
			return fmt.Errorf("%s must be a positive duration", key)
		}
	}

	if GetInt(MaxReconnectAttemptsKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", MaxReconnectAttemptsKey)
	}

	if err := validateURL(GetString(HorizonURLKey), "http", "https"); err != nil {
		return fmt.Errorf("horizon url is not valid: %s", err)
	}
	if realtimeURL := GetString(RealtimeURLKey); realtimeURL != "" {
		if err := validateURL(realtimeURL, "ws", "wss"); err != nil {
			return fmt.Errorf("realtime url is not valid: %s", err)
		}
	}

	if GetFloat(HorizonRateLimitKey) <= 0 || GetInt(HorizonRateBurstKey) <= 0 {
		return fmt.Errorf("horizon rate limit and burst must be greater than zero")
	}

	if GetInt(StatsIntervalKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", StatsIntervalKey)
	}

	return nil
}

func validateURL(rawURL string, schemes ...string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be an absolute %s url", rawURL, strings.Join(schemes, "/"))
}

func initDatadir() error {
	if GetString(DBTypeKey) == application.DBBadger {
		if err := makeDirectoryIfNotExists(GetDbDatadir()); err != nil {
			return err
		}
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(GetProfilerDatadir()); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
