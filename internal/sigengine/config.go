package sigengine

import (
	"volarbv1/config"
)

// Config holds all env-parsed configuration for the signal engine service.
type Config struct {
	WSFeedURL          string
	RedisAddr          string
	RedisPassword      string
	SQLitePath         string
	JournalPath        string
	MetricsAddr        string
	Symbols            []string
	StartingCash       float64
	SnapshotIntervalS  int
	SnapshotKey        string
	StrategyConfigPath string
	RingCapacity       int
}

// LoadConfig reads all environment variables and returns a Config.
func LoadConfig() Config {
	startingCash := config.GetEnvFloat("STARTING_CASH", 100000)
	if startingCash <= 0 {
		startingCash = 100000
	}

	snapshotInterval := config.GetEnvInt("SNAPSHOT_INTERVAL_SEC", 30)
	if snapshotInterval <= 0 {
		snapshotInterval = 30
	}

	ringCap := config.GetEnvInt("RING_CAPACITY", 4096)
	if ringCap <= 0 {
		ringCap = 4096
	}

	return Config{
		WSFeedURL:          config.GetEnv("WS_FEED_URL", "ws://localhost:9001/ws"),
		RedisAddr:          config.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      config.GetEnv("REDIS_PASSWORD", ""),
		SQLitePath:         config.GetEnv("SQLITE_PATH", "data/observations.db"),
		JournalPath:        config.GetEnv("JOURNAL_PATH", "data/journal.db"),
		MetricsAddr:        config.GetEnv("METRICS_ADDR", ":9096"),
		Symbols:            config.ParseList(config.GetEnv("SYMBOLS", "SPY")),
		StartingCash:       startingCash,
		SnapshotIntervalS:  snapshotInterval,
		SnapshotKey:        config.GetEnv("SNAPSHOT_KEY", "sig:snapshot:registry"),
		StrategyConfigPath: config.GetEnv("STRATEGY_CONFIG", ""),
		RingCapacity:       ringCap,
	}
}
