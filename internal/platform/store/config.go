package store

import (
	"time"

	"churnops/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG   PGConfig
	Lite LiteConfig
	CH   CHConfig
	RDS  RedisConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // 20 when zero
	PingTimeout    time.Duration // 3s when zero
}

// LiteConfig configures the embedded sqlite database
type LiteConfig struct {
	Enabled bool
	// Path is a file path or ":memory:"
	Path        string
	BusyTimeout time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
	Role    string
}

// RedisConfig configures redis connectivity
type RedisConfig struct {
	Enabled bool
	// URL wins over Addr when set, e.g. redis://localhost:6379/0
	URL  string
	Addr string
	DB   int
}

// ConfigFromEnv reads CORE_PG_*, CORE_SQLITE_*, CORE_CH_* and CORE_REDIS_*
func ConfigFromEnv(app string) Config {
	pg := config.New().Prefix("CORE_PG_")
	lite := config.New().Prefix("CORE_SQLITE_")
	ch := config.New().Prefix("CORE_CH_")
	rds := config.New().Prefix("CORE_REDIS_")

	return Config{
		AppName: app,
		PG: PGConfig{
			Enabled:        pg.MayBool("ENABLED", false),
			URL:            pg.MayString("URL", ""),
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 8)),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			SlowQueryMs:    pg.MayInt("SLOW_MS", 250),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		Lite: LiteConfig{
			Enabled:     lite.MayBool("ENABLED", false),
			Path:        lite.MayString("PATH", "churnops.db"),
			BusyTimeout: lite.MayDuration("BUSY_TIMEOUT", 5*time.Second),
		},
		CH: CHConfig{
			Enabled: ch.MayBool("ENABLED", false),
			URL:     ch.MayString("URL", ""),
			Role:    app,
		},
		RDS: RedisConfig{
			Enabled: rds.MayBool("ENABLED", false),
			URL:     rds.MayString("URL", ""),
			Addr:    rds.MayString("ADDR", "localhost:6379"),
			DB:      rds.MayInt("DB", 0),
		},
	}
}
