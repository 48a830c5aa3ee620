package store

import (
	"time"

	"marketfeed/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG   PGConfig
	CH   CHConfig
	NATS NATSConfig
	RDS  RedisConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
	// StatementTimeout is the server side cap per statement; 0 leaves the server default
	StatementTimeout time.Duration

	// boot knobs
	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string

	// ClientName is the process role reported to the server, e.g. "api"
	ClientName string
	ClientTag  string
}

// NATSConfig configures nats connectivity
type NATSConfig struct {
	Enabled bool
	URL     string
}

// RedisConfig configures redis connectivity
type RedisConfig struct {
	Enabled  bool
	Addr     string
	DB       int
	Password string
}

// ConfigFromEnv reads the SERVICE_* prefixes for every backend.
// role names the process in clickhouse client info and nats connection names
func ConfigFromEnv(root config.Conf, role string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	rd := root.Prefix("SERVICE_REDIS_")
	nt := root.Prefix("SERVICE_NATS_")

	return Config{
		AppName: "marketfeed-" + role,
		PG: PGConfig{
			Enabled:          pg.MayBool("ENABLED", true),
			URL:              pg.MayString("DBURL", ""),
			MaxConns:         int32(pg.MayInt("MAX_CONNS", 10)),
			LogSQL:           pg.MayBool("LOG_SQL", false),
			SlowQueryMs:      pg.MayInt("SLOW_MS", 250),
			StatementTimeout: pg.MayDuration("STATEMENT_TIMEOUT", 10*time.Second),
			ConnectRetries:   pg.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:      pg.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			Enabled:    ch.MayBool("ENABLED", false),
			URL:        ch.MayString("DBURL", ""),
			ClientName: role,
			ClientTag:  root.MayString("BUILD_TAG", "dev"),
		},
		RDS: RedisConfig{
			Enabled:  rd.MayBool("ENABLED", false),
			Addr:     rd.MayString("ADDR", "localhost:6379"),
			DB:       rd.MayInt("DB", 0),
			Password: rd.MayString("PASSWORD", ""),
		},
		NATS: NATSConfig{
			Enabled: nt.MayBool("ENABLED", false),
			URL:     nt.MayString("URL", "nats://localhost:4222"),
		},
	}
}
