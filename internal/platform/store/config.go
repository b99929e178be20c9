package store

import (
	"time"

	"lexiscan/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG    PGConfig
	CH    CHConfig
	Redis RedisConfig
	ES    ESConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled    bool
	URL        string
	ClientName string
	ClientTag  string
}

// RedisConfig configures redis connectivity
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// ESConfig configures elasticsearch connectivity
type ESConfig struct {
	Enabled   bool
	Addresses []string
	Username  string
	Password  string
}

// FromConfig reads backend settings from env under root, e.g. LEXISCAN_PG_ENABLED
// role tags clickhouse client info and the postgres application_name
func FromConfig(root config.Conf, role string) Config {
	pg := root.Prefix("PG_")
	ch := root.Prefix("CH_")
	rd := root.Prefix("REDIS_")
	es := root.Prefix("ES_")

	out := Config{
		AppName: "lexiscan-" + role,
		PG: PGConfig{
			Enabled:        pg.MayBool("ENABLED", false),
			MaxConns:       int32(pg.MayPositiveInt("MAX_CONNS", 4)),
			SlowQueryMs:    pg.MayInt("SLOW_MS", 500),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			ConnectRetries: pg.MayPositiveInt("CONNECT_RETRIES", 20),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			Enabled:    ch.MayBool("ENABLED", false),
			ClientName: "lexiscan",
			ClientTag:  role,
		},
		Redis: RedisConfig{
			Enabled:  rd.MayBool("ENABLED", false),
			Addr:     rd.MayString("ADDR", "127.0.0.1:6379"),
			Password: rd.MayString("PASSWORD", ""),
			DB:       rd.MayInt("DB", 0),
		},
		ES: ESConfig{
			Enabled:   es.MayBool("ENABLED", false),
			Addresses: es.MayCSV("ADDRESSES", []string{"http://127.0.0.1:9200"}),
			Username:  es.MayString("USERNAME", ""),
			Password:  es.MayString("PASSWORD", ""),
		},
	}
	// a URL is only required once the backend is switched on
	if out.PG.Enabled {
		out.PG.URL = pg.MustString("DBURL")
	}
	if out.CH.Enabled {
		out.CH.URL = ch.MustString("DBURL")
	}
	return out
}

// Any reports whether at least one backend is enabled
func (c Config) Any() bool {
	return c.PG.Enabled || c.CH.Enabled || c.Redis.Enabled || c.ES.Enabled
}
