package module

import (
	"time"

	"lexiscan/internal/platform/config"
)

// History sources
const (
	HistoryAuto  = "auto"
	HistoryNone  = "none"
	HistoryFile  = "file"
	HistoryPG    = "postgres"
	HistoryRedis = "redis"
)

// Options controls extraction behavior. Values may also be read from env
type Options struct {
	Variants []string
	Workers  int
	Order    string // dfs or bfs
	Parallel bool

	// Retry knobs
	MaxRetries     int // 0 -> unbounded
	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// Autocomplete endpoint
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	ProfileFile   string
	ProgressEvery time.Duration
	Window        time.Duration // rate window the profile limits apply to

	// Persistence
	OutDir     string
	History    string
	ESIndex    string
	ProbeBatch int
	Migrate    bool

	// HTTP status surface, owned by the binary
	StatusAddr string
	Pprof      bool
}

// FromConfig reads options using the EXTRACT_ prefix
func FromConfig(cfg config.Conf) Options {
	ex := cfg.Prefix("EXTRACT_")
	return Options{
		Variants:       ex.MayCSV("VARIANTS", []string{"v1", "v2", "v3"}),
		Workers:        ex.MayPositiveInt("WORKERS", 1),
		Order:          ex.MayEnum("ORDER", "dfs", "dfs", "bfs"),
		Parallel:       ex.MayBool("PARALLEL", false),
		MaxRetries:     ex.MayInt("MAX_RETRIES", 10),
		BackoffInitial: ex.MayDuration("BACKOFF_INITIAL", time.Second),
		BackoffMax:     ex.MayDuration("BACKOFF_MAX", 60*time.Second),
		BaseURL:        ex.MayURL("BASE_URL", "http://localhost:8000"),
		UserAgent:      ex.MayString("USER_AGENT", "lexiscan-extract"),
		Timeout:        ex.MayDuration("TIMEOUT", 5*time.Second),
		ProfileFile:    ex.MayString("PROFILE_FILE", ""),
		ProgressEvery:  ex.MayDuration("PROGRESS_EVERY", 5*time.Second),
		Window:         ex.MayDuration("WINDOW", time.Minute),
		OutDir:         ex.MayString("OUT_DIR", "out"),
		History:        ex.MayEnum("HISTORY", HistoryAuto, HistoryAuto, HistoryNone, HistoryFile, HistoryPG, HistoryRedis),
		ESIndex:        ex.MayString("ES_INDEX", "lexiscan-names"),
		ProbeBatch:     ex.MayPositiveInt("PROBE_BATCH", 1000),
		Migrate:        ex.MayBool("MIGRATE", true),
		StatusAddr:     ex.MayString("STATUS_ADDR", ""),
		Pprof:          ex.MayBool("PPROF", false),
	}
}

// merge applies the non-zero fields of o over base
func (base Options) merge(o Options) Options {
	if len(o.Variants) > 0 {
		base.Variants = o.Variants
	}
	if o.Workers > 0 {
		base.Workers = o.Workers
	}
	if o.Order != "" {
		base.Order = o.Order
	}
	if o.Parallel {
		base.Parallel = true
	}
	if o.MaxRetries != 0 {
		base.MaxRetries = o.MaxRetries
	}
	if o.BackoffInitial > 0 {
		base.BackoffInitial = o.BackoffInitial
	}
	if o.BackoffMax > 0 {
		base.BackoffMax = o.BackoffMax
	}
	if o.BaseURL != "" {
		base.BaseURL = o.BaseURL
	}
	if o.UserAgent != "" {
		base.UserAgent = o.UserAgent
	}
	if o.Timeout > 0 {
		base.Timeout = o.Timeout
	}
	if o.ProfileFile != "" {
		base.ProfileFile = o.ProfileFile
	}
	if o.ProgressEvery > 0 {
		base.ProgressEvery = o.ProgressEvery
	}
	if o.Window > 0 {
		base.Window = o.Window
	}
	if o.OutDir != "" {
		base.OutDir = o.OutDir
	}
	if o.History != "" {
		base.History = o.History
	}
	if o.ESIndex != "" {
		base.ESIndex = o.ESIndex
	}
	if o.ProbeBatch > 0 {
		base.ProbeBatch = o.ProbeBatch
	}
	if o.StatusAddr != "" {
		base.StatusAddr = o.StatusAddr
	}
	if o.Pprof {
		base.Pprof = true
	}
	return base
}
