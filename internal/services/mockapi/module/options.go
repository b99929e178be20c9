package module

import (
	"time"

	"lexiscan/internal/platform/config"
)

// Vocabulary sources
const (
	SourceMemory = "memory"
	SourceRedis  = "redis"
)

// Options controls the mock service. Values may also be read from env
type Options struct {
	Source      string // memory or redis
	WordsFile   string // seeds every variant that accepts the names
	Generate    int    // generated names per variant when no word file is given
	Seed        uint64
	MinLen      int
	MaxLen      int
	ProfileFile string

	Throttle bool
	Window   time.Duration
	Version  string

	CORSOrigins []string
}

// FromConfig reads options using the MOCK_ prefix
func FromConfig(cfg config.Conf) Options {
	mc := cfg.Prefix("MOCK_")
	return Options{
		Source:      mc.MayEnum("SOURCE", SourceMemory, SourceMemory, SourceRedis),
		WordsFile:   mc.MayString("WORDS_FILE", ""),
		Generate:    mc.MayInt("GENERATE", 2000),
		Seed:        uint64(mc.MayInt("SEED", 1)),
		MinLen:      mc.MayPositiveInt("MIN_LEN", 1),
		MaxLen:      mc.MayPositiveInt("MAX_LEN", 8),
		ProfileFile: mc.MayString("PROFILE_FILE", ""),
		Throttle:    mc.MayBool("THROTTLE", true),
		Window:      mc.MayDuration("WINDOW", time.Minute),
		Version:     mc.MayString("VERSION", "1.0"),
		CORSOrigins: mc.MayCSV("CORS_ORIGINS", []string{"*"}),
	}
}
