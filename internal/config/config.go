package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/common"
	"github.com/dmitrijs2005/cardkeep/internal/cryptox"
	"github.com/dmitrijs2005/cardkeep/internal/logging"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds runtime settings. SigningKey and Pepper are secrets: they are
// redacted when the Config is logged.
type Config struct {
	DatabaseDSN string
	SigningKey  string
	Pepper      string

	IdleTTL       time.Duration
	AbsoluteTTL   time.Duration
	TouchFraction float64

	HashTimeCost    uint32
	HashMemoryCost  uint32 // KiB
	HashParallelism uint32

	SessionCheckInterval time.Duration
	CleanupInterval      time.Duration // 0 disables the sweeper

	LogLevel string
}

// userHomeDir is a seam for tests.
var userHomeDir = os.UserHomeDir

// DefaultDataDir is ~/.cardkeep, or .cardkeep in the working directory when
// the home directory is unknown.
func DefaultDataDir() string {
	home, err := userHomeDir()
	if err != nil || home == "" {
		return common.AppDirName
	}
	return filepath.Join(home, common.AppDirName)
}

// DefaultTouchFraction is the share of the idle window that must pass before
// last_seen is refreshed again.
const DefaultTouchFraction = 0.5

// LoadDefaults populates c with the default policy.
func (c *Config) LoadDefaults() {
	params := cryptox.DefaultHashParams()

	c.DatabaseDSN = filepath.Join(DefaultDataDir(), "auth.db")
	c.SigningKey = ""
	c.Pepper = ""
	c.IdleTTL = 30 * time.Minute
	c.AbsoluteTTL = 8 * time.Hour
	c.TouchFraction = DefaultTouchFraction
	c.HashTimeCost = params.Time
	c.HashMemoryCost = params.Memory
	c.HashParallelism = uint32(params.Parallelism)
	c.SessionCheckInterval = 5 * time.Second
	c.CleanupInterval = 0
	c.LogLevel = "info"
}

// HashParams converts the cost settings into hasher parameters.
func (c *Config) HashParams() cryptox.HashParams {
	p := cryptox.DefaultHashParams()
	p.Time = c.HashTimeCost
	p.Memory = c.HashMemoryCost
	p.Parallelism = uint8(c.HashParallelism)
	return p
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return fmt.Errorf("%w: database dsn is empty", ErrInvalid)
	case c.IdleTTL <= 0:
		return fmt.Errorf("%w: idle ttl must be positive", ErrInvalid)
	case c.AbsoluteTTL <= 0:
		return fmt.Errorf("%w: absolute ttl must be positive", ErrInvalid)
	case c.TouchFraction <= 0 || c.TouchFraction >= 1:
		return fmt.Errorf("%w: touch fraction must be in (0, 1)", ErrInvalid)
	case c.HashTimeCost == 0:
		return fmt.Errorf("%w: hash time cost must be positive", ErrInvalid)
	case c.HashParallelism == 0 || c.HashParallelism > 255:
		return fmt.Errorf("%w: hash parallelism must be in [1, 255]", ErrInvalid)
	case c.HashMemoryCost < 8*c.HashParallelism:
		return fmt.Errorf("%w: hash memory cost must be at least 8 KiB per lane", ErrInvalid)
	case c.SessionCheckInterval <= 0:
		return fmt.Errorf("%w: session check interval must be positive", ErrInvalid)
	case c.CleanupInterval < 0:
		return fmt.Errorf("%w: cleanup interval must not be negative", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// LogValue implements slog.LogValuer. Secrets only show whether they are set.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("database_dsn", c.DatabaseDSN),
		slog.String("signing_key", redact(c.SigningKey)),
		slog.String("pepper", redact(c.Pepper)),
		slog.Duration("idle_ttl", c.IdleTTL),
		slog.Duration("absolute_ttl", c.AbsoluteTTL),
		slog.Float64("touch_fraction", c.TouchFraction),
		slog.Any("hash_time_cost", c.HashTimeCost),
		slog.Any("hash_memory_cost", c.HashMemoryCost),
		slog.Any("hash_parallelism", c.HashParallelism),
		slog.Duration("session_check_interval", c.SessionCheckInterval),
		slog.Duration("cleanup_interval", c.CleanupInterval),
		slog.String("log_level", c.LogLevel),
	)
}

func redact(s string) string {
	if s == "" {
		return "unset"
	}
	return "[redacted]"
}

// Load builds a Config from defaults, the JSON file and flags in args, and
// the environment seen through lookupEnv. Malformed flags or JSON panic, like
// any other startup misconfiguration; policy errors are returned.
func Load(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, lookupEnv)
	parseFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}
