package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/flagx"
	"github.com/dmitrijs2005/cardkeep/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer fields
// tell "absent" apart from a zero value, so a partial file only overrides what
// it names. Intervals use timex.Duration ("5s" or integer nanoseconds).
type JsonConfig struct {
	DatabaseDSN          *string             `json:"database_dsn"`
	SigningKey           *string             `json:"signing_key"`
	Pepper               *string             `json:"pepper"`
	IdleTTLSeconds       *int64              `json:"idle_ttl_seconds"`
	AbsoluteTTLSeconds   *int64              `json:"absolute_ttl_seconds"`
	TouchFraction        *float64            `json:"touch_fraction"`
	HashCostParameters   *JsonHashParameters `json:"hash_cost_parameters"`
	SessionCheckInterval *timex.Duration     `json:"session_check_interval"`
	CleanupInterval      *timex.Duration     `json:"cleanup_interval"`
	LogLevel             *string             `json:"log_level"`
}

type JsonHashParameters struct {
	TimeCost    *uint32 `json:"time_cost"`
	MemoryCost  *uint32 `json:"memory_cost"`
	Parallelism *uint32 `json:"parallelism"`
}

// parseJson overlays cfg with the file named by -c/-config in args.
// Read or unmarshal errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	if jc.DatabaseDSN != nil {
		cfg.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.SigningKey != nil {
		cfg.SigningKey = *jc.SigningKey
	}
	if jc.Pepper != nil {
		cfg.Pepper = *jc.Pepper
	}
	if jc.IdleTTLSeconds != nil {
		cfg.IdleTTL = time.Duration(*jc.IdleTTLSeconds) * time.Second
	}
	if jc.AbsoluteTTLSeconds != nil {
		cfg.AbsoluteTTL = time.Duration(*jc.AbsoluteTTLSeconds) * time.Second
	}
	if jc.TouchFraction != nil {
		cfg.TouchFraction = *jc.TouchFraction
	}
	if h := jc.HashCostParameters; h != nil {
		if h.TimeCost != nil {
			cfg.HashTimeCost = *h.TimeCost
		}
		if h.MemoryCost != nil {
			cfg.HashMemoryCost = *h.MemoryCost
		}
		if h.Parallelism != nil {
			cfg.HashParallelism = *h.Parallelism
		}
	}
	if jc.SessionCheckInterval != nil {
		cfg.SessionCheckInterval = jc.SessionCheckInterval.Duration
	}
	if jc.CleanupInterval != nil {
		cfg.CleanupInterval = jc.CleanupInterval.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
