package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/flagx"
)

var ownFlags = []string{"-d", "-s", "-p", "-i", "-x", "-t", "-m", "-j", "-w", "-k", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   database DSN
//	-s string   token signing key
//	-p string   password pepper
//	-i int      idle timeout in seconds
//	-x int      absolute timeout in seconds
//	-t uint     argon2 time cost
//	-m uint     argon2 memory cost in KiB
//	-j uint     argon2 parallelism
//	-w int      session check interval in seconds
//	-k int      expired-session cleanup interval in seconds (0 disables)
//	-l string   log level
//
// args are filtered with flagx.FilterArgs so -c/-config and anything else
// owned by other loaders is ignored. Parse errors panic.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, ownFlags)

	fs := flag.NewFlagSet("cardkeep", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SigningKey, "s", cfg.SigningKey, "token signing key")
	fs.StringVar(&cfg.Pepper, "p", cfg.Pepper, "password pepper")
	idle := fs.Int64("i", int64(cfg.IdleTTL/time.Second), "idle timeout (in seconds)")
	absolute := fs.Int64("x", int64(cfg.AbsoluteTTL/time.Second), "absolute timeout (in seconds)")
	timeCost := fs.Uint("t", uint(cfg.HashTimeCost), "argon2 time cost")
	memoryCost := fs.Uint("m", uint(cfg.HashMemoryCost), "argon2 memory cost (KiB)")
	parallelism := fs.Uint("j", uint(cfg.HashParallelism), "argon2 parallelism")
	watch := fs.Int64("w", int64(cfg.SessionCheckInterval/time.Second), "session check interval (in seconds)")
	cleanup := fs.Int64("k", int64(cfg.CleanupInterval/time.Second), "cleanup interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only overwrite durations that were given, so sub-second JSON values
	// survive a flag-less run.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.IdleTTL = time.Duration(*idle) * time.Second
		case "x":
			cfg.AbsoluteTTL = time.Duration(*absolute) * time.Second
		case "t":
			cfg.HashTimeCost = uint32(*timeCost)
		case "m":
			cfg.HashMemoryCost = uint32(*memoryCost)
		case "j":
			cfg.HashParallelism = uint32(*parallelism)
		case "w":
			cfg.SessionCheckInterval = time.Duration(*watch) * time.Second
		case "k":
			cfg.CleanupInterval = time.Duration(*cleanup) * time.Second
		}
	})
}
