package config

const (
	EnvSigningKey  = "APP_SECRET"
	EnvPepper      = "APP_PEPPER"
	EnvDatabaseDSN = "APP_DATABASE_DSN"
)

// parseEnv overlays the secrets and the DSN from the environment. Variables
// that are unset or empty leave the current value alone.
func parseEnv(cfg *Config, lookupEnv func(string) (string, bool)) {
	if lookupEnv == nil {
		return
	}
	if v, ok := lookupEnv(EnvSigningKey); ok && v != "" {
		cfg.SigningKey = v
	}
	if v, ok := lookupEnv(EnvPepper); ok && v != "" {
		cfg.Pepper = v
	}
	if v, ok := lookupEnv(EnvDatabaseDSN); ok && v != "" {
		cfg.DatabaseDSN = v
	}
}
