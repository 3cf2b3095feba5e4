// Package config loads runtime settings for cardkeep.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults (LoadDefaults)
//  2. a JSON file named by -c or -config
//  3. environment: APP_SECRET, APP_PEPPER, APP_DATABASE_DSN
//  4. short command-line flags
//
// The result is checked by Validate before use.
package config
