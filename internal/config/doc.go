// Package config provides centralized configuration management for shipdash.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), including a local .env file
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SHIPDASH_<SECTION>_<FIELD>:
//
//	SHIPDASH_SERVER_PORT=8080
//	SHIPDASH_DATA_FILE=data/ship_bigdata.csv
//	SHIPDASH_DATA_ALIGNMENT=pairwise
//	SHIPDASH_LOGGING_LEVEL=debug
//	SHIPDASH_TELEMETRY_TRACE_EXPORTER=stdout
//
// SHIPDASH_CONFIG_FILE points at a YAML file explicitly; otherwise config.yaml
// and configs/config.yaml are searched.
//
// # Validation
//
// All configuration is validated at load time with struct tags
// (go-playground/validator) plus cross-field rules:
//
//	- Ports, timeouts and rates are within range
//	- Enumerations (log level, alignment, exporters) hold known values
//	- CORS and rate limiting are complete when enabled
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing
//
// For testing, use config.Default() to get a configuration with sensible
// defaults that does not read the environment or any file.
package config
