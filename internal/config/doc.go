// Package config provides centralized configuration management for powerstats.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for the dataset layouts the loaders expect.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern POWERSTATS_* for namespacing:
//
//	POWERSTATS_HOURLY_DIR=/data/all-country-data
//	POWERSTATS_MONTHLY_SKIP_ROWS=7
//	POWERSTATS_CACHE_POLICY=content
//	POWERSTATS_LOGGING_LEVEL=debug
//
// Indicator sources are a list and can only be given in the YAML file.
//
// # Validation
//
// Validate runs go-playground/validator over the struct tags: worker counts,
// known cache policies, log levels and indicator presets.
package config
