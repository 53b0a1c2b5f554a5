// Package config loads and validates the TOML configuration for the appunti
// client. Defaults, normalization, and validation are split so each concern
// stays small: Default seeds a full config, normalize trims and back-fills,
// Validate rejects inconsistent documents.
package config
