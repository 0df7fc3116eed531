// Package config loads application configuration from defaults, an optional
// YAML file, and ELECTIONS_-prefixed environment variables, in that order of
// precedence (environment wins).
package config
