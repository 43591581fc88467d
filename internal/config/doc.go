// ABOUTME: Configuration package documentation
// ABOUTME: Describes how file values and flags combine
// Package config loads the YAML configuration shared by the bridge and
// peer server commands. Command-line flags override file values.
package config
