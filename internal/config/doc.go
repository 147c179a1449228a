// Package config provides configuration structures and utilities for RedditLens.
// It defines the main configuration options for data collection, analysis,
// and report generation preferences, plus per-community overrides loaded
// from an optional YAML file.
package config
