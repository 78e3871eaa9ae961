// Package config provides configuration structures and utilities for cachewarmer.
// It defines the run options (base URL, sitemap, concurrency, timeouts),
// per-host settings loaded from the .cachewarmer YAML file, and report preferences.
package config
