// Package config loads huffd settings from the environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

const (
	envPort        = "HUFFD_PORT"
	envDatabaseURL = "HUFFD_DATABASE_URL"
	envCacheSize   = "HUFFD_CACHE_SIZE"
	envWorkers     = "HUFFD_WORKERS"
)

type Config struct {
	Port        string
	DatabaseURL string // empty keeps archives in memory
	CacheSize   int    // tree LRU capacity for encoder and decoder
	Workers     int    // frequency counting goroutines
}

func Default() Config {
	return Config{
		Port:      "8080",
		CacheSize: 128,
		Workers:   runtime.NumCPU(),
	}
}

// Load reads the HUFFD_* variables over the defaults.
func Load() (Config, error) {
	cfg := Default()
	if v := os.Getenv(envPort); v != "" {
		if _, err := strconv.ParseUint(v, 10, 16); err != nil {
			return Config{}, fmt.Errorf("%s: invalid port %q", envPort, v)
		}
		cfg.Port = v
	}
	cfg.DatabaseURL = os.Getenv(envDatabaseURL)

	var err error
	if cfg.CacheSize, err = intFromEnv(envCacheSize, cfg.CacheSize); err != nil {
		return Config{}, err
	}
	if cfg.Workers, err = intFromEnv(envWorkers, cfg.Workers); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func intFromEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid value %q", key, v)
	}
	return n, nil
}
