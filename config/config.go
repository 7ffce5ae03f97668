// Package config loads the engine's on-disk configuration, adapted from
// the teacher's own config-loading pattern: a YAML default document
// (gopkg.in/yaml.v3, already in the teacher's dependency graph) with
// environment-variable overrides layered on top, mirroring
// transport/tinit.go's AIS_STREAM_BURST_NUM override.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Stream holds the per-worker STREAM feature gate (spec.md §6).
type Stream struct {
	Enabled bool `yaml:"enabled"`
}

// Transport holds the AM transport boundary's sizing knobs.
type Transport struct {
	Burst         int  `yaml:"burst"`
	MaxHeaderSize int  `yaml:"max_header_size"`
	MultiThread   bool `yaml:"multi_thread"`
}

// Housekeeping holds hk's sweep cadence.
type Housekeeping struct {
	Interval  time.Duration `yaml:"interval"`
	IdleAfter time.Duration `yaml:"idle_after"`
}

// Config is the top-level document.
type Config struct {
	Stream       Stream       `yaml:"stream"`
	Transport    Transport    `yaml:"transport"`
	Housekeeping Housekeeping `yaml:"housekeeping"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		Stream:    Stream{Enabled: true},
		Transport: Transport{Burst: 32, MaxHeaderSize: 64, MultiThread: false},
		Housekeeping: Housekeeping{
			Interval:  time.Second,
			IdleAfter: 30 * time.Second,
		},
	}
}

// Load reads path (if non-empty and present) over Default(), then applies
// environment-variable overrides - the same layering order the teacher's
// transport.Init applies its AIS_STREAM_BURST_NUM override in.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return applyEnv(cfg), nil
			}
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("RXSTREAM_STREAM_BURST_NUM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Transport.Burst = n
		}
	}
	if v := os.Getenv("RXSTREAM_STREAM_MULTI_THREAD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Transport.MultiThread = b
		}
	}
	if v := os.Getenv("RXSTREAM_HK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Housekeeping.Interval = d
		}
	}
	return cfg
}
