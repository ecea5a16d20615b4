// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// withConfigFile points CONFIG_PATH at a temporary YAML file.
func withConfigFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"CORS_ORIGINS", "server.cors_origins"},
		{"BADGER_PATH", "storage.path"},
		{"LOG_LEVEL", "logging.level"},
		{"RECOMMEND_TAU", "recommend.tau"},
		{"RECOMMEND_DIVERSITY", "recommend.default_diversity"},
		{"INDEX_MIN_SIMILARITY", "index.min_similarity"},
		{"SCHEDULE_INDEX_REBUILD", "scheduler.index_rebuild"},
		{"INDEX_REBUILD_ON_STARTUP", "scheduler.rebuild_on_startup"},
		{"SESSION_TTL", "session.ttl"},
		{"EVENTS_DEDUP_WINDOW", "events.dedup_window"},
		{"BACKUP_MAX_AGE", "backup.retention.max_age"},
		{"BADGER_CONFLICT_RETRIES", "storage.conflict_retries"},
		{"http_port", "server.port"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := envTransformFunc(tt.input); result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if err := os.WriteFile("config.yaml", []byte("server: {}"), 0o600); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove("config.yaml")

		if result := findConfigFile(); result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("server: {}"), 0o600); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, customPath)

		if result := findConfigFile(); result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	withConfigFile(t, "{}\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Recommend.Tau != 30*24*time.Hour {
		t.Errorf("Recommend.Tau = %v, want 720h", cfg.Recommend.Tau)
	}
	if cfg.Recommend.RefreshEvery != 5 {
		t.Errorf("Recommend.RefreshEvery = %d, want 5", cfg.Recommend.RefreshEvery)
	}
	if cfg.Index.MinSimilarity != 0.1 {
		t.Errorf("Index.MinSimilarity = %v, want 0.1", cfg.Index.MinSimilarity)
	}
	if cfg.Scheduler.IndexRebuild != "@every 30m" {
		t.Errorf("Scheduler.IndexRebuild = %q, want @every 30m", cfg.Scheduler.IndexRebuild)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("Server.CORSOrigins = %v, want [*]", cfg.Server.CORSOrigins)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	withConfigFile(t, `
server:
  port: 9100
storage:
  in_memory: true
  path: ""
recommend:
  tau: 48h
  refresh_every: 3
index:
  min_similarity: 0.25
scheduler:
  timezone: Europe/Rome
  cache_refresh_all: "*/15 * * * *"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if !cfg.Storage.InMemory {
		t.Error("Storage.InMemory = false, want true")
	}
	if cfg.Recommend.Tau != 48*time.Hour {
		t.Errorf("Recommend.Tau = %v, want 48h", cfg.Recommend.Tau)
	}
	if cfg.Recommend.RefreshEvery != 3 {
		t.Errorf("Recommend.RefreshEvery = %d, want 3", cfg.Recommend.RefreshEvery)
	}
	if cfg.Scheduler.Timezone != "Europe/Rome" {
		t.Errorf("Scheduler.Timezone = %q, want Europe/Rome", cfg.Scheduler.Timezone)
	}
	// Unset keys keep their defaults.
	if cfg.Recommend.LearningRate != 0.15 {
		t.Errorf("Recommend.LearningRate = %v, want 0.15 (default)", cfg.Recommend.LearningRate)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	withConfigFile(t, `
server:
  port: 9100
logging:
  level: warn
`)
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RECOMMEND_CACHE_STALENESS", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("Server.CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Server.CORSOrigins[i] != want[i] {
			t.Errorf("Server.CORSOrigins[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want[i])
		}
	}
	if cfg.EngineConfig().Cache.Staleness != 5*time.Minute {
		t.Errorf("engine staleness = %v, want 5m", cfg.EngineConfig().Cache.Staleness)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{"port out of range", "{}\n", map[string]string{"HTTP_PORT": "70000"}},
		{"bad log level", "{}\n", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad learning rate", "{}\n", map[string]string{"RECOMMEND_LEARNING_RATE": "1.5"}},
		{"bad cron spec", "{}\n", map[string]string{"SCHEDULE_INDEX_REBUILD": "every now and then"}},
		{"bad timezone", "{}\n", map[string]string{"SCHEDULER_TIMEZONE": "Mars/Olympus"}},
		{"no storage path", "storage:\n  path: \"\"\n", nil},
		{"page larger than max", "session:\n  page_size: 500\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withConfigFile(t, tt.file)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want validation error")
			}
		})
	}
}
