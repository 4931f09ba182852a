package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func cleanupEnv(t *testing.T) {
	t.Helper()
	for _, key := range GetEnvVars() {
		t.Setenv(key, "")
	}
}

func TestLoadValidConfig(t *testing.T) {
	cleanupEnv(t)
	t.Setenv("PORT", "8002")
	t.Setenv("ADDRESS", "127.0.0.1")
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("FOLLOWUP_ENABLED", "false")
	t.Setenv("SCREENING_SEED", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected env dev, got %s", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.FollowUpEnabled {
		t.Error("Expected follow-up tracking disabled")
	}
	if cfg.ScreeningSeed != 42 {
		t.Errorf("Expected screening seed 42, got %d", cfg.ScreeningSeed)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cleanupEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected default env dev, got %s", cfg.Env)
	}
	if cfg.KnowledgeReloadMinutes != 60 {
		t.Errorf("Expected default reload interval 60, got %d", cfg.KnowledgeReloadMinutes)
	}
	if cfg.SessionTTLMinutes != 120 {
		t.Errorf("Expected default session TTL 120, got %d", cfg.SessionTTLMinutes)
	}
	if !cfg.FollowUpEnabled {
		t.Error("Expected follow-up tracking enabled by default")
	}
	if cfg.KnowledgeFile != "" {
		t.Errorf("Expected no knowledge file, got %q", cfg.KnowledgeFile)
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{"port not a number", "PORT", "abc", "PORT must be a valid number"},
		{"port zero", "PORT", "0", "PORT must be between 1 and 65535"},
		{"port too high", "PORT", "65536", "PORT must be between 1 and 65535"},
		{"privileged port", "PORT", "80", "PORT 80 is privileged"},
		{"bad address", "ADDRESS", "not-an-ip", "ADDRESS must be a valid IP address"},
		{"public address", "ADDRESS", "8.8.8.8", "is a public IP"},
		{"unknown env", "ENV", "qa", "ENV must be one of"},
		{"unknown level", "LOG_LEVEL", "trace", "LOG_LEVEL must be one of"},
		{"body too large", "MAX_REQUEST_BODY", "209715200", "MAX_REQUEST_BODY is too large"},
		{"negative header", "MAX_HEADER_SIZE", "-1", "MAX_HEADER_SIZE must be positive"},
		{"retention too long", "LOG_RETENTION_WEEKS", "53", "LOG_RETENTION_WEEKS is too large"},
		{"log file too small", "MAX_LOG_FILE_SIZE", "1024", "MAX_LOG_FILE_SIZE is too small"},
		{"zero reload", "KNOWLEDGE_RELOAD_MINUTES", "-5", "KNOWLEDGE_RELOAD_MINUTES must be positive"},
		{"ttl too long", "SESSION_TTL_MINUTES", "5000", "SESSION_TTL_MINUTES is too large"},
		{"missing knowledge file", "KNOWLEDGE_FILE", filepath.Join(dir, "missing.yaml"), "cannot access"},
		{"knowledge file is dir", "KNOWLEDGE_FILE", dir, "is a directory"},
		{"bad proxy ip", "TRUSTED_PROXIES", "10.0.0.1,proxy.local", "is not a valid IP address"},
		{"bad proxy range", "TRUSTED_PROXIES", "10.0.0.0/99", "is not a valid CIDR range"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanupEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %q", tc.expected, err.Error())
			}
		})
	}
}

func TestKnowledgeFileAccepted(t *testing.T) {
	cleanupEnv(t)
	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, []byte("version: test\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KNOWLEDGE_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.KnowledgeFile != path {
		t.Errorf("Expected knowledge file %s, got %s", path, cfg.KnowledgeFile)
	}
}

func TestTrustedProxies(t *testing.T) {
	cleanupEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("Expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", " 10.0.0.1 , 192.168.1.7/16,::1")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []string{"10.0.0.1/32", "192.168.0.0/16", "::1/128"}
	if len(cfg.TrustedProxies) != len(want) {
		t.Fatalf("Expected %d proxies, got %v", len(want), cfg.TrustedProxies)
	}
	for i, prefix := range cfg.TrustedProxies {
		if prefix.String() != want[i] {
			t.Errorf("Proxy %d: expected %s, got %s", i, want[i], prefix)
		}
	}
}

func TestUnparseableNumbersFallBackToDefaults(t *testing.T) {
	cleanupEnv(t)
	t.Setenv("SESSION_TTL_MINUTES", "soon")
	t.Setenv("FOLLOWUP_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.SessionTTLMinutes != 120 {
		t.Errorf("Expected default TTL, got %d", cfg.SessionTTLMinutes)
	}
	if !cfg.FollowUpEnabled {
		t.Error("Expected default follow-up flag")
	}
}

func TestIsProduction(t *testing.T) {
	if !(&Config{Env: EnvProduction}).IsProduction() {
		t.Error("prod should be production")
	}
	if (&Config{Env: EnvStaging}).IsProduction() {
		t.Error("staging should not be production")
	}
}
