package main

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("WEPOWER_CONFIG")
	defer os.Setenv("WEPOWER_CONFIG", originalEnv)

	os.Setenv("WEPOWER_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestGetConfigPath verifies config path resolution order.
func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("WEPOWER_CONFIG")
	defer os.Setenv("WEPOWER_CONFIG", originalEnv)

	os.Setenv("WEPOWER_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	os.Setenv("WEPOWER_CONFIG", "/etc/wepower/config.yaml")
	if got := getConfigPath(); got != "/etc/wepower/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", got)
	}
}
