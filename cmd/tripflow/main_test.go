package main

import (
	"path/filepath"
	"testing"
)

func TestLoadEnvironmentConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TRIPFLOW_STATE_DIR", "")
	t.Setenv("LLM_PROVIDER", "")

	config := loadEnvironmentConfig()

	if config.StateDir != DefaultStateDir {
		t.Errorf("expected default state dir, got %s", config.StateDir)
	}
	want := filepath.Join(DefaultStateDir, DefaultDBFileName)
	if config.DatabaseURL != want {
		t.Errorf("expected SQLite default %s, got %s", want, config.DatabaseURL)
	}
	if config.LLMProvider != "openai" {
		t.Errorf("expected openai default, got %s", config.LLMProvider)
	}
}

func TestLoadEnvironmentConfigRespectsEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tripflow")
	t.Setenv("TRIPFLOW_STATE_DIR", "/tmp/tripflow-test")
	t.Setenv("LLM_PROVIDER", "gemini")

	config := loadEnvironmentConfig()

	if config.DatabaseURL != "postgres://localhost/tripflow" {
		t.Errorf("env DATABASE_URL ignored: %s", config.DatabaseURL)
	}
	if config.StateDir != "/tmp/tripflow-test" {
		t.Errorf("env TRIPFLOW_STATE_DIR ignored: %s", config.StateDir)
	}
	if config.LLMProvider != "gemini" {
		t.Errorf("env LLM_PROVIDER ignored: %s", config.LLMProvider)
	}
}
