package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Site.Environment != "local" || cfg.Site.Production() {
		t.Errorf("expected local environment, got %s", cfg.Site.Environment)
	}
	if len(cfg.Site.Locales) != 1 || cfg.Site.Locales[0] != "en" {
		t.Errorf("unexpected locales %v", cfg.Site.Locales)
	}
	if cfg.AI.TextModel != defaultTextModel {
		t.Errorf("unexpected text model %s", cfg.AI.TextModel)
	}
	if cfg.AI.VideoPollInterval != 10*time.Second {
		t.Errorf("unexpected poll interval %s", cfg.AI.VideoPollInterval)
	}
	if cfg.Content.Strict {
		t.Errorf("strict content should default to false")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"PORT":                                  "9999",
		"NORTHGATE_WEB_PORT":                    "9090",
		"NORTHGATE_WEB_ENV":                     "PROD",
		"NORTHGATE_WEB_SESSION_SIGNING_KEY":     strings.Repeat("k", 32),
		"NORTHGATE_WEB_STRICT_CONTENT":          "yes",
		"NORTHGATE_WEB_SITE_URL":                "https://northgate.capital/",
		"NORTHGATE_WEB_AI_VIDEO_POLL_INTERVAL":  "2s",
		"NORTHGATE_WEB_AI_VIDEO_TIMEOUT":        "1m",
		"GEMINI_API_KEY":                        "fallback-key",
		"NORTHGATE_WEB_GA_MEASUREMENT_ID":       "G-TEST",
		"NORTHGATE_WEB_LOCALES":                 "en, FR",
	}
	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("prefixed port should win, got %s", cfg.Server.Port)
	}
	if !cfg.Site.Production() {
		t.Errorf("expected production environment")
	}
	if !cfg.Content.Strict {
		t.Errorf("expected strict content")
	}
	if cfg.Site.URL != "https://northgate.capital" {
		t.Errorf("site url should drop trailing slash, got %s", cfg.Site.URL)
	}
	if cfg.AI.APIKey != "fallback-key" {
		t.Errorf("expected GEMINI_API_KEY fallback, got %q", cfg.AI.APIKey)
	}
	if cfg.AI.VideoPollInterval != 2*time.Second || cfg.AI.VideoTimeout != time.Minute {
		t.Errorf("unexpected video timings %s/%s", cfg.AI.VideoPollInterval, cfg.AI.VideoTimeout)
	}
	if cfg.Analytics.GA4MeasurementID != "G-TEST" {
		t.Errorf("unexpected analytics id %s", cfg.Analytics.GA4MeasurementID)
	}
	if len(cfg.Site.Locales) != 2 || cfg.Site.Locales[1] != "fr" {
		t.Errorf("unexpected locales %v", cfg.Site.Locales)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"NORTHGATE_WEB_ENV":                    "prod",
		"NORTHGATE_WEB_PORT":                   "http",
		"NORTHGATE_WEB_AI_VIDEO_POLL_INTERVAL": "1m",
		"NORTHGATE_WEB_AI_VIDEO_TIMEOUT":       "10s",
	}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := strings.Join(vErr.Fields(), ",")
	for _, want := range []string{"Server.Port", "Session.SigningKey", "AI.VideoTimeout"} {
		if !strings.Contains(fields, want) {
			t.Errorf("expected %s in %s", want, fields)
		}
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nexport NORTHGATE_WEB_AI_TEXT_MODEL=\"gemini-test\"\nNORTHGATE_WEB_DEV=1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	cfg, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.AI.TextModel != "gemini-test" {
		t.Errorf("expected model from .env, got %s", cfg.AI.TextModel)
	}
	if !cfg.Site.Dev {
		t.Errorf("expected dev mode from .env")
	}

	cfg, err = Load(context.Background(), WithoutSystemEnv(), WithEnvFile(path), WithEnvMap(map[string]string{"NORTHGATE_WEB_AI_TEXT_MODEL": "override"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.AI.TextModel != "override" {
		t.Errorf("env map should override .env, got %s", cfg.AI.TextModel)
	}
}
