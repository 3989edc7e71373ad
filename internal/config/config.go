package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	envPrefix = "NORTHGATE_WEB_"

	defaultEnvFile           = ".env"
	defaultPort              = "8080"
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 60 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultRequestTimeout    = 45 * time.Second
	defaultEnvironment       = "local"
	defaultTemplatesDir      = "templates"
	defaultPublicDir         = "public"
	defaultLocalesDir        = "locales"
	defaultLocale            = "en"
	defaultSiteURL           = "http://localhost:8080"
	defaultTextModel         = "gemini-2.5-flash"
	defaultVideoModel        = "veo-3.1-fast-generate-preview"
	defaultVideoPollInterval = 10 * time.Second
	defaultVideoTimeout      = 10 * time.Minute
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Content   ContentConfig
	Session   SessionConfig
	AI        AIConfig
	Analytics AnalyticsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// SiteConfig groups rendering and environment settings.
type SiteConfig struct {
	Environment  string
	Dev          bool
	TemplatesDir string
	PublicDir    string
	LocalesDir   string
	Locales      []string
	URL          string
}

// Production reports whether the site runs with production cookies.
func (s SiteConfig) Production() bool { return s.Environment == "prod" }

// ContentConfig points at optional overrides of the embedded data tables.
type ContentConfig struct {
	NavFile     string
	ContentFile string
	// Strict turns navigation paths without content into a startup failure.
	Strict bool
}

// SessionConfig holds the cookie signing key. An empty key means an
// ephemeral per-process key.
type SessionConfig struct {
	SigningKey string
}

// AIConfig configures the hosted model facade.
type AIConfig struct {
	APIKey            string
	TextModel         string
	VideoModel        string
	VideoPollInterval time.Duration
	VideoTimeout      time.Duration
}

// AnalyticsConfig holds client instrumentation ids surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string
	GTMContainerID   string
	SegmentWriteKey  string
	Debug            bool
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides,
// environment variables and the explicit env map, in increasing precedence.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	_ = ctx
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}
	e := env{opts: options, dotEnv: dotEnv}
	p := e.prefixed()

	cfg := Config{
		Server: ServerConfig{
			Port:           p.str("PORT", e.str("PORT", defaultPort)),
			ReadTimeout:    p.duration("READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:   p.duration("WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:    p.duration("IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout: p.duration("REQUEST_TIMEOUT", defaultRequestTimeout),
		},
		Site: SiteConfig{
			Environment:  strings.ToLower(p.str("ENV", defaultEnvironment)),
			Dev:          p.flag("DEV", false),
			TemplatesDir: p.str("TEMPLATES_DIR", defaultTemplatesDir),
			PublicDir:    p.str("PUBLIC_DIR", defaultPublicDir),
			LocalesDir:   p.str("LOCALES_DIR", defaultLocalesDir),
			Locales:      p.list("LOCALES", []string{defaultLocale}),
			URL:          strings.TrimRight(p.str("SITE_URL", defaultSiteURL), "/"),
		},
		Content: ContentConfig{
			NavFile:     p.str("NAV_FILE", ""),
			ContentFile: p.str("CONTENT_FILE", ""),
			Strict:      p.flag("STRICT_CONTENT", false),
		},
		Session: SessionConfig{
			SigningKey: p.str("SESSION_SIGNING_KEY", ""),
		},
		AI: AIConfig{
			APIKey:            p.str("AI_API_KEY", e.str("GEMINI_API_KEY", "")),
			TextModel:         p.str("AI_TEXT_MODEL", defaultTextModel),
			VideoModel:        p.str("AI_VIDEO_MODEL", defaultVideoModel),
			VideoPollInterval: p.duration("AI_VIDEO_POLL_INTERVAL", defaultVideoPollInterval),
			VideoTimeout:      p.duration("AI_VIDEO_TIMEOUT", defaultVideoTimeout),
		},
		Analytics: AnalyticsConfig{
			GA4MeasurementID: p.str("GA_MEASUREMENT_ID", ""),
			GTMContainerID:   p.str("GTM_CONTAINER_ID", ""),
			SegmentWriteKey:  p.str("SEGMENT_WRITE_KEY", ""),
			Debug:            p.flag("ANALYTICS_DEBUG", false),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	} else if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		missing = append(missing, "Server.Port")
	}
	switch cfg.Site.Environment {
	case "local", "dev", "staging", "prod":
	default:
		missing = append(missing, "Site.Environment")
	}
	if len(cfg.Site.Locales) == 0 {
		missing = append(missing, "Site.Locales")
	}
	if cfg.Site.Production() && len(cfg.Session.SigningKey) < 32 {
		missing = append(missing, "Session.SigningKey")
	}
	if cfg.AI.VideoPollInterval <= 0 {
		missing = append(missing, "AI.VideoPollInterval")
	}
	if cfg.AI.VideoTimeout < cfg.AI.VideoPollInterval {
		missing = append(missing, "AI.VideoTimeout")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

// env resolves keys against the explicit map, then the process
// environment, then the .env file. Empty values count as unset.
type env struct {
	opts   loaderOptions
	dotEnv map[string]string
	prefix string
}

func (e env) prefixed() env {
	e.prefix = envPrefix
	return e
}

func (e env) get(key string) string {
	key = e.prefix + key
	if v, ok := e.opts.envMap[key]; ok {
		return v
	}
	if e.opts.useSystemEnv {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
	}
	return e.dotEnv[key]
}

func (e env) str(key, fallback string) string {
	if v := e.get(key); v != "" {
		return v
	}
	return fallback
}

// duration ignores unparsable values.
func (e env) duration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.get(key)); err == nil {
		return d
	}
	return fallback
}

func (e env) flag(key string, fallback bool) bool {
	switch strings.ToLower(e.get(key)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return fallback
}

// list splits a comma-separated value into lower-cased, non-empty items.
func (e env) list(key string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(e.get(key), ",") {
		if item := strings.ToLower(strings.TrimSpace(part)); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
