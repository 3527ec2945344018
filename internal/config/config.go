package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names an optional YAML file of KEY: value defaults. Process
// environment variables always override entries from the file.
const ConfigFileEnv = "QUADCHART_CONFIG_FILE"

// Config holds the environment driven configuration for the quad chart service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"quadchart-api"`
	ServiceVersion  string        `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"QUADCHART_API_PORT" envDefault:"8190"`
	LogLevel        string        `env:"QUADCHART_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"QUADCHART_LOG_FORMAT" envDefault:"console"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	TraceSampleRate float64       `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PublicBaseURL   string        `env:"QUADCHART_PUBLIC_BASE_URL"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Database. An empty DSN keeps all state in memory.
	DBPostgresqlWriteDSN string        `env:"DB_POSTGRESQL_WRITE_DSN"`
	DBMaxIdleConns       int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns       int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBLogLevel           string        `env:"DB_LOG_LEVEL" envDefault:"warn"`
	DBSlowQuery          time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"500ms"`

	// Filesystem layout
	TemplatesDir     string `env:"QUADCHART_TEMPLATES_DIR" envDefault:"./data/templates"`
	UploadTempDir    string `env:"QUADCHART_UPLOAD_TEMP_DIR" envDefault:"./data/uploads"`
	OutputDir        string `env:"QUADCHART_OUTPUT_DIR" envDefault:"./data/generated_pptx"`
	MaxTemplateBytes int64  `env:"QUADCHART_MAX_TEMPLATE_BYTES" envDefault:"52428800"`

	// External renderer and analyzer processes
	PreferredInterpreter string        `env:"RENDERER_PREFERRED_INTERPRETER" envDefault:"./venv/bin/python"`
	FallbackInterpreter  string        `env:"RENDERER_FALLBACK_INTERPRETER" envDefault:"python3"`
	RendererScript       string        `env:"RENDERER_SCRIPT" envDefault:"./scripts/generate_pptx.py"`
	AnalyzerScript       string        `env:"ANALYZER_SCRIPT" envDefault:"./scripts/analyze_template.py"`
	RenderTimeout        time.Duration `env:"RENDER_TIMEOUT" envDefault:"120s"`
	AnalyzeTimeout       time.Duration `env:"ANALYZE_TIMEOUT" envDefault:"60s"`

	// Generated artifact retention
	ArtifactRetentionDays int    `env:"ARTIFACT_RETENTION_DAYS" envDefault:"7"`
	ArtifactSweepSchedule string `env:"ARTIFACT_SWEEP_SCHEDULE" envDefault:"0 3 * * *"`

	// Optional S3 mirror for template files
	S3Endpoint     string `env:"TEMPLATE_S3_ENDPOINT"`
	S3Region       string `env:"TEMPLATE_S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"TEMPLATE_S3_BUCKET"`
	S3AccessKeyID  string `env:"TEMPLATE_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"TEMPLATE_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"TEMPLATE_S3_USE_PATH_STYLE" envDefault:"true"`
	S3KeyPrefix    string `env:"TEMPLATE_S3_KEY_PREFIX" envDefault:"templates/"`

	// Authentication
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"AUTH_ISSUER"`
	AuthAudience string `env:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config, layered over the optional YAML defaults file.
func Load() (*Config, error) {
	environment, err := loadEnvironment(os.Getenv(ConfigFileEnv), os.Environ())
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvironment merges the YAML defaults file (if any) with the process environment.
func loadEnvironment(path string, environ []string) (map[string]string, error) {
	merged := make(map[string]string, len(environ))
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		var defaults map[string]string
		if err := yaml.Unmarshal(data, &defaults); err != nil {
			return nil, fmt.Errorf("unmarshal config file: %w", err)
		}
		for key, value := range defaults {
			merged[strings.ToUpper(strings.TrimSpace(key))] = value
		}
	}
	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			merged[key] = value
		}
	}
	return merged, nil
}

func (c *Config) normalize() error {
	c.S3Bucket = strings.TrimSpace(c.S3Bucket)
	c.S3AccessKeyID = strings.TrimSpace(c.S3AccessKeyID)
	c.S3SecretKey = strings.TrimSpace(c.S3SecretKey)
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)
	c.PublicBaseURL = strings.TrimSuffix(strings.TrimSpace(c.PublicBaseURL), "/")

	if c.MaxTemplateBytes <= 0 {
		c.MaxTemplateBytes = 50 * 1024 * 1024
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0 and 1")
	}
	switch strings.ToLower(strings.TrimSpace(c.DBLogLevel)) {
	case "silent", "error", "warn", "info":
		c.DBLogLevel = strings.ToLower(strings.TrimSpace(c.DBLogLevel))
	default:
		return fmt.Errorf("DB_LOG_LEVEL must be one of silent, error, warn, info")
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("RENDER_TIMEOUT must be positive")
	}
	if c.AnalyzeTimeout <= 0 {
		return fmt.Errorf("ANALYZE_TIMEOUT must be positive")
	}
	if c.ArtifactRetentionDays <= 0 {
		return fmt.Errorf("ARTIFACT_RETENTION_DAYS must be positive")
	}
	if strings.TrimSpace(c.ArtifactSweepSchedule) == "" {
		return fmt.Errorf("ARTIFACT_SWEEP_SCHEDULE must not be empty")
	}
	for name, dir := range map[string]string{
		"QUADCHART_TEMPLATES_DIR":   c.TemplatesDir,
		"QUADCHART_UPLOAD_TEMP_DIR": c.UploadTempDir,
		"QUADCHART_OUTPUT_DIR":      c.OutputDir,
	} {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}
	if c.AuthEnabled {
		if strings.TrimSpace(c.AuthIssuer) == "" {
			return fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(c.AuthJWKSURL) == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UsesDatabase reports whether a Postgres DSN was configured.
func (c *Config) UsesDatabase() bool {
	return strings.TrimSpace(c.DBPostgresqlWriteDSN) != ""
}

// ArtifactRetention converts the retention window into a duration.
func (c *Config) ArtifactRetention() time.Duration {
	return time.Duration(c.ArtifactRetentionDays) * 24 * time.Hour
}
