package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath   = "coursemarketer.yaml"
	defaultPort         = "8888"
	defaultTextModel    = "gemini-2.5-flash"
	defaultImageModel   = "gemini-2.5-flash-image"
	defaultVideoModel   = "veo-3.1-fast-generate-preview"
	defaultPollInterval = 5 * time.Second
	defaultMaxPolls     = 60
	defaultResolution   = "720p"
	defaultVideoAspect  = "9:16"
	defaultImageAspect  = "1:1"
	defaultPlatform     = "104 Learning"
	defaultPlatformZH   = "104學習平台"
	defaultMarket       = "Taiwan"
	defaultLanguage     = "Traditional Chinese (Taiwanese Mandarin)"
	defaultWorkspaceTTL = 2 * time.Hour
	defaultCredBackend  = "file"
	defaultServiceName  = "coursemarketer"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Models      ModelsConfig      `yaml:"models"`
	Video       VideoConfig       `yaml:"video"`
	Content     ContentConfig     `yaml:"content"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Tracing     TracingConfig     `yaml:"tracing"`
	PromptsPath string            `yaml:"prompts_path"`
	LogFormat   string            `yaml:"log_format"` // "text" or "json"
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	AllowOrigins []string      `yaml:"allow_origins"`
	WorkspaceTTL time.Duration `yaml:"workspace_ttl"`
}

type ModelsConfig struct {
	Text  string `yaml:"text"`
	Image string `yaml:"image"`
	Video string `yaml:"video"`
}

type VideoConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxPolls     int           `yaml:"max_polls"`
	Resolution   string        `yaml:"resolution"`
	AspectRatio  string        `yaml:"aspect_ratio"`
	ImageAspect  string        `yaml:"image_aspect_ratio"`
}

type ContentConfig struct {
	PlatformName   string `yaml:"platform_name"`
	PlatformNameZH string `yaml:"platform_name_zh"`
	Market         string `yaml:"market"`
	Language       string `yaml:"language"`
}

type CredentialsConfig struct {
	Backend  string `yaml:"backend"` // "file" or "redis"
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
}

type TracingConfig struct {
	Exporter    string `yaml:"exporter"` // "", "otlp" or "stdout"
	ServiceName string `yaml:"service_name"`
}

// Load reads coursemarketer.yaml (or COURSEMARKETER_CONFIG) if present and
// applies environment overrides on top of the defaults.
func Load() (*Config, error) {
	path := os.Getenv("COURSEMARKETER_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("COURSEMARKETER_CREDENTIALS_BACKEND"); v != "" {
		c.Credentials.Backend = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Credentials.RedisURL = v
	}
	if v := os.Getenv("COURSEMARKETER_TRACING"); v != "" {
		c.Tracing.Exporter = v
	}
	if c.Tracing.Exporter == "" && os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		c.Tracing.Exporter = "otlp"
	}
	if v := os.Getenv("COURSEMARKETER_VIDEO_MAX_POLLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Video.MaxPolls = n
		}
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("COURSEMARKETER_ALLOW_ORIGINS"); v != "" {
		c.Server.AllowOrigins = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Port, defaultPort)
	if c.Server.WorkspaceTTL <= 0 {
		c.Server.WorkspaceTTL = defaultWorkspaceTTL
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	setDefault(&c.Models.Text, defaultTextModel)
	setDefault(&c.Models.Image, defaultImageModel)
	setDefault(&c.Models.Video, defaultVideoModel)

	if c.Video.PollInterval <= 0 {
		c.Video.PollInterval = defaultPollInterval
	}
	if c.Video.MaxPolls <= 0 {
		c.Video.MaxPolls = defaultMaxPolls
	}
	setDefault(&c.Video.Resolution, defaultResolution)
	setDefault(&c.Video.AspectRatio, defaultVideoAspect)
	setDefault(&c.Video.ImageAspect, defaultImageAspect)

	setDefault(&c.Content.PlatformName, defaultPlatform)
	setDefault(&c.Content.PlatformNameZH, defaultPlatformZH)
	setDefault(&c.Content.Market, defaultMarket)
	setDefault(&c.Content.Language, defaultLanguage)

	setDefault(&c.Credentials.Backend, defaultCredBackend)
	if c.Credentials.Path == "" {
		c.Credentials.Path = defaultCredentialsPath()
	}

	setDefault(&c.Tracing.ServiceName, defaultServiceName)
	setDefault(&c.LogFormat, "text")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".coursemarketer", "credentials.yaml")
	}
	return filepath.Join(dir, "coursemarketer", "credentials.yaml")
}

// EnvAPIKey returns the environment-provided default credential. It is read
// on every call so a key exported after startup is picked up.
func EnvAPIKey() string {
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv("API_KEY"))
}
