// Package config loads the cropcare YAML configuration.
//
// Secret values may reference the environment ("$OPENAI_API_KEY" or
// "${OPENAI_API_KEY}"); a .env file in the working directory is loaded
// first. Every field has a default, so an empty file is a valid
// configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Duration is a time.Duration written as "15s" or as integer seconds.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (d *Duration) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	if s == "" || s == "null" || s == "~" {
		*d = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the whole configuration file.
type Config struct {
	Server      Server      `yaml:"server"`
	Log         Log         `yaml:"log"`
	Sentry      Sentry      `yaml:"sentry"`
	Classifier  Classifier  `yaml:"classifier"`
	LLM         LLM         `yaml:"llm"`
	Translate   Translate   `yaml:"translate"`
	Speech      Speech      `yaml:"speech"`
	Storage     Storage     `yaml:"storage"`
	Predictions Predictions `yaml:"predictions"`
	Chat        Chat        `yaml:"chat"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string   `yaml:"addr"`
	MaxUploadMB     int      `yaml:"max_upload_mb"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Log configures the process logger.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Sentry enables error reporting when DSN is set.
type Sentry struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// Classifier configures the Clarifai model.
type Classifier struct {
	PAT       string   `yaml:"pat"`
	UserID    string   `yaml:"user_id"`
	AppID     string   `yaml:"app_id"`
	ModelID   string   `yaml:"model_id"`
	VersionID string   `yaml:"version_id"`
	URL       string   `yaml:"url"`
	Timeout   Duration `yaml:"timeout"`
}

// LLMProvider is one chat model.
type LLMProvider struct {
	Name          string   `yaml:"name"`
	Kind          string   `yaml:"kind"`
	APIKey        string   `yaml:"api_key"`
	BaseURL       string   `yaml:"base_url"`
	Model         string   `yaml:"model"`
	MaxTokens     int64    `yaml:"max_tokens"`
	UseSystemRole bool     `yaml:"use_system_role"`
	Timeout       Duration `yaml:"timeout"`
}

// LLM configures the completion chain.
type LLM struct {
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      Duration      `yaml:"timeout"`
	Providers    []LLMProvider `yaml:"providers"`
}

// Translate configures the translation chain.
type Translate struct {
	GoogleAPIKey  string   `yaml:"google_api_key"`
	LibreURL      string   `yaml:"libre_url"`
	LibreAPIKey   string   `yaml:"libre_api_key"`
	MyMemoryEmail string   `yaml:"mymemory_email"`
	Dictionary    bool     `yaml:"dictionary"`
	Timeout       Duration `yaml:"timeout"`
}

// Speech configures the text-to-speech chain.
type Speech struct {
	GoogleAPIKey string   `yaml:"google_api_key"`
	OpenAIAPIKey string   `yaml:"openai_api_key"`
	OpenAIModel  string   `yaml:"openai_model"`
	OpenAIVoice  string   `yaml:"openai_voice"`
	URLPrefix    string   `yaml:"url_prefix"`
	CacheSize    int      `yaml:"cache_size"`
	Timeout      Duration `yaml:"timeout"`
}

// Storage configures where synthesized audio is kept.
type Storage struct {
	// Kind is local or s3.
	Kind   string `yaml:"kind"`
	Dir    string `yaml:"dir"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// Predictions configures the durable prediction tier.
type Predictions struct {
	// Driver is "" (memory only), pgx, postgres, sqlite or badger.
	Driver     string   `yaml:"driver"`
	DSN        string   `yaml:"dsn"`
	Dir        string   `yaml:"dir"`
	KeepImages bool     `yaml:"keep_images"`
	Timeout    Duration `yaml:"timeout"`
}

// Chat configures the conversation engine.
type Chat struct {
	CacheSize     int    `yaml:"cache_size"`
	ClarifyPrompt string `yaml:"clarify_prompt"`
}

// Storage kinds.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// DriverBadger selects the embedded Badger tier.
const DriverBadger = "badger"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":5000",
			MaxUploadMB:     16,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Log: Log{Level: "info", Format: "text"},
		Classifier: Classifier{
			PAT:       "$CLARIFAI_PAT",
			UserID:    "xv221gj2xl57",
			AppID:     "CropCareProject",
			ModelID:   "CC",
			VersionID: "8063e28392ff49dc9167993ce6f55b19",
			Timeout:   Duration(20 * time.Second),
		},
		LLM: LLM{
			Timeout: Duration(15 * time.Second),
			Providers: []LLMProvider{
				{Name: "primary", Kind: "openai", APIKey: "$OPENAI_API_KEY", Model: "gpt-4o", MaxTokens: 400, UseSystemRole: true},
				{Name: "secondary", Kind: "openai", APIKey: "$OPENAI_API_KEY", Model: "gpt-4o-mini", MaxTokens: 400, UseSystemRole: true},
			},
		},
		Translate: Translate{
			GoogleAPIKey: "$GOOGLE_API_KEY",
			Dictionary:   true,
			Timeout:      Duration(8 * time.Second),
		},
		Speech: Speech{
			GoogleAPIKey: "$GOOGLE_API_KEY",
			OpenAIAPIKey: "$OPENAI_API_KEY",
			OpenAIModel:  "tts-1",
			OpenAIVoice:  "alloy",
			URLPrefix:    "/static/tts",
			CacheSize:    50,
			Timeout:      Duration(15 * time.Second),
		},
		Storage: Storage{Kind: StorageLocal, Dir: "static/tts"},
		Predictions: Predictions{
			Timeout: Duration(5 * time.Second),
		},
		Chat: Chat{CacheSize: 100},
	}
}

// Load reads a .env file if present, then the YAML file at path over the
// defaults. An empty path loads the defaults only.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	if path == "" {
		return finish(Default())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.expand()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnv resolves values that start with "$" from the environment.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "$") {
		return os.ExpandEnv(s)
	}
	return s
}

func (c *Config) expand() {
	for _, p := range []*string{
		&c.Sentry.DSN,
		&c.Classifier.PAT,
		&c.Translate.GoogleAPIKey,
		&c.Translate.LibreAPIKey,
		&c.Speech.GoogleAPIKey,
		&c.Speech.OpenAIAPIKey,
		&c.Storage.Bucket,
		&c.Predictions.DSN,
	} {
		*p = expandEnv(*p)
	}
	for i := range c.LLM.Providers {
		p := &c.LLM.Providers[i]
		p.APIKey = expandEnv(p.APIKey)
		p.BaseURL = expandEnv(p.BaseURL)
	}
}

// Validate rejects values that cannot be wired.
func (c *Config) Validate() error {
	switch c.Storage.Kind {
	case StorageLocal:
		if c.Storage.Dir == "" {
			return errors.New("config: storage.dir is required for local storage")
		}
	case StorageS3:
		if c.Storage.Bucket == "" {
			return errors.New("config: storage.bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("config: unknown storage.kind %q", c.Storage.Kind)
	}
	switch c.Predictions.Driver {
	case "":
	case "pgx", "postgres", "sqlite":
		if c.Predictions.DSN == "" {
			return fmt.Errorf("config: predictions.dsn is required for driver %q", c.Predictions.Driver)
		}
	case DriverBadger:
		if c.Predictions.Dir == "" {
			return errors.New("config: predictions.dir is required for badger")
		}
	default:
		return fmt.Errorf("config: unknown predictions.driver %q", c.Predictions.Driver)
	}
	for i, p := range c.LLM.Providers {
		if p.Model == "" {
			return fmt.Errorf("config: llm.providers[%d]: model is required", i)
		}
	}
	return nil
}
