// Package config reads process configuration from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/neexbeast/wayfarer/internal/translate"
)

// Config is the full runtime configuration.
type Config struct {
	Port          string
	BearerToken   string
	DatabaseURL   string
	RedisURL      string
	// MigrationsDir overrides the embedded migrations when set.
	MigrationsDir string
	CORSOrigins   []string

	Translate translate.Config

	WeatherBaseURL string
	WeatherRPS     float64

	// TTSCommand is the text-to-speech command line used by the CLI, e.g.
	// "espeak-ng -v {lang}". Empty disables speech output.
	TTSCommand []string
}

// Load reads .env (if present) and then the environment. Variables already
// set in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Port:           get("PORT", "8080"),
		BearerToken:    get("BEARER_TOKEN", ""),
		DatabaseURL:    get("DATABASE_URL", ""),
		RedisURL:       get("REDIS_URL", ""),
		MigrationsDir:  get("MIGRATIONS_DIR", ""),
		CORSOrigins:    splitList(get("CORS_ORIGINS", "*")),
		WeatherBaseURL: get("WEATHER_BASE_URL", ""),
		TTSCommand:     strings.Fields(get("TTS_COMMAND", "")),
		Translate: translate.Config{
			Provider:      strings.ToLower(get("TRANSLATE_PROVIDER", translate.ProviderNone)),
			DeepLKey:      get("DEEPL_KEY", ""),
			GoogleKey:     get("GOOGLE_KEY", ""),
			OpenAIKey:     get("OPENAI_KEY", ""),
			OpenAIBaseURL: get("OPENAI_BASE_URL", ""),
			OpenAIModel:   get("OPENAI_MODEL", ""),
			LibreKey:      get("LIBRETRANSLATE_KEY", ""),
		},
	}

	switch cfg.Translate.Provider {
	case translate.ProviderNone, translate.ProviderDeepL, translate.ProviderGoogle, translate.ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("TRANSLATE_PROVIDER: unknown provider %q", cfg.Translate.Provider)
	}

	if v := get("LIBRETRANSLATE_ENDPOINTS", ""); v != "" {
		cfg.Translate.LibreEndpoints = splitList(v)
		if v == "none" {
			cfg.Translate.LibreEndpoints = []string{}
		}
	}

	var err error
	if cfg.Translate.DisableMyMemory, err = strconv.ParseBool(get("MYMEMORY_DISABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("MYMEMORY_DISABLED: %w", err)
	}
	if cfg.Translate.Attempts, err = strconv.Atoi(get("TRANSLATE_ATTEMPTS", strconv.Itoa(translate.DefaultAttempts))); err != nil {
		return Config{}, fmt.Errorf("TRANSLATE_ATTEMPTS: %w", err)
	}
	if cfg.Translate.BackoffStep, err = time.ParseDuration(get("TRANSLATE_BACKOFF", translate.DefaultBackoffStep.String())); err != nil {
		return Config{}, fmt.Errorf("TRANSLATE_BACKOFF: %w", err)
	}
	if cfg.WeatherRPS, err = strconv.ParseFloat(get("WEATHER_RPS", "5"), 64); err != nil {
		return Config{}, fmt.Errorf("WEATHER_RPS: %w", err)
	}

	return cfg, nil
}

// ValidateServer checks the settings the HTTP server cannot run without.
func (c Config) ValidateServer() error {
	if c.BearerToken == "" {
		return errors.New("BEARER_TOKEN is required")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
