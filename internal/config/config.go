package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

type fileConfig struct {
	Model          string  `yaml:"model"`
	OpenAIBaseURL  string  `yaml:"openai_base_url"`
	SerpBaseURL    string  `yaml:"serpapi_base_url"`
	WeatherBaseURL string  `yaml:"weather_base_url"`
	StoragePath    string  `yaml:"storage_path"`
	CachePath      string  `yaml:"cache_path"`
	CacheTTL       string  `yaml:"cache_ttl"`
	MaxToolRounds  int     `yaml:"max_tool_rounds"`
	RequestTimeout string  `yaml:"request_timeout"`
	TurnTimeout    string  `yaml:"turn_timeout"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	HTTPAddr       string  `yaml:"http_addr"`
	EnableHTTP     bool    `yaml:"enable_http"`
}

type Config struct {
	Model          string
	OpenAIBaseURL  string
	OpenAIAPIKey   string
	SerpAPIKey     string
	SerpBaseURL    string
	OpenWeatherKey string
	WeatherBaseURL string
	StoragePath    string
	CachePath      string
	CacheTTL       time.Duration
	MaxToolRounds  int
	RequestTimeout time.Duration
	TurnTimeout    time.Duration
	Temperature    float64
	MaxTokens      int
	HTTPAddr       string
	EnableHTTP     bool
}

func Load(configPath string) (Config, error) {
	_ = loadDotEnv(".env")
	cfg := defaultConfig()
	if strings.TrimSpace(configPath) != "" {
		if err := applyYAMLConfig(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	if err := normalizeAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultConfig() Config {
	cwd, _ := os.Getwd()
	return Config{
		Model:          "gpt-4o-mini",
		OpenAIBaseURL:  "https://api.openai.com/v1",
		SerpBaseURL:    "https://serpapi.com",
		WeatherBaseURL: "https://api.openweathermap.org",
		StoragePath:    filepath.Join(cwd, "data", "threads.db"),
		CachePath:      filepath.Join(cwd, "data", "cache.db"),
		CacheTTL:       6 * time.Hour,
		MaxToolRounds:  8,
		RequestTimeout: 120 * time.Second,
		TurnTimeout:    10 * time.Minute,
		Temperature:    0.7,
		MaxTokens:      4096,
		HTTPAddr:       ":8090",
		EnableHTTP:     false,
	}
}

func applyYAMLConfig(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse yaml config: %w", err)
	}
	if v := strings.TrimSpace(fc.Model); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(fc.OpenAIBaseURL); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := strings.TrimSpace(fc.SerpBaseURL); v != "" {
		cfg.SerpBaseURL = v
	}
	if v := strings.TrimSpace(fc.WeatherBaseURL); v != "" {
		cfg.WeatherBaseURL = v
	}
	if v := strings.TrimSpace(fc.StoragePath); v != "" {
		cfg.StoragePath = v
	}
	if v := strings.TrimSpace(fc.CachePath); v != "" {
		cfg.CachePath = v
	}
	if v := strings.TrimSpace(fc.CacheTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl in yaml: %w", err)
		}
		cfg.CacheTTL = d
	}
	if fc.MaxToolRounds > 0 {
		cfg.MaxToolRounds = fc.MaxToolRounds
	}
	if v := strings.TrimSpace(fc.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid request_timeout in yaml: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := strings.TrimSpace(fc.TurnTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid turn_timeout in yaml: %w", err)
		}
		cfg.TurnTimeout = d
	}
	if fc.Temperature > 0 {
		cfg.Temperature = fc.Temperature
	}
	if fc.MaxTokens > 0 {
		cfg.MaxTokens = fc.MaxTokens
	}
	if v := strings.TrimSpace(fc.HTTPAddr); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.EnableHTTP = fc.EnableHTTP
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("SERPAPI_API_KEY")); v != "" {
		cfg.SerpAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY")); v != "" {
		cfg.OpenWeatherKey = v
	}
	if v := strings.TrimSpace(os.Getenv("STORAGE_PATH")); v != "" {
		cfg.StoragePath = v
	}
	if v := strings.TrimSpace(os.Getenv("CACHE_PATH")); v != "" {
		cfg.CachePath = v
	}
	if v := strings.TrimSpace(os.Getenv("CACHE_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheTTL = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_TOOL_ROUNDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxToolRounds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("TURN_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TurnTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("AGENT_HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(strings.ToLower(os.Getenv("AGENT_HTTP_ENABLE"))); v != "" {
		cfg.EnableHTTP = v == "1" || v == "true" || v == "yes" || v == "on"
	}
}

func normalizeAndValidate(cfg *Config) error {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.OpenAIBaseURL) == "" {
		return errors.New("openai_base_url is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return errors.New("model is required")
	}

	if strings.TrimSpace(cfg.StoragePath) == "" {
		cfg.StoragePath = filepath.Join("data", "threads.db")
	}
	if strings.TrimSpace(cfg.CachePath) == "" {
		cfg.CachePath = filepath.Join("data", "cache.db")
	}
	for _, p := range []string{cfg.StoragePath, cfg.CachePath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("ensure data dir: %w", err)
		}
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 8
	}
	if cfg.RequestTimeout < 0 {
		cfg.RequestTimeout = 0
	}
	if cfg.TurnTimeout < 0 {
		cfg.TurnTimeout = 0
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = 0
	}
	if cfg.Temperature > 2 {
		cfg.Temperature = 2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.MaxTokens > 131071 {
		cfg.MaxTokens = 131071
	}
	return nil
}

func loadDotEnv(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		k := strings.TrimSpace(line[:idx])
		v := strings.TrimSpace(line[idx+1:])
		if (strings.HasPrefix(v, "\"") && strings.HasSuffix(v, "\"")) || (strings.HasPrefix(v, "'") && strings.HasSuffix(v, "'")) {
			v = strings.Trim(v, "\"'")
		}
		if os.Getenv(k) == "" {
			_ = os.Setenv(k, v)
		}
	}
	return nil
}
