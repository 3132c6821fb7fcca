package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`

	Storage struct {
		Driver        string `yaml:"driver"` // file/redis/sqlite
		Dir           string `yaml:"dir"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		RedisPrefix   string `yaml:"redis_prefix"`
		SQLiteDSN     string `yaml:"sqlite_dsn"`
	} `yaml:"storage"`

	Detector struct {
		Kind            string  `yaml:"kind"` // remote/gocv
		InferenceURL    string  `yaml:"inference_url"`
		HealthURL       string  `yaml:"health_url"`
		APIKey          string  `yaml:"api_key"`
		ConfidenceScale string  `yaml:"confidence_scale"` // fraction/percent
		ModelPath       string  `yaml:"model_path"`
		LabelsPath      string  `yaml:"labels_path"`
		MinConfidence   float64 `yaml:"min_confidence"`
		MaxUploadMB     int     `yaml:"max_upload_mb"`
		MaxSide         int     `yaml:"max_side"`
	} `yaml:"detector"`

	HistoryDefaultLimit int      `yaml:"history_default_limit"`
	FrontendURL         string   `yaml:"frontend_url"`
	AllowedOrigins      []string `yaml:"allowed_origins"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text/json
	} `yaml:"log"`

	TelegramToken string `yaml:"telegram_token"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	cfg := &Config{
		Port:                8000,
		Environment:         "development",
		HistoryDefaultLimit: 50,
		FrontendURL:         "https://pangil.vercel.app",
		AllowedOrigins:      []string{"http://localhost:3000"},
	}
	cfg.Storage.Driver = "file"
	cfg.Storage.Dir = "./detections"
	cfg.Storage.RedisAddr = "localhost:6379"
	cfg.Storage.RedisPrefix = "history:"
	cfg.Storage.SQLiteDSN = "./history.db"
	cfg.Detector.Kind = "remote"
	cfg.Detector.ConfidenceScale = "fraction"
	cfg.Detector.MinConfidence = 25
	cfg.Detector.MaxUploadMB = 10
	cfg.Detector.MaxSide = 1024
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv переопределяет значения переменными окружения.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ENVIRONMENT":                &c.Environment,
		"STORAGE_DRIVER":             &c.Storage.Driver,
		"STORAGE_DIR":                &c.Storage.Dir,
		"REDIS_ADDR":                 &c.Storage.RedisAddr,
		"REDIS_PASSWORD":             &c.Storage.RedisPassword,
		"REDIS_PREFIX":               &c.Storage.RedisPrefix,
		"SQLITE_DSN":                 &c.Storage.SQLiteDSN,
		"DETECTOR":                   &c.Detector.Kind,
		"INFERENCE_URL":              &c.Detector.InferenceURL,
		"INFERENCE_HEALTH_URL":       &c.Detector.HealthURL,
		"INFERENCE_API_KEY":          &c.Detector.APIKey,
		"INFERENCE_CONFIDENCE_SCALE": &c.Detector.ConfidenceScale,
		"MODEL_PATH":                 &c.Detector.ModelPath,
		"LABELS_PATH":                &c.Detector.LabelsPath,
		"FRONTEND_URL":               &c.FrontendURL,
		"LOG_LEVEL":                  &c.Log.Level,
		"LOG_FORMAT":                 &c.Log.Format,
		"TELEGRAM_TOKEN":             &c.TelegramToken,
	}
	for key, dst := range strs {
		if v, ok := lookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":                  &c.Port,
		"REDIS_DB":              &c.Storage.RedisDB,
		"MAX_UPLOAD_MB":         &c.Detector.MaxUploadMB,
		"MAX_SIDE":              &c.Detector.MaxSide,
		"HISTORY_DEFAULT_LIMIT": &c.HistoryDefaultLimit,
	}
	for key, dst := range ints {
		v, ok := lookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", key, v)
		}
		*dst = n
	}

	if v, ok := lookupEnv("MIN_CONFIDENCE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MIN_CONFIDENCE: %q", v)
		}
		c.Detector.MinConfidence = f
	}

	if v, ok := lookupEnv("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	switch c.Storage.Driver {
	case "file", "redis", "sqlite":
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	switch c.Detector.Kind {
	case "remote", "gocv":
	default:
		return fmt.Errorf("unsupported detector: %s", c.Detector.Kind)
	}
	switch c.Detector.ConfidenceScale {
	case "fraction", "percent":
	default:
		return fmt.Errorf("unsupported confidence scale: %s", c.Detector.ConfidenceScale)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 100 {
		return fmt.Errorf("min confidence must be within 0..100, got %v", c.Detector.MinConfidence)
	}
	if c.Detector.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if c.HistoryDefaultLimit <= 0 {
		return fmt.Errorf("history default limit must be positive")
	}
	for _, o := range c.Origins() {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("invalid allowed origin: %s", o)
		}
	}
	return nil
}

// Addr возвращает адрес HTTP-сервера.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// MaxUploadBytes возвращает лимит размера загружаемого файла.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Detector.MaxUploadMB) << 20
}

// Origins возвращает разрешённые CORS-источники без дублей.
func (c *Config) Origins() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range append(append([]string(nil), c.AllowedOrigins...), c.FrontendURL) {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// lookupEnv считает пустую переменную незаданной.
func lookupEnv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
