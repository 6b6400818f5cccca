package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var ErrMissingTokenKey = errors.New("config: TOKEN_KEY is not set")

type Config struct {
	DatabaseURL    string
	TokenKey       string
	Addr           string
	TLSCert        string
	TLSKey         string
	ModelPath      string
	BackupDir      string
	AllowOrigin    string
	LogLevel       string
	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []string
}

// TLS reports whether both certificate files are configured.
func (c Config) TLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:    envOrDefault("DATABASE_URL", "user=postgres dbname=seedlab password=password sslmode=disable"),
		TokenKey:       os.Getenv("TOKEN_KEY"),
		Addr:           envOrDefault("ADDR", ":8080"),
		TLSCert:        os.Getenv("TLS_CERT"),
		TLSKey:         os.Getenv("TLS_KEY"),
		ModelPath:      envOrDefault("MODEL_PATH", "model/strength.json"),
		BackupDir:      envOrDefault("BACKUP_DIR", "backups"),
		AllowOrigin:    envOrDefault("ALLOW_ORIGIN", "*"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		RateLimitRPS:   envOrDefaultFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: envOrDefaultInt("RATE_LIMIT_BURST", 10),
		TrustedProxies: envList("TRUSTED_PROXIES"),
	}
	return cfg, nil
}

// Validate checks the settings the API server cannot start without.
func (c Config) Validate() error {
	if c.TokenKey == "" {
		return ErrMissingTokenKey
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
