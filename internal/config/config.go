package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/loyalty-ledger/internal/models"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverLevelDB  = "leveldb"
	DriverPostgres = "postgres"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	StorageDriver string
	LevelDBPath   string
	DatabaseURL   string
	ExchangeRate  decimal.Decimal
	Currency      string
	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	StaffUsers    []models.StaffUser
	CORSOrigins   []string
	RateLimit     RateLimitConfig
	Log           LogConfig
}

// RateLimitConfig bounds requests per client.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
	// TrustedProxies are peers whose X-Forwarded-For header is believed.
	TrustedProxies []netip.Prefix
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// env is the raw variable set as cleanenv reads it.
type env struct {
	Port           string `env:"PORT"                 env-default:"8080"`
	StorageDriver  string `env:"STORAGE_DRIVER"       env-default:"memory"`
	LevelDBPath    string `env:"LEVELDB_PATH"         env-default:"./data/ledger"`
	DatabaseURL    string `env:"DATABASE_URL"`
	ExchangeRate   string `env:"POINTS_EXCHANGE_RATE" env-default:"10"`
	Currency       string `env:"CURRENCY"             env-default:"PKR"`
	JWTSecret      string `env:"JWT_SECRET"           env-required:"true"`
	JWTIssuer      string `env:"JWT_ISSUER"           env-default:"loyalty-ledger"`
	JWTTTLMinutes  int    `env:"JWT_TTL_MINUTES"      env-default:"60"`
	StaffUsers     string `env:"STAFF_USERS"`
	CORSOrigins    string `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	RateLimitRPM   int    `env:"RATE_LIMIT_RPM"       env-default:"120"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST"     env-default:"20"`
	TrustedProxies string `env:"RATE_LIMIT_TRUSTED_PROXIES"`
	LogLevel       string `env:"LOG_LEVEL"            env-default:"info"`
	LogFormat      string `env:"LOG_FORMAT"           env-default:"json"`
	LogFile        string `env:"LOG_FILE"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var raw env
	if err := cleanenv.ReadEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}
	cfg, err := build(raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func build(raw env) (Config, error) {
	cfg := Config{
		Port:          strings.TrimSpace(raw.Port),
		StorageDriver: strings.ToLower(strings.TrimSpace(raw.StorageDriver)),
		LevelDBPath:   strings.TrimSpace(raw.LevelDBPath),
		DatabaseURL:   strings.TrimSpace(raw.DatabaseURL),
		Currency:      strings.TrimSpace(raw.Currency),
		JWTSecret:     strings.TrimSpace(raw.JWTSecret),
		JWTIssuer:     strings.TrimSpace(raw.JWTIssuer),
		CORSOrigins:   parseCSV(raw.CORSOrigins),
		RateLimit:     RateLimitConfig{RequestsPerMinute: raw.RateLimitRPM, Burst: raw.RateLimitBurst},
		Log:           LogConfig{Level: raw.LogLevel, Format: raw.LogFormat, File: strings.TrimSpace(raw.LogFile)},
	}

	switch cfg.StorageDriver {
	case DriverMemory:
	case DriverLevelDB:
		if cfg.LevelDBPath == "" {
			return Config{}, errors.New("LEVELDB_PATH is required for the leveldb driver")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	// env-required catches an unset secret; a blank one is caught here.
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(raw.ExchangeRate))
	if err != nil || !rate.IsPositive() {
		return Config{}, fmt.Errorf("POINTS_EXCHANGE_RATE must be a positive number, got %q", raw.ExchangeRate)
	}
	cfg.ExchangeRate = rate

	if raw.JWTTTLMinutes > 0 {
		cfg.JWTTTL = time.Duration(raw.JWTTTLMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	if cfg.StaffUsers, err = parseStaff(raw.StaffUsers); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.TrustedProxies, err = parsePrefixes(raw.TrustedProxies); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parsePrefixes reads CIDRs or bare addresses separated by commas.
func parsePrefixes(input string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range parseCSVRaw(input) {
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("RATE_LIMIT_TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// parseStaff reads "username:role:bcrypt-hash" entries separated by commas.
func parseStaff(input string) ([]models.StaffUser, error) {
	var out []models.StaffUser
	seen := map[string]bool{}
	for _, entry := range parseCSVRaw(input) {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("STAFF_USERS entry %q must be username:role:hash", entry)
		}
		if !models.ValidRole(parts[1]) {
			return nil, fmt.Errorf("STAFF_USERS entry %q has unknown role %q", parts[0], parts[1])
		}
		if seen[parts[0]] {
			return nil, fmt.Errorf("STAFF_USERS lists %q twice", parts[0])
		}
		seen[parts[0]] = true
		out = append(out, models.StaffUser{Username: parts[0], Role: parts[1], PasswordHash: parts[2]})
	}
	return out, nil
}

func parseCSV(input string) []string {
	out := parseCSVRaw(input)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseCSVRaw(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
