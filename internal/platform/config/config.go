package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config is resolved once at process start and passed down explicitly.
type Config struct {
	Server   Server
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Accounts Accounts
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration
	// TxTimeout bounds a movement transaction when the caller has no deadline.
	TxTimeout time.Duration
	// LockTTL is the lease of a distributed per-resident lock.
	LockTTL time.Duration
	// Location is the time zone used for "today" on dashboards.
	Location *time.Location
	// LoginRateLimit caps login attempts per client IP within LoginRateWindow.
	// Zero disables the limit.
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig selects Postgres; an empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables the distributed resident lock; an empty URL keeps locks
// in-process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables streaming audit events; no brokers keeps the audit trail
// in the primary store only.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	ClientID   string
}

// Account is a fixed staff credential. PasswordHash is always a bcrypt hash.
type Account struct {
	Username     string
	PasswordHash string
	Name         string
	Location     string
}

// Accounts is the staff credential table.
type Accounts struct {
	Admin    Account
	Watchmen []Account
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() (Config, error) {
	loc, err := loadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return Config{}, err
	}
	accounts, err := accountsFromEnv()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: Server{
			Addr:          getEnv("GATE_ADDR", ":8080"),
			// Use a default for development - should be overridden in production
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TokenTTL:      getDuration("TOKEN_TTL", 12*time.Hour),
			TxTimeout:     getDuration("TX_TIMEOUT", 5*time.Second),
			LockTTL:       getDuration("LOCK_TTL", 5*time.Second),
			Location:      loc,

			LoginRateLimit:  getInt("LOGIN_RATE_LIMIT", 10),
			LoginRateWindow: getDuration("LOGIN_RATE_WINDOW", time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS"), ","),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "gate.audit"),
			ClientID:   getEnv("KAFKA_CLIENT_ID", "hostelgate"),
		},
		Accounts: accounts,
	}
	return cfg, nil
}

// accountsFromEnv resolves the staff credential table. Plain passwords are
// hashed here so nothing downstream ever sees them.
func accountsFromEnv() (Accounts, error) {
	adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminHash == "" {
		h, err := HashPassword(getEnv("ADMIN_PASSWORD", "1234"))
		if err != nil {
			return Accounts{}, fmt.Errorf("hash admin password: %w", err)
		}
		adminHash = h
	}

	watchmen, err := ParseWatchmen(getEnv("WATCHMEN", "watchman:1234:Main Gate Watchman:Main Gate"))
	if err != nil {
		return Accounts{}, err
	}

	return Accounts{
		Admin: Account{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: adminHash,
			Name:         getEnv("ADMIN_NAME", "Hostel Administrator"),
		},
		Watchmen: watchmen,
	}, nil
}

// ParseWatchmen parses "user:password:name:location;..." entries. A password
// starting with "$2" is taken as an existing bcrypt hash.
func ParseWatchmen(raw string) ([]Account, error) {
	var accounts []Account
	for _, entry := range splitList(raw, ";") {
		parts := strings.SplitN(entry, ":", 4)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid watchman entry %q: want user:password[:name[:location]]", entry)
		}
		hash := parts[1]
		if !strings.HasPrefix(hash, "$2") {
			h, err := HashPassword(hash)
			if err != nil {
				return nil, fmt.Errorf("hash watchman password: %w", err)
			}
			hash = h
		}
		acct := Account{Username: parts[0], PasswordHash: hash}
		if len(parts) > 2 {
			acct.Name = parts[2]
		}
		if len(parts) > 3 {
			acct.Location = parts[3]
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// HashPassword bcrypt-hashes a plain password.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
