package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	// BaseURL is the externally reachable address used in emailed links.
	BaseURL      string
	CookieSecure bool
	LogLevel     string
	SwaggerHost  string
	ResetDB      bool

	DB    DBConfig
	Redis RedisConfig
	Mail  MailConfig

	JWTSecret string
}

// DBConfig describes the database connection.
type DBConfig struct {
	Driver          string
	DSN             string // overrides the discrete MySQL fields when set
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	Path            string // SQLite file
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

// RedisConfig describes the optional cache backend.
type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

// MailConfig describes the outbound SMTP transport.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	port := getEnv("SERVER_PORT", "3003")
	return &Config{
		ServerPort:   port,
		BaseURL:      strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:"+port), "/"),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		SwaggerHost:  os.Getenv("SWAGGER_HOST"),
		ResetDB:      getEnvBool("RESET_DB", false),
		DB: DBConfig{
			Driver:          getEnv("DB_DRIVER", "mysql"),
			DSN:             os.Getenv("MYSQL_DSN"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "3306"),
			Name:            getEnv("DB_NAME", "bienesraices"),
			User:            getEnv("DB_USER", "root"),
			Password:        os.Getenv("DB_PASSWORD"),
			Path:            os.Getenv("DB_PATH"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 5),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			DB:       getEnvInt("REDIS_DB", 0),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Mail: MailConfig{
			Host:     os.Getenv("EMAIL_HOST"),
			Port:     getEnvInt("EMAIL_PORT", 587),
			User:     os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			From:     getEnv("EMAIL_FROM", "BienesRaices@yopmail.com"),
		},
		JWTSecret: getEnv("JWT_SECRET", "change-me"),
	}
}

// MySQLDSN returns the explicit DSN or one assembled from the discrete fields.
func (c DBConfig) MySQLDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, c.Port)
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// SMTPEnabled reports whether an SMTP host has been configured.
func (c MailConfig) SMTPEnabled() bool {
	return c.Host != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
