package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Address string `json:"address" toml:"address"`
}

type SecurityConfig struct {
	MaxBodySize    int64    `json:"maxBodySize" toml:"maxBodySize"` // bytes
	AllowedMethods []string `json:"allowedMethods" toml:"allowedMethods"`
}

type TimeoutConfig struct {
	RequestTimeout int `json:"requestTimeout" toml:"requestTimeout"` // seconds
}

type CORSConfig struct {
	AllowOrigins     []string      `json:"allowOrigins" toml:"allowOrigins"`
	AllowMethods     []string      `json:"allowMethods" toml:"allowMethods"`
	AllowHeaders     []string      `json:"allowHeaders" toml:"allowHeaders"`
	ExposeHeaders    []string      `json:"exposeHeaders" toml:"exposeHeaders"`
	AllowCredentials bool          `json:"allowCredentials" toml:"allowCredentials"`
	MaxAge           time.Duration `json:"maxAge" toml:"maxAge"`
	TrustedDomains   []string      `json:"trustedDomains" toml:"trustedDomains"`
}

type JWTAuthConfig struct {
	Secret        string        `json:"secret" toml:"secret"`
	AccessTTL     time.Duration `json:"accessTTL" toml:"accessTTL"`
	RefreshTTL    time.Duration `json:"refreshTTL" toml:"refreshTTL"`
	Issuer        string        `json:"issuer" toml:"issuer"`
	SigningMethod string        `json:"signingMethod" toml:"signingMethod"`
	Realm         string        `json:"realm" toml:"realm"`
}

type RateLimitConfig struct {
	Rate     int           `json:"rate" toml:"rate"` // <= 0 disables the limiter
	Interval time.Duration `json:"interval" toml:"interval"`
}

type MiddlewareConfig struct {
	Security  SecurityConfig  `json:"security" toml:"security"`
	JWT       JWTAuthConfig   `json:"jwt" toml:"jwt"`
	Timeout   TimeoutConfig   `json:"timeout" toml:"timeout"`
	CORS      CORSConfig      `json:"cors" toml:"cors"`
	RateLimit RateLimitConfig `json:"rateLimit" toml:"rateLimit"`
}

type DatabaseConfig struct {
	Driver      string `json:"driver" toml:"driver"`           // mysql | postgres | sqlite
	Host        string `json:"host" toml:"host"`               // host, or socket path when UseUnixSock
	Port        int    `json:"port" toml:"port"`               //
	Username    string `json:"username" toml:"username"`       //
	Password    string `json:"password" toml:"password"`       //
	DBName      string `json:"dbname" toml:"dbname"`           //
	Path        string `json:"path" toml:"path"`               // sqlite file
	SSLMode     string `json:"sslMode" toml:"sslMode"`         // postgres only
	UseUnixSock bool   `json:"useUnixSock" toml:"useUnixSock"` // mysql only
	MinPoolSize int    `json:"minPoolSize" toml:"minPoolSize"`
	MaxPoolSize int    `json:"maxPoolSize" toml:"maxPoolSize"`
	LogLevel    string `json:"logLevel" toml:"logLevel"` // GORM log level
}

// ModerationConfig controls the toxicity gate applied on post creation.
type ModerationConfig struct {
	Provider  string        `json:"provider" toml:"provider"` // http | lexicon
	Endpoint  string        `json:"endpoint" toml:"endpoint"`
	APIToken  string        `json:"apiToken" toml:"apiToken"`
	Threshold float64       `json:"threshold" toml:"threshold"`
	Timeout   time.Duration `json:"timeout" toml:"timeout"`
	// FailOpen persists the post when the classifier cannot be reached.
	// Off by default: an unreachable classifier fails the create with 503.
	FailOpen bool          `json:"failOpen" toml:"failOpen"`
	CacheTTL time.Duration `json:"cacheTTL" toml:"cacheTTL"` // 0 disables the score cache
	Lexicon  []string      `json:"lexicon" toml:"lexicon"`
}

type Config struct {
	Server     ServerConfig     `json:"server" toml:"server"`
	Database   DatabaseConfig   `json:"database" toml:"database"`
	Middleware MiddlewareConfig `json:"middleware" toml:"middleware"`
	Moderation ModerationConfig `json:"moderation" toml:"moderation"`
	Env        string           `json:"env" toml:"env"`
	LogLevel   string           `json:"logLevel" toml:"logLevel"`
}

var defaultConfig = Config{
	Server: ServerConfig{
		Address: ":8080",
	},
	Database: DatabaseConfig{
		Driver:      "sqlite",
		Host:        "localhost",
		Port:        3306,
		Username:    "root",
		Password:    "root",
		DBName:      "blog",
		Path:        "./data/blog.db",
		SSLMode:     "disable",
		UseUnixSock: false,
		MinPoolSize: 5,
		MaxPoolSize: 50,
		LogLevel:    "warn",
	},
	Middleware: MiddlewareConfig{
		Security: SecurityConfig{
			MaxBodySize:    10 << 20, // 10MB
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		},
		JWT: JWTAuthConfig{
			Secret:        "dev-secret-change-me-in-production",
			AccessTTL:     5 * time.Minute,
			RefreshTTL:    24 * time.Hour,
			Issuer:        "blog-platform",
			SigningMethod: "HS256",
			Realm:         "blog-platform",
		},
		Timeout: TimeoutConfig{
			RequestTimeout: 15,
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-Id"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Rate:     100,
			Interval: 10 * time.Millisecond,
		},
	},
	Moderation: ModerationConfig{
		Provider:  "lexicon",
		Threshold: 0.5,
		Timeout:   3 * time.Second,
		FailOpen:  false,
		CacheTTL:  10 * time.Minute,
	},
	Env:      "development",
	LogLevel: "info",
}

// Default returns a copy of the built-in defaults.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// IsProd reports whether the process runs in production.
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// Load builds the configuration (priority: environment > config file > defaults).
// A .env file in the working directory is applied to the environment first.
func Load() *Config {
	config := defaultConfig

	// 0. .env
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		hlog.Warnf("Failed to load .env file: %v", err)
	}

	// 1. config file
	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(&config, configPath); err != nil {
			hlog.Warnf("Failed to load config file: %v", err)
		}
	}

	// 2. environment overrides
	loadFromEnv(&config)

	return &config
}

// getConfigPath returns the first config file found.
func getConfigPath() string {
	if path := os.Getenv("APP_CONFIG"); path != "" {
		return path
	}

	searchPaths := []string{
		"./config.json",
		"./config.toml",
		"../config.json",
		"../config.toml",
		"/etc/blog-platform/config.json",
		"/etc/blog-platform/config.toml",
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadFromFile decodes a JSON or TOML file into config, picked by extension.
func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, config)
	default:
		return json.Unmarshal(data, config)
	}
}

// loadFromEnv applies environment variable overrides.
func loadFromEnv(config *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		config.Server.Address = v
	}

	if v := os.Getenv("APP_ENV"); v != "" {
		config.Env = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.LogLevel = strings.ToLower(v)
	}

	// middleware
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Middleware.Security.MaxBodySize = size
		}
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			config.Middleware.Timeout.RequestTimeout = timeout
		}
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil {
			config.Middleware.RateLimit.Rate = rate
		}
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		config.Middleware.CORS.AllowOrigins = splitEnvList(v)
	}

	if v := os.Getenv("CORS_TRUSTED_DOMAINS"); v != "" {
		config.Middleware.CORS.TrustedDomains = splitEnvList(v)
	}

	/****** JWT ******/
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.Middleware.JWT.Secret = v
	}

	if v := os.Getenv("JWT_ACCESS_TTL"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			config.Middleware.JWT.AccessTTL = duration
		} else {
			hlog.Warnf("Invalid JWT_ACCESS_TTL format: %v", err)
		}
	}

	if v := os.Getenv("JWT_REFRESH_TTL"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			config.Middleware.JWT.RefreshTTL = duration
		} else {
			hlog.Warnf("Invalid JWT_REFRESH_TTL format: %v", err)
		}
	}

	if v := os.Getenv("JWT_ISSUER"); v != "" {
		config.Middleware.JWT.Issuer = v
	}

	if v := os.Getenv("JWT_ALGORITHM"); v != "" {
		algorithm := strings.ToLower(strings.ReplaceAll(v, " ", ""))

		validAlgorithms := map[string]bool{
			"hs256": true,
			"hs384": true,
			"hs512": true,
		}

		if validAlgorithms[algorithm] {
			config.Middleware.JWT.SigningMethod = strings.ToUpper(algorithm)
		} else {
			hlog.Warnf("Unsupported JWT algorithm: %s", v)
		}
	}

	// database
	if v := os.Getenv("DB_DRIVER"); v != "" {
		config.Database.Driver = strings.ToLower(v)
	}

	if v := os.Getenv("DB_HOST"); v != "" {
		config.Database.Host = v
	}

	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Database.Port = port
		}
	}

	if v := os.Getenv("DB_USER"); v != "" {
		config.Database.Username = v
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Database.Password = v
	}

	if v := os.Getenv("DB_NAME"); v != "" {
		config.Database.DBName = v
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		config.Database.Path = v
	}

	if v := os.Getenv("DB_SSLMODE"); v != "" {
		config.Database.SSLMode = v
	}

	if v := os.Getenv("DB_SOCKET"); v != "" {
		config.Database.UseUnixSock = parseBool(v)
	}

	if v := os.Getenv("DB_MIN_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MinPoolSize = size
		}
	}

	if v := os.Getenv("DB_MAX_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MaxPoolSize = size
		}
	}

	if v := os.Getenv("DB_LOG_LEVEL"); v != "" {
		config.Database.LogLevel = strings.ToLower(v)
	}

	// moderation
	if v := os.Getenv("MODERATION_PROVIDER"); v != "" {
		config.Moderation.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("MODERATION_ENDPOINT"); v != "" {
		config.Moderation.Endpoint = v
	}

	if v := os.Getenv("MODERATION_API_TOKEN"); v != "" {
		config.Moderation.APIToken = v
	}

	if v := os.Getenv("TOXICITY_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil && threshold >= 0 && threshold <= 1 {
			config.Moderation.Threshold = threshold
		} else {
			hlog.Warnf("Invalid TOXICITY_THRESHOLD %q, keeping %.2f", v, config.Moderation.Threshold)
		}
	}

	if v := os.Getenv("MODERATION_TIMEOUT"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			config.Moderation.Timeout = duration
		}
	}

	if v := os.Getenv("MODERATION_FAIL_OPEN"); v != "" {
		config.Moderation.FailOpen = parseBool(v)
	}

	if v := os.Getenv("MODERATION_CACHE_TTL"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			config.Moderation.CacheTTL = duration
		}
	}

	if v := os.Getenv("MODERATION_LEXICON"); v != "" {
		config.Moderation.Lexicon = splitEnvList(v)
	}
}

// splitEnvList splits a comma separated variable.
func splitEnvList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(value string) bool {
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes"
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.IsProd() && c.Middleware.JWT.Secret == defaultConfig.Middleware.JWT.Secret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Moderation.Threshold < 0 || c.Moderation.Threshold > 1 {
		return fmt.Errorf("moderation threshold %.2f outside [0,1]", c.Moderation.Threshold)
	}
	switch c.Moderation.Provider {
	case "lexicon":
	case "http":
		if c.Moderation.Endpoint == "" {
			return fmt.Errorf("moderation provider http requires an endpoint")
		}
	default:
		return fmt.Errorf("unknown moderation provider %q", c.Moderation.Provider)
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}
