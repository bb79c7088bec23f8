package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"media-aggregator/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Cache       Cache       `json:"cache"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Providers   Providers   `json:"providers"`
	Title       Title       `json:"title"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port        int      `json:"port"`
	TLSEnabled  bool     `json:"tlsEnabled"`
	TLSCertFile string   `json:"tlsCertFile"`
	TLSKeyFile  string   `json:"tlsKeyFile"`
	CORSOrigins []string `json:"corsOrigins"`
	WarmUp      bool     `json:"warmUp"`
}

// Cache configures the tiered cache and the get-or-fetch protocol.
type Cache struct {
	Namespace        string        `json:"namespace"`
	Version          string        `json:"version"`
	Driver           string        `json:"driver"` // file, postgres, mssql, redis, none
	FileDir          string        `json:"fileDir"`
	MemoryCapacity   int           `json:"memoryCapacity"`
	CompactThreshold int           `json:"compactThreshold"`
	FetchTimeout     time.Duration `json:"fetchTimeout"`
	MaxAttempts      int           `json:"maxAttempts"`
	BackoffBase      time.Duration `json:"backoffBase"`
	StaleRetention   time.Duration `json:"staleRetention"`
	PurgeSchedule    string        `json:"purgeSchedule"` // cron expression or @every <duration>
	Coalesce         bool          `json:"coalesce"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Providers struct {
	Primary   PrimaryProvider   `json:"primary"`
	Secondary SecondaryProvider `json:"secondary"`
}

// PrimaryProvider is the paged full-catalogue upstream.
type PrimaryProvider struct {
	BaseURL   string        `json:"baseURL"`
	APIKey    string        `json:"apiKey"`
	PerPage   int           `json:"perPage"`
	MaxPages  int           `json:"maxPages"`
	TTL       time.Duration `json:"ttl"`
	EmbedBase string        `json:"embedBase"`
	Limits    Limits        `json:"limits"`
}

// SecondaryProvider is the per-query upstream.
type SecondaryProvider struct {
	BaseURL     string        `json:"baseURL"`
	APIKey      string        `json:"apiKey"`
	UserAgent   string        `json:"userAgent"`
	ListTTL     time.Duration `json:"listTTL"`
	SearchTTL   time.Duration `json:"searchTTL"`
	InfoTTL     time.Duration `json:"infoTTL"`
	MaxKeywords int           `json:"maxKeywords"`
	EmbedBase   string        `json:"embedBase"`
	Limits      Limits        `json:"limits"`
}

// Limits guards outbound calls to one provider. A negative RateLimit or
// BreakerFailures disables that guard.
type Limits struct {
	RateLimit       float64       `json:"rateLimit"`
	Burst           int           `json:"burst"`
	BreakerFailures int           `json:"breakerFailures"`
	BreakerOpenFor  time.Duration `json:"breakerOpenFor"`
}

// Title configures the display title normalizer.
type Title struct {
	MinWords int      `json:"minWords"`
	MaxWords int      `json:"maxWords"`
	Keywords []string `json:"keywords"`
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

func init() {
	Reload()
}

// Reload rebuilds C from the config file and the current environment. Call
// it after loading env files so their values take effect.
func Reload() {
	C = Config{}
	LoadConfig()
	ApplyDefaults(&C)
	initApp(&C)
	initCache(&C)
	initDatabase(&C)
	initProviders(&C)
	logger.SetFormat(C.Logger.Format)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

// ApplyDefaults fills every zero field with its documented default.
func ApplyDefaults(c *Config) {
	if c.App.Port == 0 {
		c.App.Port = 10001
	}
	if len(c.App.CORSOrigins) == 0 {
		c.App.CORSOrigins = []string{"*"}
	}

	if c.Cache.Namespace == "" {
		c.Cache.Namespace = "mediacache"
	}
	if c.Cache.Version == "" {
		c.Cache.Version = "v2"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "file"
	}
	if c.Cache.FileDir == "" {
		c.Cache.FileDir = ".cache"
	}
	if c.Cache.MemoryCapacity <= 0 {
		c.Cache.MemoryCapacity = 1000
	}
	if c.Cache.CompactThreshold <= 0 {
		c.Cache.CompactThreshold = 50000
	}
	if c.Cache.FetchTimeout <= 0 {
		c.Cache.FetchTimeout = 30 * time.Second
	}
	if c.Cache.MaxAttempts <= 0 {
		c.Cache.MaxAttempts = 3
	}
	if c.Cache.BackoffBase <= 0 {
		c.Cache.BackoffBase = time.Second
	}
	if c.Cache.StaleRetention <= 0 {
		c.Cache.StaleRetention = 30 * 24 * time.Hour
	}
	if c.Cache.PurgeSchedule == "" {
		c.Cache.PurgeSchedule = "@every 1h"
	}

	p := &c.Providers.Primary
	if p.BaseURL == "" {
		p.BaseURL = "https://api.lulustream.com/api"
	}
	if p.PerPage <= 0 {
		p.PerPage = 1000
	}
	if p.MaxPages <= 0 {
		p.MaxPages = 1000
	}
	if p.TTL <= 0 {
		p.TTL = 7 * 24 * time.Hour
	}
	if p.EmbedBase == "" {
		p.EmbedBase = "https://luvluv.pages.dev"
	}
	applyLimitDefaults(&p.Limits, 5)

	s := &c.Providers.Secondary
	if s.BaseURL == "" {
		s.BaseURL = "https://doodapi.com/api"
	}
	if s.UserAgent == "" {
		s.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if s.ListTTL <= 0 {
		s.ListTTL = 6 * time.Hour
	}
	if s.SearchTTL <= 0 {
		s.SearchTTL = 2 * time.Hour
	}
	if s.InfoTTL <= 0 {
		s.InfoTTL = 24 * time.Hour
	}
	if s.MaxKeywords <= 0 {
		s.MaxKeywords = 5
	}
	if s.EmbedBase == "" {
		s.EmbedBase = "https://dodl.pages.dev"
	}
	applyLimitDefaults(&s.Limits, 10)

	if c.Title.MinWords <= 0 {
		c.Title.MinWords = 6
	}
	if c.Title.MaxWords <= 0 {
		c.Title.MaxWords = 9
	}
}

func applyLimitDefaults(l *Limits, rps float64) {
	if l.RateLimit == 0 {
		l.RateLimit = rps
	}
	if l.Burst <= 0 {
		l.Burst = int(rps)
	}
	if l.BreakerFailures == 0 {
		l.BreakerFailures = 5
	}
	if l.BreakerOpenFor <= 0 {
		l.BreakerOpenFor = 30 * time.Second
	}
}

func initApp(C *Config) {
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if v := os.Getenv("WARM_UP"); v != "" {
		C.App.WarmUp = v == "1" || strings.EqualFold(v, "true")
	}
}

func initCache(C *Config) {
	if v := os.Getenv("CACHE_DRIVER"); v != "" {
		C.Cache.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		C.Cache.FileDir = v
	}
	if v := os.Getenv("CACHE_PURGE_SCHEDULE"); v != "" {
		C.Cache.PurgeSchedule = v
	}
	if v := os.Getenv("CACHE_COALESCE"); v != "" {
		C.Cache.Coalesce = v == "1" || strings.EqualFold(v, "true")
	}
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = "5432"
	}
	if C.Database.Psql.SSLMode == "" {
		C.Database.Psql.SSLMode = "disable"
	}

	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = os.Getenv("MSSQL_HOST")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = os.Getenv("MSSQL_USER")
	}
	if C.Database.Mssql.Port == "" {
		if v := os.Getenv("MSSQL_PORT"); v != "" {
			C.Database.Mssql.Port = v
		} else {
			C.Database.Mssql.Port = "1433"
		}
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = "localhost"
	}

	if C.RedisClient.Host == "" {
		C.RedisClient.Host = getEnv("REDIS_HOST", "localhost")
	}
	if C.RedisClient.Port == "" {
		C.RedisClient.Port = getEnv("REDIS_PORT", "6379")
	}
	if C.RedisClient.Password == "" {
		C.RedisClient.Password = os.Getenv("REDIS_PASSWORD")
	}
}

func initProviders(C *Config) {
	C.Providers.Primary.APIKey = getConfigValue(C.Providers.Primary.APIKey, "PRIMARY_API_KEY", "")
	C.Providers.Secondary.APIKey = getConfigValue(C.Providers.Secondary.APIKey, "SECONDARY_API_KEY", "")
	C.Providers.Primary.BaseURL = getConfigValue(C.Providers.Primary.BaseURL, "PRIMARY_BASE_URL", C.Providers.Primary.BaseURL)
	C.Providers.Secondary.BaseURL = getConfigValue(C.Providers.Secondary.BaseURL, "SECONDARY_BASE_URL", C.Providers.Secondary.BaseURL)
	if C.Providers.Primary.APIKey == "" {
		logger.GetLogger().Warn("Providers.Primary.APIKey not set; primary catalogue requests will be rejected upstream. Provide PRIMARY_API_KEY via environment.")
	}
	if C.Providers.Secondary.APIKey == "" {
		logger.GetLogger().Warn("Providers.Secondary.APIKey not set; secondary requests will be rejected upstream. Provide SECONDARY_API_KEY via environment.")
	}
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
