package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	ReadTimeoutSec    int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec   int    `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec    int    `mapstructure:"idle_timeout_sec"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
	MaxBodyMB         int64  `mapstructure:"max_body_mb"`
}

type AdminHTTP struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	// BaseURL is used in emailed links; empty means "derive from the request".
	BaseURL     string    `mapstructure:"base_url"`
	CORSOrigins []string  `mapstructure:"cors_origins"`
	HTTP        HTTP      `mapstructure:"http"`
	Admin       AdminHTTP `mapstructure:"admin"`
}

type LogFile struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type Log struct {
	Level string  `mapstructure:"level"`
	JSON  bool    `mapstructure:"json"`
	File  LogFile `mapstructure:"file"`
}

type JWT struct {
	Secret             string `mapstructure:"secret"`
	Algorithm          string `mapstructure:"algorithm"`
	Issuer             string `mapstructure:"issuer"`
	AccessTokenTTLSec  int    `mapstructure:"access_token_ttl_sec"`
	RefreshTokenTTLMin int    `mapstructure:"refresh_token_ttl_min"`
	EmailTokenTTLDays  int    `mapstructure:"email_token_ttl_days"`
	LeewaySec          int    `mapstructure:"leeway_sec"`
}

func (j JWT) AccessTTL() time.Duration  { return time.Duration(j.AccessTokenTTLSec) * time.Second }
func (j JWT) RefreshTTL() time.Duration { return time.Duration(j.RefreshTokenTTLMin) * time.Minute }
func (j JWT) EmailTTL() time.Duration   { return time.Duration(j.EmailTokenTTLDays) * 24 * time.Hour }

type Password struct {
	Algorithm  string `mapstructure:"algorithm"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

type Mail struct {
	Driver    string `mapstructure:"driver"` // smtp | log
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	From      string `mapstructure:"from"`
	FromName  string `mapstructure:"from_name"`
	SSL       bool   `mapstructure:"ssl"`
	Workers   int    `mapstructure:"workers"`
	QueueSize int    `mapstructure:"queue_size"`
}

type Storage struct {
	Driver          string `mapstructure:"driver"` // s3 | none
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	MaxAvatarMB     int64  `mapstructure:"max_avatar_mb"`
}

type RateLimit struct {
	Driver      string  `mapstructure:"driver"` // memory | redis
	GlobalRPS   float64 `mapstructure:"global_rps"`
	GlobalBurst int     `mapstructure:"global_burst"`
	Concurrency int64   `mapstructure:"concurrency"`
	MeRequests  int     `mapstructure:"me_requests"`
	MeWindowSec int     `mapstructure:"me_window_sec"`
}

func (r RateLimit) MeWindow() time.Duration { return time.Duration(r.MeWindowSec) * time.Second }

type Auth struct {
	AvatarRoles []string `mapstructure:"avatar_roles"`
}

type Config struct {
	App       App       `mapstructure:"app"`
	Log       Log       `mapstructure:"log"`
	JWT       JWT       `mapstructure:"jwt"`
	Password  Password  `mapstructure:"password"`
	DB        DB        `mapstructure:"db"`
	Redis     Redis     `mapstructure:"redis"`
	Mail      Mail      `mapstructure:"mail"`
	Storage   Storage   `mapstructure:"storage"`
	RateLimit RateLimit `mapstructure:"ratelimit"`
	Auth      Auth      `mapstructure:"auth"`
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error", "fatal"}
	validAlgorithms = []string{"HS256", "HS384", "HS512"}
	validRoles      = []string{"user", "moderator", "admin"}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "go-contacts-api")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.base_url", "")
	v.SetDefault("app.cors_origins", []string{"http://localhost:8000"})
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8000)
	v.SetDefault("app.http.read_timeout_sec", 5)
	v.SetDefault("app.http.write_timeout_sec", 15)
	v.SetDefault("app.http.idle_timeout_sec", 60)
	v.SetDefault("app.http.request_timeout_sec", 10)
	v.SetDefault("app.http.max_body_mb", 16)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8001)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.issuer", "go-contacts-api")
	v.SetDefault("jwt.access_token_ttl_sec", 3600)
	v.SetDefault("jwt.refresh_token_ttl_min", 10080)
	v.SetDefault("jwt.email_token_ttl_days", 7)
	v.SetDefault("jwt.leeway_sec", 0)

	v.SetDefault("password.algorithm", "bcrypt")
	v.SetDefault("password.bcrypt_cost", 10)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "contacts.db")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 465)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "noreply@example.com")
	v.SetDefault("mail.from_name", "Contacts API")
	v.SetDefault("mail.ssl", true)
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queue_size", 256)

	v.SetDefault("storage.driver", "none")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.max_avatar_mb", 5)

	v.SetDefault("ratelimit.driver", "memory")
	v.SetDefault("ratelimit.global_rps", 200)
	v.SetDefault("ratelimit.global_burst", 400)
	v.SetDefault("ratelimit.concurrency", 300)
	v.SetDefault("ratelimit.me_requests", 5)
	v.SetDefault("ratelimit.me_window_sec", 60)

	v.SetDefault("auth.avatar_roles", []string{"admin"})
}

// Read loads the YAML file at path (optional when empty and missing) and
// applies APP_* environment overrides, e.g. APP_JWT_SECRET -> jwt.secret.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load resolves the config path (flag value, then CONFIG_PATH, then the local
// default if it exists) and exits the process on any error.
func Load(path string) *Config {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("./configs/config.local.yaml"); err == nil {
			path = "./configs/config.local.yaml"
		}
	}
	c, err := Read(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("jwt.secret must be set (APP_JWT_SECRET)")
	}
	if !slices.Contains(validAlgorithms, c.JWT.Algorithm) {
		return fmt.Errorf("unsupported jwt.algorithm %q", c.JWT.Algorithm)
	}
	if c.JWT.AccessTokenTTLSec <= 0 || c.JWT.RefreshTokenTTLMin <= 0 || c.JWT.EmailTokenTTLDays <= 0 {
		return errors.New("jwt token lifetimes must be positive")
	}
	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	switch c.Password.Algorithm {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("unsupported password.algorithm %q", c.Password.Algorithm)
	}
	if c.App.HTTP.Port <= 0 {
		return errors.New("invalid app.http.port")
	}
	if c.RateLimit.MeRequests <= 0 || c.RateLimit.MeWindowSec <= 0 {
		return errors.New("ratelimit.me_requests and ratelimit.me_window_sec must be positive")
	}
	if c.RateLimit.Driver == "redis" && c.Redis.Addr == "" {
		return errors.New("ratelimit.driver=redis requires redis.addr")
	}
	if c.Storage.Driver == "s3" && c.Storage.Bucket == "" {
		return errors.New("storage.driver=s3 requires storage.bucket")
	}
	if c.Mail.Driver == "smtp" && c.Mail.Host == "" {
		return errors.New("mail.driver=smtp requires mail.host")
	}
	if len(c.Auth.AvatarRoles) == 0 {
		return errors.New("auth.avatar_roles must not be empty")
	}
	for _, r := range c.Auth.AvatarRoles {
		if !slices.Contains(validRoles, r) {
			return fmt.Errorf("unknown role %q in auth.avatar_roles", r)
		}
	}
	return nil
}
