package configs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

type AppConfig struct {
	Env          string `yaml:"env" env:"APP_ENV"`
	Name         string `yaml:"name"`
	Port         string `yaml:"port" env:"PORT"`
	FrontendURL  string `yaml:"frontend_url" env:"FRONTEND_URL"`
	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

type DBConfig struct {
	Driver  string `yaml:"driver" env:"DB_DRIVER"`
	URI     string `yaml:"uri" env:"DB_URI"`
	Name    string `yaml:"dbname" env:"DB_NAME"`
	Migrate bool   `yaml:"migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	Password string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"redis_db"`
}

type JWTConfig struct {
	Issuer        string        `yaml:"issuer"`
	AccessSecret  string        `yaml:"access_secret" env:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
}

// AdminConfig is the single console identity. PasswordHash (bcrypt) wins
// over Password when both are set.
type AdminConfig struct {
	Email        string `yaml:"email" env:"ADMIN_EMAIL"`
	Password     string `yaml:"password" env:"ADMIN_PASSWORD"`
	PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
}

type AuthConfig struct {
	BcryptCost           int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
	OTPTTL               time.Duration `yaml:"otp_ttl"`
	OTPMaxAttempts       int           `yaml:"otp_max_attempts"`
	ResetGrantTTL        time.Duration `yaml:"reset_grant_ttl"`
	TokenHashSecret      string        `yaml:"token_hash_secret" env:"TOKEN_HASH_SECRET"`
	RequireVerifiedEmail bool          `yaml:"require_verified_email"`
}

type MailConfig struct {
	Provider     string        `yaml:"provider" env:"MAIL_PROVIDER"`
	APIKey       string        `yaml:"api_key" env:"RESEND_API_KEY"`
	Sender       string        `yaml:"sender" env:"SENDER_EMAIL"`
	SMTPHost     string        `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     int           `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUsername string        `yaml:"smtp_username" env:"SMTP_USERNAME"`
	SMTPPassword string        `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	Timeout      time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins" env:"CORS_ALLOW_ORIGINS"`
}

type Config struct {
	App       AppConfig       `yaml:"app"`
	DB        DBConfig        `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Admin     AdminConfig     `yaml:"admin"`
	Auth      AuthConfig      `yaml:"auth"`
	Mail      MailConfig      `yaml:"mail"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

// Load reads internal/configs/<dev|prod>.yml, expands ${VAR} references,
// overlays secrets from the environment and validates the result.
func Load(appEnv string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	configFile := "dev.yml"
	if appEnv == EnvProduction {
		configFile = "prod.yml"
	}

	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		dir = filepath.Join("internal", "configs")
	}

	cfg, err := LoadFile(filepath.Join(dir, configFile))
	if err != nil {
		return nil, err
	}
	if appEnv != "" {
		cfg.App.Env = appEnv
	}
	return cfg, cfg.Validate()
}

// LoadFile parses a single yaml file without validating it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	log.Printf("Loading config from: %s", path)

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = EnvDevelopment
	}
	if c.App.Name == "" {
		c.App.Name = "Storefront Auth Service"
	}
	if c.App.Port == "" {
		c.App.Port = "8080"
	}
	if c.App.FrontendURL == "" {
		c.App.FrontendURL = "http://localhost:5173"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite3"
	}
	if c.DB.Name == "" {
		c.DB.Name = "storefront"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 15 * time.Minute
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}
	if c.Auth.OTPTTL == 0 {
		c.Auth.OTPTTL = time.Hour
	}
	if c.Auth.OTPMaxAttempts == 0 {
		c.Auth.OTPMaxAttempts = 5
	}
	if c.Auth.ResetGrantTTL == 0 {
		c.Auth.ResetGrantTTL = 10 * time.Minute
	}
	if c.Mail.Provider == "" {
		c.Mail.Provider = "log"
	}
	if c.Mail.Timeout == 0 {
		c.Mail.Timeout = 10 * time.Second
	}
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = 587
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = 20
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.MaxBackoff == 0 {
		c.RateLimit.MaxBackoff = time.Hour
	}
	if c.CORS.AllowOrigins == "" {
		c.CORS.AllowOrigins = "http://localhost:5173,http://localhost:5174"
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("jwt access_secret and refresh_secret are required"))
	} else if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("jwt access_secret and refresh_secret must differ"))
	}
	if c.Auth.TokenHashSecret == "" {
		errs = append(errs, errors.New("auth token_hash_secret is required"))
	}
	if c.Admin.Email == "" || (c.Admin.Password == "" && c.Admin.PasswordHash == "") {
		errs = append(errs, errors.New("admin email and password (or password_hash) are required"))
	}

	switch c.DB.Driver {
	case "mongo", "mysql", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DB.Driver))
	}
	if c.DB.URI == "" {
		errs = append(errs, errors.New("database uri is required"))
	}

	switch c.Mail.Provider {
	case "resend":
		if c.Mail.APIKey == "" {
			errs = append(errs, errors.New("mail api_key is required for resend"))
		}
	case "smtp":
		if c.Mail.SMTPHost == "" {
			errs = append(errs, errors.New("mail smtp_host is required for smtp"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("unknown mail provider %q", c.Mail.Provider))
	}

	if c.Auth.OTPMaxAttempts < 1 {
		errs = append(errs, errors.New("auth otp_max_attempts must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

func (c *Config) AllowOrigins() string {
	return strings.ReplaceAll(c.CORS.AllowOrigins, " ", "")
}
