package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port       int    `yaml:"port"`
	PublicURL  string `yaml:"public_url"`
	LandingURL string `yaml:"landing_url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout"`
}

type OTPConfig struct {
	TTL            time.Duration `yaml:"ttl"`
	ResendCooldown time.Duration `yaml:"resend_cooldown"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	DryRun       bool   `yaml:"dry_run"`
}

type PaymentConfig struct {
	APIKey          string `yaml:"api_key"`
	SecretKey       string `yaml:"secret_key"`
	BaseURL         string `yaml:"base_url"`
	CallbackURL     string `yaml:"callback_url"`
	LandingURL      string `yaml:"landing_url"`
	GeoIPDB         string `yaml:"geoip_db"`
	LocalCountry    string `yaml:"local_country"`
	FallbackCountry string `yaml:"fallback_country"`
	MembershipDays  int    `yaml:"membership_days"`
}

type AIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type AdminConfig struct {
	APIKey string `yaml:"api_key"`
}

type PDFConfig struct {
	FontPath string `yaml:"font_path"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	OTP      OTPConfig      `yaml:"otp"`
	Email    EmailConfig    `yaml:"email"`
	Payment  PaymentConfig  `yaml:"payment"`
	AI       AIConfig       `yaml:"ai"`
	Telegram TelegramConfig `yaml:"telegram"`
	Admin    AdminConfig    `yaml:"admin"`
	PDF      PDFConfig      `yaml:"pdf"`
}

// LoadConfig reads the YAML file at path, fills defaults and applies env overrides.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Auth.HeartbeatTimeout <= 0 {
		c.Auth.HeartbeatTimeout = 2 * time.Minute
	}
	if c.OTP.TTL <= 0 {
		c.OTP.TTL = 5 * time.Minute
	}
	if c.OTP.ResendCooldown < 0 {
		c.OTP.ResendCooldown = 0
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Payment.LocalCountry == "" {
		c.Payment.LocalCountry = "TR"
	}
	if c.Payment.FallbackCountry == "" {
		c.Payment.FallbackCountry = "US"
	}
	if c.Payment.MembershipDays <= 0 {
		c.Payment.MembershipDays = 365
	}
	if c.Payment.LandingURL == "" {
		c.Payment.LandingURL = c.Server.LandingURL
	}
	if c.Payment.CallbackURL == "" && c.Server.PublicURL != "" {
		c.Payment.CallbackURL = c.Server.PublicURL + "/payment/callback"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-1.5-flash"
	}
}

// secrets may come from the environment instead of the file
func (c *Config) applyEnv() {
	setString(&c.Database.DSN, "PRACTICO_DATABASE_URL")
	setString(&c.Auth.JWTSecret, "PRACTICO_JWT_SECRET")
	setString(&c.Email.SMTPPassword, "PRACTICO_SMTP_PASSWORD")
	setString(&c.Payment.APIKey, "IYZICO_API_KEY")
	setString(&c.Payment.SecretKey, "IYZICO_SECRET_KEY")
	setString(&c.AI.APIKey, "GEMINI_API_KEY")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Admin.APIKey, "PRACTICO_ADMIN_KEY")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
