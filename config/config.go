package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	Timezone string `mapstructure:"timezone"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	SlowRequest    time.Duration `mapstructure:"slow_request"`
	SecureCookies  bool          `mapstructure:"secure_cookies"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AMQPConfig enables the RabbitMQ event bus when URL is set; otherwise
// events are dispatched in-process.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

type TwilioConfig struct {
	AccountSID     string `mapstructure:"account_sid"`
	AuthToken      string `mapstructure:"auth_token"`
	PhoneNumber    string `mapstructure:"phone_number"`
	WhatsAppNumber string `mapstructure:"whatsapp_number"`
}

func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != ""
}

type JobsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	ReminderCron  string        `mapstructure:"reminder_cron"`
	ReconcileCron string        `mapstructure:"reconcile_cron"`
	ReconcileDays int           `mapstructure:"reconcile_days"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// legacyEnv keeps the variable names of existing deployments working next to
// the SALONPRO_ prefixed ones.
var legacyEnv = map[string]string{
	"server.port":            "PORT",
	"database.url":           "DB_URL",
	"jwt.secret":             "JWT_SECRET",
	"twilio.account_sid":     "TWILIO_ACCOUNT_SID",
	"twilio.auth_token":      "TWILIO_AUTH_TOKEN",
	"twilio.phone_number":    "TWILIO_PHONE_NUMBER",
	"twilio.whatsapp_number": "TWILIO_WHATSAPP_NUMBER",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "salonpro-agenda")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.timezone", "America/Sao_Paulo")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.slow_request", 200*time.Millisecond)
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "salonpro.db")
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", time.Minute)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", 72*time.Hour)

	v.SetDefault("log.level", "info")

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "salonpro.events")
	v.SetDefault("amqp.queue", "salonpro.ledger")

	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.phone_number", "")
	v.SetDefault("twilio.whatsapp_number", "")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.reminder_cron", "0 9 * * *")
	v.SetDefault("jobs.reconcile_cron", "*/30 * * * *")
	v.SetDefault("jobs.reconcile_days", 90)
	v.SetDefault("jobs.timeout", 10*time.Minute)
}

// Load reads .env (if present), an optional config file and SALONPRO_*
// environment variables, in increasing precedence.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SALONPRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "SALONPRO_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.JWT.Secret == "" && c.IsProduction() {
		errs = append(errs, errors.New("jwt.secret is required in production"))
	}
	if c.JWT.Expiry <= 0 {
		errs = append(errs, errors.New("jwt.expiry must be positive"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("app.timezone: %w", err))
	}
	return errors.Join(errs...)
}

// Location returns the business timezone used for day boundaries.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
