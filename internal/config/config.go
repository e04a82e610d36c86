package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreS3       = "s3"
)

// Dispatch failure policies.
const (
	PolicyWarn   = "warn"
	PolicyIgnore = "ignore"
)

// Config holds runtime settings.
//
// UrgentThreshold and TickInterval are the engine's two design constants
// (300s and 1s by default). The remaining fields select and configure the
// settings backend, the notification transports and logging.
type Config struct {
	StoreDriver    string `env:"STORE"`
	SQLitePath     string `env:"SQLITE_PATH"`
	PostgresDSN    string `env:"POSTGRES_DSN"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Key          string `env:"S3_KEY"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_BASE_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`

	// StatePassphrase enables encryption of the saved state. Environment only.
	StatePassphrase string `env:"STATE_PASSPHRASE"`

	UrgentThreshold       time.Duration `env:"URGENT_THRESHOLD"`
	TickInterval          time.Duration `env:"TICK_INTERVAL"`
	DefaultPeriodHours    int           `env:"DEFAULT_PERIOD_HOURS"`
	StoreTimeout          time.Duration `env:"STORE_TIMEOUT"`
	DispatchTimeout       time.Duration `env:"DISPATCH_TIMEOUT"`
	DispatchFailurePolicy string        `env:"DISPATCH_FAILURE_POLICY"`

	LogBackend string `env:"LOG_BACKEND"`
	LogLevel   string `env:"LOG_LEVEL"`
	LogFormat  string `env:"LOG_FORMAT"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	SMSGatewayURL   string `env:"SMS_GATEWAY_URL"`
	SMSGatewayToken string `env:"SMS_GATEWAY_TOKEN"`
	SMSFrom         string `env:"SMS_FROM"`

	MQTTBroker   string `env:"MQTT_BROKER"`
	MQTTClientID string `env:"MQTT_CLIENT_ID"`
	MQTTTopic    string `env:"MQTT_TOPIC"`
	MQTTUsername string `env:"MQTT_USERNAME"`
	MQTTPassword string `env:"MQTT_PASSWORD"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StoreDriver = StoreSQLite
	c.SQLitePath = "safecheck.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisKeyPrefix = "safecheck:"
	c.S3Key = "safecheck/settings.json"
	c.S3Region = "us-east-1"

	c.UrgentThreshold = 300 * time.Second
	c.TickInterval = time.Second
	c.DefaultPeriodHours = 1
	c.StoreTimeout = 5 * time.Second
	c.DispatchTimeout = 30 * time.Second
	c.DispatchFailurePolicy = PolicyWarn

	c.LogBackend = "slog"
	c.LogLevel = "info"
	c.LogFormat = "text"

	c.SMTPPort = 587
	c.MQTTClientID = "safecheck"
	c.MQTTTopic = "safecheck/alerts"
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreSQLite, StorePostgres, StoreRedis, StoreS3:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	switch c.DispatchFailurePolicy {
	case PolicyWarn, PolicyIgnore:
	default:
		return fmt.Errorf("unknown dispatch failure policy %q", c.DispatchFailurePolicy)
	}
	if c.UrgentThreshold <= 0 {
		return fmt.Errorf("urgent threshold must be positive, got %s", c.UrgentThreshold)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.DefaultPeriodHours < 1 {
		return fmt.Errorf("default period must be at least 1 hour, got %d", c.DefaultPeriodHours)
	}
	return nil
}

// LoadConfig constructs a Config from defaults, then overlays the JSON file,
// the environment and the command-line flags found in args (usually
// os.Args[1:]).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
