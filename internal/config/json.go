package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/safecheck/internal/flagx"
	"github.com/dmitrijs2005/safecheck/internal/timex"
)

// JSONConfig is the on-disk DTO. Intervals use timex.Duration so they can be
// written as "5m" or as nanoseconds. Zero values are not applied.
type JSONConfig struct {
	StoreDriver    string `json:"store_driver"`
	SQLitePath     string `json:"sqlite_path"`
	PostgresDSN    string `json:"postgres_dsn"`
	RedisAddr      string `json:"redis_addr"`
	RedisPassword  string `json:"redis_password"`
	RedisDB        int    `json:"redis_db"`
	RedisKeyPrefix string `json:"redis_key_prefix"`
	S3Bucket       string `json:"s3_bucket"`
	S3Key          string `json:"s3_key"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`

	UrgentThreshold       timex.Duration `json:"urgent_threshold"`
	TickInterval          timex.Duration `json:"tick_interval"`
	DefaultPeriodHours    int            `json:"default_period_hours"`
	StoreTimeout          timex.Duration `json:"store_timeout"`
	DispatchTimeout       timex.Duration `json:"dispatch_timeout"`
	DispatchFailurePolicy string         `json:"dispatch_failure_policy"`

	LogBackend string `json:"log_backend"`
	LogLevel   string `json:"log_level"`
	LogFormat  string `json:"log_format"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`

	SMSGatewayURL   string `json:"sms_gateway_url"`
	SMSGatewayToken string `json:"sms_gateway_token"`
	SMSFrom         string `json:"sms_from"`

	MQTTBroker   string `json:"mqtt_broker"`
	MQTTClientID string `json:"mqtt_client_id"`
	MQTTTopic    string `json:"mqtt_topic"`
	MQTTUsername string `json:"mqtt_username"`
	MQTTPassword string `json:"mqtt_password"`
}

// parseJSON overlays cfg with the file named by -c/-config in args. No flag
// means no file; an unreadable or malformed file is an error.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JSONConfig) apply(cfg *Config) {
	setString(&cfg.StoreDriver, jc.StoreDriver)
	setString(&cfg.SQLitePath, jc.SQLitePath)
	setString(&cfg.PostgresDSN, jc.PostgresDSN)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisPassword, jc.RedisPassword)
	setInt(&cfg.RedisDB, jc.RedisDB)
	setString(&cfg.RedisKeyPrefix, jc.RedisKeyPrefix)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Key, jc.S3Key)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)

	if jc.UrgentThreshold.Duration != 0 {
		cfg.UrgentThreshold = jc.UrgentThreshold.Duration
	}
	if jc.TickInterval.Duration != 0 {
		cfg.TickInterval = jc.TickInterval.Duration
	}
	setInt(&cfg.DefaultPeriodHours, jc.DefaultPeriodHours)
	if jc.StoreTimeout.Duration != 0 {
		cfg.StoreTimeout = jc.StoreTimeout.Duration
	}
	if jc.DispatchTimeout.Duration != 0 {
		cfg.DispatchTimeout = jc.DispatchTimeout.Duration
	}
	setString(&cfg.DispatchFailurePolicy, jc.DispatchFailurePolicy)

	setString(&cfg.LogBackend, jc.LogBackend)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	setString(&cfg.SMTPHost, jc.SMTPHost)
	setInt(&cfg.SMTPPort, jc.SMTPPort)
	setString(&cfg.SMTPUsername, jc.SMTPUsername)
	setString(&cfg.SMTPPassword, jc.SMTPPassword)
	setString(&cfg.SMTPFrom, jc.SMTPFrom)

	setString(&cfg.SMSGatewayURL, jc.SMSGatewayURL)
	setString(&cfg.SMSGatewayToken, jc.SMSGatewayToken)
	setString(&cfg.SMSFrom, jc.SMSFrom)

	setString(&cfg.MQTTBroker, jc.MQTTBroker)
	setString(&cfg.MQTTClientID, jc.MQTTClientID)
	setString(&cfg.MQTTTopic, jc.MQTTTopic)
	setString(&cfg.MQTTUsername, jc.MQTTUsername)
	setString(&cfg.MQTTPassword, jc.MQTTPassword)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
