package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	HubBaseURL         string `mapstructure:"HUB_BASE_URL"`
	HubMDNSName        string `mapstructure:"HUB_MDNS_NAME"`
	HubUsername        string `mapstructure:"HUB_USERNAME"`
	HubPassword        string `mapstructure:"HUB_PASSWORD"`
	SyncTransport      string `mapstructure:"SYNC_TRANSPORT"` // "mqtt" or "websocket"
	MQTTBroker         string `mapstructure:"MQTT_BROKER"`
	MQTTClientID       string `mapstructure:"MQTT_CLIENT_ID"`
	SyncWSURL          string `mapstructure:"SYNC_WS_URL"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RefreshSpec        string `mapstructure:"REFRESH_SPEC"`
	WebAddr            string `mapstructure:"WEB_ADDR"`
	WebToken           string `mapstructure:"WEB_TOKEN"`
	RequestTimeoutSecs int    `mapstructure:"REQUEST_TIMEOUT_SECS"`

	// Simulator only
	DBURL         string `mapstructure:"DB_URL"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	SimAddr       string `mapstructure:"SIM_ADDR"`
	HeartbeatSpec string `mapstructure:"HEARTBEAT_SPEC"`
}

// LoadConfig reads configuration from file, .env, or env vars
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("CONFIG: no .env file loaded: %v", err)
	}

	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("SYNC_TRANSPORT", "mqtt")
	viper.SetDefault("MQTT_CLIENT_ID", "homelink-controller")
	viper.SetDefault("REFRESH_SPEC", "@every 5m")
	viper.SetDefault("WEB_ADDR", ":5070")
	viper.SetDefault("SIM_ADDR", ":5069")
	viper.SetDefault("HEARTBEAT_SPEC", "@every 30s")
	viper.SetDefault("REQUEST_TIMEOUT_SECS", 10)

	cfg := &Config{
		HubBaseURL:         viper.GetString("HUB_BASE_URL"),
		HubMDNSName:        viper.GetString("HUB_MDNS_NAME"),
		HubUsername:        viper.GetString("HUB_USERNAME"),
		HubPassword:        viper.GetString("HUB_PASSWORD"),
		SyncTransport:      viper.GetString("SYNC_TRANSPORT"),
		MQTTBroker:         viper.GetString("MQTT_BROKER"),
		MQTTClientID:       viper.GetString("MQTT_CLIENT_ID"),
		SyncWSURL:          viper.GetString("SYNC_WS_URL"),
		RedisAddr:          viper.GetString("REDIS_ADDR"),
		RefreshSpec:        viper.GetString("REFRESH_SPEC"),
		WebAddr:            viper.GetString("WEB_ADDR"),
		WebToken:           viper.GetString("WEB_TOKEN"),
		RequestTimeoutSecs: viper.GetInt("REQUEST_TIMEOUT_SECS"),
		DBURL:              viper.GetString("DB_URL"),
		JWTSecret:          viper.GetString("JWT_SECRET"),
		SimAddr:            viper.GetString("SIM_ADDR"),
		HeartbeatSpec:      viper.GetString("HEARTBEAT_SPEC"),
	}
	return cfg, nil
}

// RequestTimeout returns the configured hub request timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}
