package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// GetMigrateURL 获取golang-migrate使用的连接URL
func (c *DatabaseConfig) GetMigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// MQTTConfig MQTT 配置（设备侧传感器数据上报通道）
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`   // 是否启用 MQTT 接入（默认 false，仅 HTTP 上报）
	Broker   string `yaml:"broker"`    // MQTT Broker 地址（如 "tcp://localhost:1883"）
	ClientID string `yaml:"client_id"` // 客户端 ID
	Username string `yaml:"username"`  // 用户名（可选）
	Password string `yaml:"password"`  // 密码（可选）
	Topic    string `yaml:"topic"`     // 订阅主题（站点上报，如 "hydromet/+/samples"）
	QoS      byte   `yaml:"qos"`
}

// CloudConfig 旧云端 REST 后端配置（迁移期并存的第二数据源）
type CloudConfig struct {
	BaseURL string `yaml:"base_url"` // 旧后端地址
	APIKey  string `yaml:"api_key"`  // 访问凭证（可选）
}

// Config hydromet-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	MQTT  MQTTConfig
	Cloud CloudConfig

	// SampleSource 动态传感器数据来源："station"（Redis 实时库，站点直报）
	// 或 "cloud"（旧 REST 后端）。按配置显式选择，不做逐条记录的形状嗅探。
	SampleSource string

	// StalenessWindow 设备在线判定窗口：最近一次上报距今小于该窗口视为 online。
	// 历史上前端存在 5 分钟和 60 分钟两套口径，这里统一为 5 分钟（可配置）。
	StalenessWindow time.Duration

	// DefaultThreshold 设备未配置水位告警阈值时的默认值（米）
	DefaultThreshold float64

	// TokenTTL 设备令牌有效期
	TokenTTL time.Duration

	// SampleTTL Redis 中实时样本的过期时间
	SampleTTL time.Duration

	// Geolocate 表单预填用的地理定位服务地址（可选）
	GeolocateURL string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "hydromet")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// MQTT 配置（站点直报通道，默认禁用）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "hydromet-data-ingest")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "hydromet/+/samples")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	// 旧云端后端（迁移期数据源）
	cfg.Cloud.BaseURL = getEnv("CLOUD_BASE_URL", "http://localhost:8000")
	cfg.Cloud.APIKey = getEnv("CLOUD_API_KEY", "")

	cfg.SampleSource = getEnv("SAMPLE_SOURCE", "station")
	cfg.StalenessWindow = parseDuration(getEnv("STALENESS_WINDOW", "5m"), 5*time.Minute)
	cfg.DefaultThreshold = parseFloat(getEnv("DEFAULT_THRESHOLD", "2.5"), 2.5)
	cfg.TokenTTL = parseDuration(getEnv("TOKEN_TTL", "8760h"), 8760*time.Hour) // 默认一年
	cfg.SampleTTL = parseDuration(getEnv("SAMPLE_TTL", "24h"), 24*time.Hour)
	cfg.GeolocateURL = getEnv("GEOLOCATE_URL", "")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
