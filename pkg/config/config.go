package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Recommend RecommendConfig `yaml:"recommend"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	JWTSecret string `yaml:"jwt_secret"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig HTTP服务配置
type HTTPConfig struct {
	Network string `yaml:"network"`
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
}

// MongoDBConfig MongoDB配置
type MongoDBConfig struct {
	URI    string `yaml:"uri"`
	DBName string `yaml:"db_name"`
}

// PostgreSQLConfig PostgreSQL配置
type PostgreSQLConfig struct {
	DSN    string `yaml:"dsn"`
	DBName string `yaml:"db_name"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// RecommendConfig 推荐引擎配置
type RecommendConfig struct {
	// CacheTTL 推荐结果缓存时间
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// TrendingCacheTTL 热门榜缓存时间，热度变化快，比其他场景更短
	TrendingCacheTTL time.Duration `yaml:"trending_cache_ttl"`
	// MinInteractionsForCF 协同过滤所需的最少互动数（冷启动保护）
	MinInteractionsForCF int `yaml:"min_interactions_for_cf"`
	// InteractionWeights 互动类型权重表，可注入便于测试覆盖
	InteractionWeights map[string]float64 `yaml:"interaction_weights"`
}

// DefaultInteractionWeights 默认互动权重表
func DefaultInteractionWeights() map[string]float64 {
	return map[string]float64{
		"view":        1.0,
		"wishlist":    2.0,
		"add_to_cart": 3.0,
		"review":      4.0,
		"purchase":    5.0,
	}
}

// LoadConfig 从环境变量加载配置
func LoadConfig(serviceName string) *Config {

	var defaultHTTPPort string

	// 根据服务名称设置默认端口
	switch serviceName {
	case "recommendation-service":
		defaultHTTPPort = "3009"
	case "review-service":
		defaultHTTPPort = "3008"
	default:
		panic(fmt.Sprintf("未知的服务名称: %s，支持的服务名称: recommendation-service, review-service", serviceName))
	}

	httpPort := getEnvOrDefault("HTTP_PORT", defaultHTTPPort)

	return &Config{
		App: AppConfig{
			Name:      serviceName,
			Version:   getEnvOrDefault("APP_VERSION", "1.0.0"),
			JWTSecret: getEnvOrDefault("JWT_SECRET", "ecommerce-reco"),
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{
				Network: "tcp",
				Addr:    ":" + httpPort,
				Timeout: "30s",
			},
		},
		Database: DatabaseConfig{
			MongoDB: MongoDBConfig{
				URI:    getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
				DBName: getEnvOrDefault("MONGODB_DB", "reviewDB"),
			},
			PostgreSQL: PostgreSQLConfig{
				DSN:    getEnvOrDefault("POSTGRESQL_DSN", "host=localhost user=postgres password=postgres dbname=recommendationDB port=5432 sslmode=disable"),
				DBName: getEnvOrDefault("POSTGRESQL_DB", "recommendationDB"),
			},
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getEnvIntOrDefault("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnvOrDefault("KAFKA_BROKERS", "localhost:9092")},
			GroupID: getEnvOrDefault("KAFKA_GROUP_ID", serviceName+"-group"),
		},
		Recommend: RecommendConfig{
			CacheTTL:             getEnvDurationOrDefault("RECOMMEND_CACHE_TTL", time.Hour),
			TrendingCacheTTL:     getEnvDurationOrDefault("TRENDING_CACHE_TTL", 5*time.Minute),
			MinInteractionsForCF: getEnvIntOrDefault("MIN_INTERACTIONS_FOR_CF", 5),
			InteractionWeights:   DefaultInteractionWeights(),
		},
	}
}

// getEnvOrDefault 获取环境变量或默认值
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault 获取环境变量整数值或默认值
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault 获取环境变量时长或默认值
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
