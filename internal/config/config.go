package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// драйверы хранилища
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// драйверы канала событий
const (
	PubSubMemory = "memory"
	PubSubRedis  = "redis"
	PubSubKafka  = "kafka"
)

// экспортеры трейсов и метрик
const (
	TelemetryNone   = "none"
	TelemetryStdout = "stdout"
	TelemetryOTLP   = "otlp"
)

type DBConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	LogQueries bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type TelemetryConfig struct {
	Exporter    string
	ServiceName string
}

type Config struct {
	HTTPAddr       string
	Storage        string
	PubSub         string
	LogLevel       string
	LogDevelopment bool

	DB         DBConfig
	SQLitePath string
	Redis      RedisConfig
	Kafka      KafkaConfig
	Telemetry  TelemetryConfig
}

// LoadEnv загружает .env в окружение процесса. Отсутствие файла не ошибка,
// возвращает false, если файл не загружен.
func LoadEnv(filenames ...string) bool {
	return godotenv.Load(filenames...) == nil
}

// SetDefaults задает значения по умолчанию и включает чтение из окружения
func SetDefaults(v *viper.Viper) {
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("STORAGE", StorageMemory)
	v.SetDefault("PUBSUB", PubSubMemory)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEVELOPMENT", false)

	v.SetDefault("DB_HOST", "")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_LOG", false)
	v.SetDefault("SQLITE_PATH", "postgraph.db")

	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "postgraph.post_added")

	v.SetDefault("OTEL_EXPORTER", TelemetryNone)
	v.SetDefault("OTEL_SERVICE_NAME", "postgraph")
}

// Load собирает и проверяет конфигурацию. Флаги, привязанные к v через BindPFlag,
// имеют приоритет над окружением.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		HTTPAddr:       v.GetString("HTTP_ADDR"),
		Storage:        strings.ToLower(v.GetString("STORAGE")),
		PubSub:         strings.ToLower(v.GetString("PUBSUB")),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogDevelopment: v.GetBool("LOG_DEVELOPMENT"),
		DB: DBConfig{
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			Name:       v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			LogQueries: v.GetBool("DB_LOG"),
		},
		SQLitePath: v.GetString("SQLITE_PATH"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Telemetry: TelemetryConfig{
			Exporter:    strings.ToLower(v.GetString("OTEL_EXPORTER")),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		for name, value := range map[string]string{
			"DB_HOST": c.DB.Host,
			"DB_USER": c.DB.User,
			"DB_NAME": c.DB.Name,
		} {
			if value == "" {
				errs = append(errs, fmt.Errorf("environment variable %s is not set", name))
			}
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("environment variable SQLITE_PATH is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}

	switch c.PubSub {
	case PubSubMemory:
	case PubSubRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("environment variable REDIS_ADDR is not set"))
		}
	case PubSubKafka:
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			errs = append(errs, errors.New("KAFKA_BROKERS and KAFKA_TOPIC must be set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown pubsub %q", c.PubSub))
	}

	// пустой экспортер - телеметрия выключена
	switch c.Telemetry.Exporter {
	case "", TelemetryNone, TelemetryStdout, TelemetryOTLP:
	default:
		errs = append(errs, fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter))
	}

	return errors.Join(errs...)
}

// PostgresDSN - строка подключения в формате key=value для lib/pq
func (c *Config) PostgresDSN() string {
	dsn := fmt.Sprintf(
		"host=%s user=%s dbname=%s port=%s sslmode=%s",
		c.DB.Host,
		c.DB.User,
		c.DB.Name,
		c.DB.Port,
		c.DB.SSLMode,
	)
	if c.DB.Password != "" {
		dsn += " password=" + c.DB.Password
	}
	return dsn
}

func splitList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
