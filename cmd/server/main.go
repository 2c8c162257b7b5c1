package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/VitaminP8/postgraph/graph"
	"github.com/VitaminP8/postgraph/internal/config"
	"github.com/VitaminP8/postgraph/internal/logger"
	"github.com/VitaminP8/postgraph/internal/post"
	"github.com/VitaminP8/postgraph/internal/storage/memory"
	"github.com/VitaminP8/postgraph/internal/storage/postgres"
	"github.com/VitaminP8/postgraph/internal/subscription"
	"github.com/VitaminP8/postgraph/internal/tag"
	"github.com/VitaminP8/postgraph/internal/telemetry"
	"github.com/VitaminP8/postgraph/internal/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "postgraph",
		Short:         "GraphQL сервер для авторов, постов и тегов",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// загружаем .env, переменные окружения процесса важнее
			config.LoadEnv()

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "адрес HTTP сервера")
	flags.String("storage", config.StorageMemory, "тип хранилища: memory, postgres или sqlite")
	flags.String("pubsub", config.PubSubMemory, "канал событий: memory, redis или kafka")
	flags.String("log-level", "info", "уровень логирования")
	flags.String("otel-exporter", config.TelemetryNone, "экспорт трейсов и метрик: none, stdout или otlp")

	for key, flag := range map[string]string{
		"HTTP_ADDR":     "addr",
		"STORAGE":       "storage",
		"PUBSUB":        "pubsub",
		"LOG_LEVEL":     "log-level",
		"OTEL_EXPORTER": "otel-exporter",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	providers, err := telemetry.New(ctx, cfg.Telemetry, os.Stdout)
	if err != nil {
		return err
	}
	providers.Install(log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to flush telemetry", zap.Error(err))
		}
	}()
	log.Info("Телеметрия настроена", zap.String("exporter", cfg.Telemetry.Exporter))

	var (
		userStore user.UserStorage
		postStore post.PostStorage
		tagStore  tag.TagStorage
	)

	switch cfg.Storage {
	case config.StoragePostgres, config.StorageSQLite:
		if err := postgres.InitDB(cfg); err != nil {
			log.Fatal("failed to initialize database", zap.Error(err))
		}
		if err := postgres.Migrate(); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		if err := postgres.UseTelemetry(providers.TracerProvider, providers.MeterProvider); err != nil {
			return err
		}
		defer func() {
			if err := postgres.CloseDB(); err != nil {
				log.Error("failed to close database", zap.Error(err))
			}
		}()

		log.Info("Используется SQL хранилище", zap.String("storage", cfg.Storage))
		userStore = postgres.NewUserPostgresStorage()
		postStore = postgres.NewPostPostgresStorage()
		tagStore = postgres.NewTagPostgresStorage()

	case config.StorageMemory:
		log.Info("Используется in-memory хранилище")
		db := memory.NewDatabase()
		userStore = memory.NewUserMemoryStorage(db)
		postStore = memory.NewPostMemoryStorage(db)
		tagStore = memory.NewTagMemoryStorage(db)
	}

	manager, err := newSubscriptionManager(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			log.Error("failed to close event channel", zap.Error(err))
		}
	}()

	resolver := &graph.Resolver{
		UserStore:           userStore,
		PostStore:           postStore,
		TagStore:            tagStore,
		SubscriptionManager: manager,
		Logger:              log,
	}

	srv := graph.NewHandler(resolver, graph.DefaultHandlerOptions)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: graph.NewRouter(srv, graph.DefaultHandlerOptions),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Сервер запущен", zap.String("addr", cfg.HTTPAddr))
		// блокируется до server.Shutdown() или фатальной ошибки
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Ожидание SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Завершение...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info("Сервер остановлен корректно")
	return nil
}

type eventChannel interface {
	subscription.Manager
	io.Closer
}

// redisChannel закрывает клиента redis вместе с менеджером
type redisChannel struct {
	*subscription.RedisManager
	client *redis.Client
}

func (c *redisChannel) Close() error {
	return errors.Join(c.RedisManager.Close(), c.client.Close())
}

func newSubscriptionManager(cfg *config.Config, log *zap.Logger) (eventChannel, error) {
	switch cfg.PubSub {
	case config.PubSubRedis:
		log.Info("События идут через redis", zap.String("addr", cfg.Redis.Addr))
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return &redisChannel{RedisManager: subscription.NewRedisManager(client, log), client: client}, nil

	case config.PubSubKafka:
		log.Info("События идут через kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
		m, err := subscription.NewKafkaManager(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to kafka: %w", err)
		}
		return m, nil

	default:
		return subscription.NewSubscriptionManager(), nil
	}
}
