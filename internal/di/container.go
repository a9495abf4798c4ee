package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/RecipeApp/internal/adapter/storage/minio"
	"github.com/GoArmGo/RecipeApp/internal/app"
	"github.com/GoArmGo/RecipeApp/internal/cache"
	"github.com/GoArmGo/RecipeApp/internal/config"
	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/database/client"
	"github.com/GoArmGo/RecipeApp/internal/database/memory"
	"github.com/GoArmGo/RecipeApp/internal/database/postgres"
	"github.com/GoArmGo/RecipeApp/internal/database/storage"
	"github.com/GoArmGo/RecipeApp/internal/handler"
	"github.com/GoArmGo/RecipeApp/internal/logger"
	"github.com/GoArmGo/RecipeApp/internal/rabbitmq"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

// stores: реализации портов хранилища для выбранного драйвера
type stores struct {
	recipes    ports.RecipeStorage
	users      ports.UserStorage
	tags       ports.TagStorage
	categories ports.CategoryStorage
}

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp(ctx context.Context) (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	deps := app.Dependencies{HealthChecks: map[string]handler.HealthCheck{}}
	// при ошибке сборки закрываем всё, что уже успели открыть
	ok := false
	defer func() {
		if !ok {
			for i := len(deps.Closers) - 1; i >= 0; i-- {
				_ = deps.Closers[i]()
			}
		}
	}()

	// 2. Хранилища
	st, err := buildStores(cfg, slogger, &deps)
	if err != nil {
		return nil, err
	}

	// 3. Кэш тегов
	var tagCache ports.TagCache = cache.NopTagCache{}
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		deps.Closers = append(deps.Closers, redisClient.Close)
		deps.HealthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		tagCache = cache.NewTagCache(redisClient, cfg.Redis.TagTTL)
		slogger.Info("tag cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TagTTL)
	}

	// 4. Файловое хранилище обложек (S3 / MinIO)
	if cfg.CoversEnabled() {
		minioClient, err := minio.NewMinioClient(ctx, cfg, slogger)
		if err != nil {
			return nil, err
		}
		deps.Files = minioClient
	}

	// 5. RabbitMQ: publisher и consumer используют один клиент
	var publisher ports.RecipeEventPublisher
	if cfg.RabbitMQ.RabbitMQURL != "" {
		rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
		if err != nil {
			return nil, err
		}
		deps.Closers = append(deps.Closers, func() error { rabbitMQClient.Close(); return nil })
		publisher = rabbitMQClient
		deps.EventConsumer = rabbitMQClient
	}

	// 6. Бизнес-логика
	pagination := usecase.Pagination{DefaultPageSize: cfg.DefaultPageSize, MaxPageSize: cfg.MaxPageSize}
	deps.RecipeUseCase = usecase.NewRecipeUseCase(st.recipes, st.tags, st.categories, deps.Files, publisher, pagination, slogger)
	deps.AuthorUseCase = usecase.NewAuthorUseCase(st.users, slogger)
	deps.TagUseCase = usecase.NewTagUseCase(st.tags, st.categories, tagCache, slogger)

	// 7. Лимитер загрузок: не больше 5 параллельных загрузок обложек
	deps.UploadLimiter = make(chan struct{}, 5)

	ok = true
	slogger.Info("all dependencies initialized", "storage_driver", cfg.StorageDriver)
	return app.NewApp(cfg, slogger, deps), nil
}

func buildStores(cfg *config.Config, slogger *slog.Logger, deps *app.Dependencies) (*stores, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		slogger.Warn("using in-memory storage, data is lost on restart")
		mem := memory.New()
		return &stores{recipes: mem, users: mem, tags: mem, categories: mem}, nil

	case config.DriverPostgres:
		dbClient, err := client.NewClient(cfg, slogger)
		if err != nil {
			return nil, err
		}
		deps.Closers = append(deps.Closers, dbClient.Close)
		deps.HealthChecks["database"] = dbClient.DB.PingContext

		gormDB, err := postgres.OpenGorm(dbClient.DB.DB, slogger)
		if err != nil {
			return nil, err
		}
		tagStorage := postgres.NewGormTagStorage(gormDB, slogger)

		return &stores{
			recipes:    storage.NewRecipeStorage(dbClient.DB, slogger),
			users:      storage.NewUserStorage(dbClient.DB, slogger),
			tags:       tagStorage,
			categories: tagStorage,
		}, nil
	}
	return nil, fmt.Errorf("неизвестный драйвер хранилища: %s", cfg.StorageDriver)
}
