package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/RecipeApp/internal/messaging/payloads"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

// runWorker запускает потребителя RabbitMQ и обрабатывает события рецептов
func runWorker(ctx context.Context, deps Dependencies, logger *slog.Logger) error {
	if deps.EventConsumer == nil {
		return errors.New("worker mode requires RABBITMQ_URL")
	}
	if deps.Files == nil {
		logger.Warn("file storage is not configured, stale covers will be acknowledged without cleanup")
	}

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := deps.EventConsumer.StartConsumingRecipeEvents(workerCtx, recipeEventHandler(deps.Files, logger)); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}
	logger.Info("worker started, waiting for recipe events")

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping worker")
	return nil
}

// recipeEventHandler удаляет обложки, на которые больше не ссылается ни один рецепт
func recipeEventHandler(files usecase.FileStorage, logger *slog.Logger) func(context.Context, payloads.RecipeEvent) error {
	return func(ctx context.Context, event payloads.RecipeEvent) error {
		logger.Debug("recipe event received",
			"event_id", event.ID,
			"type", event.Type,
			"recipe_id", event.RecipeID,
		)

		if event.StaleCover == "" || files == nil {
			return nil
		}
		if err := files.DeleteFile(ctx, event.StaleCover); err != nil {
			return fmt.Errorf("удаление обложки %s: %w", event.StaleCover, err)
		}
		logger.Info("stale cover removed", "recipe_id", event.RecipeID, "key", event.StaleCover)
		return nil
	}
}
