package ports

import (
	"context"

	"github.com/GoArmGo/RecipeApp/internal/messaging/payloads"
)

// RecipeEventPublisher публикует события жизненного цикла рецептов.
// Используется usecase-слоем после успешной записи в хранилище
type RecipeEventPublisher interface {
	PublishRecipeEvent(ctx context.Context, event payloads.RecipeEvent) error
}

// RecipeEventConsumer используется воркером для получения событий из очереди
type RecipeEventConsumer interface {
	// StartConsumingRecipeEvents начинает прослушивание очереди;
	// handler вызывается для каждого полученного сообщения
	StartConsumingRecipeEvents(ctx context.Context, handler func(context.Context, payloads.RecipeEvent) error) error
}
