package payloads

import (
	"time"

	"github.com/google/uuid"
)

type RecipeEventType string

const (
	RecipeCreated      RecipeEventType = "recipe.created"
	RecipeUpdated      RecipeEventType = "recipe.updated"
	RecipeDeleted      RecipeEventType = "recipe.deleted"
	RecipeCoverChanged RecipeEventType = "recipe.cover_changed"
)

// RecipeEvent представляет сообщение об изменении рецепта, передаваемое через RabbitMQ.
// StaleCover: ключ объекта обложки, который больше не используется и может быть удалён воркером.
type RecipeEvent struct {
	ID         uuid.UUID       `json:"id"`
	Type       RecipeEventType `json:"type"`
	RecipeID   int64           `json:"recipe_id"`
	AuthorID   int64           `json:"author_id"`
	StaleCover string          `json:"stale_cover,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewRecipeEvent(t RecipeEventType, recipeID, authorID int64) RecipeEvent {
	return RecipeEvent{
		ID:         uuid.New(),
		Type:       t,
		RecipeID:   recipeID,
		AuthorID:   authorID,
		OccurredAt: time.Now().UTC(),
	}
}
