package usecase

import (
	"context"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/permission"
	"github.com/GoArmGo/RecipeApp/internal/serializer"
)

// TagUseCase определяет интерфейс бизнес-логики работы с тегами и категориями
type TagUseCase interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTag(ctx context.Context, id int64) (*domain.Tag, error)

	// UpdateTag доступен только персоналу
	UpdateTag(ctx context.Context, actor permission.Actor, id int64, input serializer.TagInput) (*domain.Tag, error)

	// DeleteTag доступен только персоналу; связи с рецептами удаляются каскадно
	DeleteTag(ctx context.Context, actor permission.Actor, id int64) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
}
