package ports

import (
	"context"

	"github.com/GoArmGo/RecipeApp/internal/core/query"
	"github.com/GoArmGo/RecipeApp/internal/domain"
)

// Все методы поиска возвращают (nil, nil), если запись не найдена.

// RecipeStorage определяет методы для взаимодействия с хранилищем рецептов
type RecipeStorage interface {
	// ListRecipes выполняет спецификацию; при PrefetchTags теги загружаются одним пакетным запросом
	ListRecipes(ctx context.Context, spec query.Spec) ([]domain.Recipe, error)
	CountRecipes(ctx context.Context, spec query.Spec) (int, error)
	// FindRecipe возвращает первую запись, удовлетворяющую спецификации
	FindRecipe(ctx context.Context, spec query.Spec) (*domain.Recipe, error)
	// CreateRecipe сохраняет рецепт вместе с recipe.TagIDs, заполняет ID и Version
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error
	// UpdateRecipe сохраняет рецепт, если в хранилище всё ещё expectedVersion; иначе domain.ErrConflict
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe, expectedVersion int64) error
	DeleteRecipe(ctx context.Context, id int64) error
}

// UserStorage определяет методы для взаимодействия с хранилищем пользователей
type UserStorage interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	// UsernameTaken/EmailTaken проверяют уникальность, исключая пользователя excludeID (0 означает никого)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// TagStorage определяет методы для работы с тегами
type TagStorage interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTag(ctx context.Context, id int64) (*domain.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []int64) ([]domain.Tag, error)
	// TagSlugTaken проверяет, занят ли slug другим тегом, кроме excludeID
	TagSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	UpdateTag(ctx context.Context, tag *domain.Tag) error
	DeleteTag(ctx context.Context, id int64) error
}

// CategoryStorage: категории доступны только на чтение
type CategoryStorage interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
}

// TagCache: кэш чтения тегов, реализация может быть пустой
type TagCache interface {
	GetTag(ctx context.Context, id int64) (*domain.Tag, bool, error)
	SetTag(ctx context.Context, tag *domain.Tag) error
	GetTagList(ctx context.Context) ([]domain.Tag, bool, error)
	SetTagList(ctx context.Context, tags []domain.Tag) error
	Invalidate(ctx context.Context, id int64) error
}
