package usecase

import (
	"context"
	"errors"
	"io"
	"net/url"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/permission"
)

// ErrCoversDisabled возвращается, если файловое хранилище не настроено.
var ErrCoversDisabled = errors.New("cover storage is not configured")

// FileStorage определяет интерфейс для работы с файловым хранилищем (AWS S3, MinIO)
// порт для хранения бинарных данных (обложек рецептов)
type FileStorage interface {
	// UploadFile загружает файл в хранилище и возвращает его публичный URL.
	// `key` - уникальное имя объекта в хранилище.
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)

	// DeleteFile удаляет файл из хранилища по его ключу.
	DeleteFile(ctx context.Context, key string) error
}

// RecipePage — одна страница списка рецептов.
type RecipePage struct {
	Recipes  []domain.Recipe
	Count    int
	Page     int
	PageSize int
}

// RecipeUseCase определяет интерфейс бизнес-логики работы с рецептами.
// Все возвращаемые рецепты загружены вместе с автором, категорией и тегами.
type RecipeUseCase interface {
	// ListRecipes возвращает опубликованные рецепты с учётом фильтров и пагинации из параметров запроса
	ListRecipes(ctx context.Context, params url.Values) (*RecipePage, error)

	// GetRecipe возвращает рецепт, видимый участнику: опубликованный или его собственный
	GetRecipe(ctx context.Context, actor permission.Actor, id int64) (*domain.Recipe, error)

	// CreateRecipe создаёт рецепт; автором всегда становится участник запроса
	CreateRecipe(ctx context.Context, actor permission.Actor, input map[string]any) (*domain.Recipe, error)

	// UpdateRecipe частично обновляет рецепт; отсутствующие поля берутся из сохранённой записи.
	// ifMatch > 0 требует, чтобы сохранённая версия совпадала
	UpdateRecipe(ctx context.Context, actor permission.Actor, id int64, input map[string]any, ifMatch int64) (*domain.Recipe, error)

	// DeleteRecipe удаляет рецепт владельца
	DeleteRecipe(ctx context.Context, actor permission.Actor, id int64) error

	// UploadCover загружает обложку рецепта в файловое хранилище
	UploadCover(ctx context.Context, actor permission.Actor, id int64, file io.Reader, contentType string) (*domain.Recipe, error)
}
