package usecase

import (
	"context"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/permission"
	"github.com/GoArmGo/RecipeApp/internal/serializer"
)

// AuthorUseCase определяет интерфейс бизнес-логики работы с авторами.
// Аутентифицированный пользователь видит и меняет только собственную запись.
type AuthorUseCase interface {
	// Register создаёт нового автора; доступно только анонимному участнику
	Register(ctx context.Context, actor permission.Actor, input serializer.AuthorInput) (*domain.User, error)

	// Me возвращает запись самого участника
	Me(ctx context.Context, actor permission.Actor) (*domain.User, error)

	// UpdateMe частично обновляет запись участника
	UpdateMe(ctx context.Context, actor permission.Actor, input serializer.AuthorInput) (*domain.User, error)

	// DeleteMe удаляет запись участника
	DeleteMe(ctx context.Context, actor permission.Actor) error
}
