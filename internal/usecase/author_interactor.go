package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/permission"
	"github.com/GoArmGo/RecipeApp/internal/serializer"
	"github.com/GoArmGo/RecipeApp/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// authorUseCase implements AuthorUseCase
type authorUseCase struct {
	users  ports.UserStorage
	logger *slog.Logger
}

// NewAuthorUseCase создает новый экземпляр AuthorUseCase
func NewAuthorUseCase(users ports.UserStorage, logger *slog.Logger) AuthorUseCase {
	return &authorUseCase{users: users, logger: logger}
}

func (uc *authorUseCase) Register(ctx context.Context, actor permission.Actor, input serializer.AuthorInput) (*domain.User, error) {
	if err := permission.Check(permission.Author, http.MethodPost, actor).Err(); err != nil {
		return nil, err
	}

	verr := input.MissingRegistrationFields()
	if !verr.Empty() {
		return nil, verr
	}

	user := domain.User{}
	input.MergeInto(&user)
	if err := uc.validate(ctx, &user, 0, input.Password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(*input.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := uc.users.CreateUser(ctx, &user); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при создании пользователя %s: %w", user.Username, err)
	}

	uc.logger.Info("author registered", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

func (uc *authorUseCase) Me(ctx context.Context, actor permission.Actor) (*domain.User, error) {
	return uc.self(ctx, actor, http.MethodGet)
}

func (uc *authorUseCase) UpdateMe(ctx context.Context, actor permission.Actor, input serializer.AuthorInput) (*domain.User, error) {
	user, err := uc.self(ctx, actor, http.MethodPatch)
	if err != nil {
		return nil, err
	}

	updated := *user
	input.MergeInto(&updated)
	if err := uc.validate(ctx, &updated, user.ID, input.Password); err != nil {
		return nil, err
	}
	if input.Password != nil {
		hash, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = hash
	}

	if err := uc.users.UpdateUser(ctx, &updated); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при обновлении пользователя %d: %w", user.ID, err)
	}

	uc.logger.Info("author updated", "user_id", updated.ID)
	return &updated, nil
}

func (uc *authorUseCase) DeleteMe(ctx context.Context, actor permission.Actor) error {
	user, err := uc.self(ctx, actor, http.MethodDelete)
	if err != nil {
		return err
	}
	if err := uc.users.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("usecase: ошибка при удалении пользователя %d: %w", user.ID, err)
	}
	uc.logger.Info("author deleted", "user_id", user.ID)
	return nil
}

// self находит запись участника и проверяет право на неё.
// Токен, указывающий на удалённого пользователя, считается отсутствием аутентификации.
func (uc *authorUseCase) self(ctx context.Context, actor permission.Actor, method string) (*domain.User, error) {
	if err := permission.Check(permission.Author, method, actor).Err(); err != nil {
		return nil, err
	}

	user, err := uc.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователя %d: %w", actor.UserID, err)
	}
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}

	if err := permission.CheckObject(permission.Author, method, actor, permission.Object{OwnerID: user.ID}).Err(); err != nil {
		return nil, err
	}
	return user, nil
}

// validate проверяет итоговые атрибуты, уникальность и пароль, если он передан
func (uc *authorUseCase) validate(ctx context.Context, user *domain.User, selfID int64, password *string) error {
	verr := validation.ValidateAuthor(validation.AuthorFields{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})

	if _, bad := verr.Fields["username"]; !bad {
		taken, err := uc.users.UsernameTaken(ctx, user.Username, selfID)
		if err != nil {
			return fmt.Errorf("usecase: ошибка проверки username: %w", err)
		}
		if taken {
			verr.Add("username", validation.MsgUsernameExists)
		}
	}

	if _, bad := verr.Fields["email"]; !bad {
		taken, err := uc.users.EmailTaken(ctx, user.Email, selfID)
		if err != nil {
			return fmt.Errorf("usecase: ошибка проверки email: %w", err)
		}
		if taken {
			verr.Add("email", validation.MsgEmailExists)
		}
	}

	if password != nil {
		for _, msg := range validation.PasswordProblems(*password) {
			verr.Add("password", msg)
		}
	}
	return verr.OrNil()
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка хэширования пароля: %w", err)
	}
	return string(hash), nil
}
