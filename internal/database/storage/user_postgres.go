package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/jmoiron/sqlx"
)

// UserStorage реализует интерфейс ports.UserStorage с использованием sqlx
type UserStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewUserStorage создает новый экземпляр UserStorage
func NewUserStorage(db *sqlx.DB, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// GetUserByID возвращает пользователя или nil, если его нет
func (s *UserStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("user not found by id", "id", id)
			return nil, nil
		}
		s.logger.Error("failed to select user", "id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении пользователя по ID: %w", err)
	}
	return &user, nil
}

func (s *UserStorage) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	var taken bool
	q := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`
	if err := s.db.GetContext(ctx, &taken, q, username, excludeID); err != nil {
		return false, fmt.Errorf("ошибка проверки username: %w", err)
	}
	return taken, nil
}

// EmailTaken сравнивает адреса без учёта регистра
func (s *UserStorage) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var taken bool
	q := `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`
	if err := s.db.GetContext(ctx, &taken, q, email, excludeID); err != nil {
		return false, fmt.Errorf("ошибка проверки email: %w", err)
	}
	return taken, nil
}

func (s *UserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	start := time.Now()

	q := `
	INSERT INTO users (username, email, first_name, last_name, password_hash, is_staff)
	VALUES (:username, :email, :first_name, :last_name, :password_hash, :is_staff)
	RETURNING id, created_at, updated_at
	`
	named, args, err := s.db.BindNamed(q, user)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	if err := s.db.QueryRowxContext(ctx, named, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		s.logger.Error("failed to insert user", "username", user.Username, "error", err)
		return fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	s.logger.Info("user created successfully",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *UserStorage) UpdateUser(ctx context.Context, user *domain.User) error {
	q := `
	UPDATE users SET username = $1, email = $2, first_name = $3, last_name = $4, password_hash = $5, updated_at = NOW()
	WHERE id = $6
	RETURNING updated_at
	`
	err := s.db.QueryRowxContext(ctx, q,
		user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.ID,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to update user", "user_id", user.ID, "error", err)
		return fmt.Errorf("ошибка при обновлении пользователя: %w", err)
	}
	return nil
}

// DeleteUser удаляет пользователя; его рецепты удаляются каскадно
func (s *UserStorage) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", err)
		return fmt.Errorf("ошибка при удалении пользователя: %w", err)
	}
	return nil
}
