package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"gorm.io/gorm"
)

// GormTagStorage реализует ports.TagStorage и ports.CategoryStorage с использованием GORM
type GormTagStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormTagStorage создает новый экземпляр GormTagStorage
func NewGormTagStorage(db *gorm.DB, logger *slog.Logger) *GormTagStorage {
	return &GormTagStorage{db: db, logger: logger}
}

func (s *GormTagStorage) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tags := []domain.Tag{}
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении списка тегов с GORM: %w", err)
	}
	return tags, nil
}

// GetTag получает тег по ID; nil, если его нет
func (s *GormTagStorage) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	var tag domain.Tag
	result := s.db.WithContext(ctx).First(&tag, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении тега по ID с GORM: %w", result.Error)
	}
	return &tag, nil
}

func (s *GormTagStorage) GetTagsByIDs(ctx context.Context, ids []int64) ([]domain.Tag, error) {
	tags := []domain.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении тегов по ID с GORM: %w", err)
	}
	return tags, nil
}

func (s *GormTagStorage) TagSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Tag{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке slug тега с GORM: %w", err)
	}
	return n > 0, nil
}

func (s *GormTagStorage) UpdateTag(ctx context.Context, tag *domain.Tag) error {
	start := time.Now()

	result := s.db.WithContext(ctx).Model(&domain.Tag{}).
		Where("id = ?", tag.ID).
		Updates(map[string]any{"name": tag.Name, "slug": tag.Slug})
	if result.Error != nil {
		s.logger.Error("failed to update tag", "tag_id", tag.ID, "error", result.Error)
		return fmt.Errorf("ошибка при обновлении тега с GORM: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	s.logger.Info("tag updated successfully",
		"tag_id", tag.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// DeleteTag удаляет тег; связи recipe_tags удаляются каскадно
func (s *GormTagStorage) DeleteTag(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&domain.Tag{}, id).Error; err != nil {
		s.logger.Error("failed to delete tag", "tag_id", id, "error", err)
		return fmt.Errorf("ошибка при удалении тега с GORM: %w", err)
	}
	return nil
}

func (s *GormTagStorage) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении списка категорий с GORM: %w", err)
	}
	return categories, nil
}

func (s *GormTagStorage) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	var category domain.Category
	result := s.db.WithContext(ctx).First(&category, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении категории по ID с GORM: %w", result.Error)
	}
	return &category, nil
}
