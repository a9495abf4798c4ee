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
)

const (
	msgTagSlugExists   = "tag with this slug already exists."
	msgNameWithoutSlug = "Name must contain at least one letter or digit."
)

// tagUseCase implements TagUseCase
type tagUseCase struct {
	tags       ports.TagStorage
	categories ports.CategoryStorage
	cache      ports.TagCache
	logger     *slog.Logger
}

// NewTagUseCase создает новый экземпляр TagUseCase.
// cache обязателен; без Redis передаётся пустая реализация
func NewTagUseCase(tags ports.TagStorage, categories ports.CategoryStorage, cache ports.TagCache, logger *slog.Logger) TagUseCase {
	return &tagUseCase{tags: tags, categories: categories, cache: cache, logger: logger}
}

func (uc *tagUseCase) ListTags(ctx context.Context) ([]domain.Tag, error) {
	if tags, ok, err := uc.cache.GetTagList(ctx); err != nil {
		uc.logger.Warn("tag cache read failed", "error", err)
	} else if ok {
		return tags, nil
	}

	tags, err := uc.tags.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения списка тегов: %w", err)
	}
	if err := uc.cache.SetTagList(ctx, tags); err != nil {
		uc.logger.Warn("tag cache write failed", "error", err)
	}
	return tags, nil
}

func (uc *tagUseCase) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	if tag, ok, err := uc.cache.GetTag(ctx, id); err != nil {
		uc.logger.Warn("tag cache read failed", "tag_id", id, "error", err)
	} else if ok {
		return tag, nil
	}

	tag, err := uc.tags.GetTag(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения тега %d: %w", id, err)
	}
	if tag == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.cache.SetTag(ctx, tag); err != nil {
		uc.logger.Warn("tag cache write failed", "tag_id", id, "error", err)
	}
	return tag, nil
}

func (uc *tagUseCase) UpdateTag(ctx context.Context, actor permission.Actor, id int64, input serializer.TagInput) (*domain.Tag, error) {
	if err := permission.Check(permission.Tag, http.MethodPatch, actor).Err(); err != nil {
		return nil, err
	}

	tag, err := uc.tags.GetTag(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения тега %d: %w", id, err)
	}
	if tag == nil {
		return nil, domain.ErrNotFound
	}
	if err := permission.CheckObject(permission.Tag, http.MethodPatch, actor, permission.Object{}).Err(); err != nil {
		return nil, err
	}

	updated := *tag
	if verr := input.ApplyTo(&updated); !verr.Empty() {
		return nil, verr
	}
	// без явного slug он следует за новым именем
	if input.Slug == nil && updated.Name != tag.Name {
		updated.Slug = slugify(updated.Name)
		if updated.Slug == "" {
			verr := domain.NewValidationError()
			verr.Add("name", msgNameWithoutSlug)
			return nil, verr
		}
	}
	if updated.Slug != tag.Slug {
		taken, err := uc.tags.TagSlugTaken(ctx, updated.Slug, id)
		if err != nil {
			return nil, fmt.Errorf("usecase: ошибка проверки slug тега %d: %w", id, err)
		}
		if taken {
			verr := domain.NewValidationError()
			verr.Add("slug", msgTagSlugExists)
			return nil, verr
		}
	}

	if err := uc.tags.UpdateTag(ctx, &updated); err != nil {
		return nil, fmt.Errorf("usecase: ошибка обновления тега %d: %w", id, err)
	}
	uc.invalidate(ctx, id)

	uc.logger.Info("tag updated", "tag_id", id, "user_id", actor.UserID)
	return &updated, nil
}

func (uc *tagUseCase) DeleteTag(ctx context.Context, actor permission.Actor, id int64) error {
	if err := permission.Check(permission.Tag, http.MethodDelete, actor).Err(); err != nil {
		return err
	}

	tag, err := uc.tags.GetTag(ctx, id)
	if err != nil {
		return fmt.Errorf("usecase: ошибка получения тега %d: %w", id, err)
	}
	if tag == nil {
		return domain.ErrNotFound
	}
	if err := permission.CheckObject(permission.Tag, http.MethodDelete, actor, permission.Object{}).Err(); err != nil {
		return err
	}

	if err := uc.tags.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("usecase: ошибка удаления тега %d: %w", id, err)
	}
	uc.invalidate(ctx, id)

	uc.logger.Info("tag deleted", "tag_id", id, "user_id", actor.UserID)
	return nil
}

func (uc *tagUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := uc.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения списка категорий: %w", err)
	}
	return categories, nil
}

func (uc *tagUseCase) invalidate(ctx context.Context, id int64) {
	if err := uc.cache.Invalidate(ctx, id); err != nil {
		uc.logger.Warn("tag cache invalidation failed", "tag_id", id, "error", err)
	}
}
