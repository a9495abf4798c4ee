package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/core/query"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/messaging/payloads"
	"github.com/GoArmGo/RecipeApp/internal/permission"
	"github.com/GoArmGo/RecipeApp/internal/serializer"
	"github.com/GoArmGo/RecipeApp/internal/validation"
	"github.com/google/uuid"
)

const msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// recipeUseCase implements RecipeUseCase
type recipeUseCase struct {
	recipes    ports.RecipeStorage
	tags       ports.TagStorage
	categories ports.CategoryStorage
	files      FileStorage
	events     ports.RecipeEventPublisher
	pagination Pagination
	logger     *slog.Logger
}

// NewRecipeUseCase создает новый экземпляр RecipeUseCase.
// files и events могут быть nil: тогда загрузка обложек недоступна, а события не публикуются
func NewRecipeUseCase(
	recipes ports.RecipeStorage,
	tags ports.TagStorage,
	categories ports.CategoryStorage,
	files FileStorage,
	events ports.RecipeEventPublisher,
	pagination Pagination,
	logger *slog.Logger,
) RecipeUseCase {
	return &recipeUseCase{
		recipes:    recipes,
		tags:       tags,
		categories: categories,
		files:      files,
		events:     events,
		pagination: pagination.normalized(),
		logger:     logger,
	}
}

// ListRecipes выполняет конвейер фильтрации: проверка параметров, спецификация, подсчёт и страница
func (uc *recipeUseCase) ListRecipes(ctx context.Context, params url.Values) (*RecipePage, error) {
	start := time.Now()

	req, err := parseListRequest(params, uc.pagination)
	if err != nil {
		return nil, err
	}

	count, err := uc.recipes.CountRecipes(ctx, req.spec.Unpaged())
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка подсчёта рецептов: %w", err)
	}

	recipes := []domain.Recipe{}
	if req.spec.Offset < count {
		recipes, err = uc.recipes.ListRecipes(ctx, req.spec)
		if err != nil {
			return nil, fmt.Errorf("usecase: ошибка получения списка рецептов: %w", err)
		}
	}

	uc.logger.Debug("recipes listed",
		"count", count,
		"page", req.page,
		"page_size", req.pageSize,
		"returned", len(recipes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &RecipePage{Recipes: recipes, Count: count, Page: req.page, PageSize: req.pageSize}, nil
}

// visibleRecipeSpec ищет рецепт по ID среди опубликованных и собственных
func visibleRecipeSpec(actor permission.Actor, id int64) query.Spec {
	spec := query.New().
		Where(query.Eq(query.FieldID, id)).
		With(query.JoinAuthor, query.JoinCategory).
		Preload(query.PrefetchTags)

	if actor.Authenticated {
		spec.Where(query.Or(
			query.Eq(query.FieldPublished, true),
			query.Eq(query.FieldAuthor, actor.UserID),
		))
	} else {
		spec.Where(query.Eq(query.FieldPublished, true))
	}
	return *spec
}

// ownRecipeSpec: рецепт по ID без ограничения видимости, для перечитывания после записи
func ownRecipeSpec(id int64) query.Spec {
	return *query.New().
		Where(query.Eq(query.FieldID, id)).
		With(query.JoinAuthor, query.JoinCategory).
		Preload(query.PrefetchTags)
}

func (uc *recipeUseCase) GetRecipe(ctx context.Context, actor permission.Actor, id int64) (*domain.Recipe, error) {
	if err := permission.Check(permission.Recipe, http.MethodGet, actor).Err(); err != nil {
		return nil, err
	}
	return uc.findVisible(ctx, actor, id)
}

func (uc *recipeUseCase) findVisible(ctx context.Context, actor permission.Actor, id int64) (*domain.Recipe, error) {
	recipe, err := uc.recipes.FindRecipe(ctx, visibleRecipeSpec(actor, id))
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении рецепта %d: %w", id, err)
	}
	if recipe == nil {
		return nil, domain.ErrNotFound
	}
	return recipe, nil
}

func (uc *recipeUseCase) reload(ctx context.Context, id int64) (*domain.Recipe, error) {
	recipe, err := uc.recipes.FindRecipe(ctx, ownRecipeSpec(id))
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при перечитывании рецепта %d: %w", id, err)
	}
	if recipe == nil {
		return nil, domain.ErrNotFound
	}
	return recipe, nil
}

// CreateRecipe валидирует запись, назначает автора из участника запроса и сохраняет рецепт
func (uc *recipeUseCase) CreateRecipe(ctx context.Context, actor permission.Actor, input map[string]any) (*domain.Recipe, error) {
	if err := permission.Check(permission.Recipe, http.MethodPost, actor).Err(); err != nil {
		return nil, err
	}

	fields := serializer.WritableRecipeFields(input)
	recipe := domain.Recipe{AuthorID: actor.UserID}
	if err := uc.bindRecipe(ctx, fields, nil, &recipe); err != nil {
		return nil, err
	}
	recipe.Slug = recipeSlug(recipe.Title)

	if err := uc.recipes.CreateRecipe(ctx, &recipe); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при сохранении рецепта: %w", err)
	}

	uc.logger.Info("recipe created", "recipe_id", recipe.ID, "author_id", recipe.AuthorID)
	uc.publish(ctx, payloads.NewRecipeEvent(payloads.RecipeCreated, recipe.ID, recipe.AuthorID))

	return uc.reload(ctx, recipe.ID)
}

// UpdateRecipe частично обновляет рецепт владельца
func (uc *recipeUseCase) UpdateRecipe(ctx context.Context, actor permission.Actor, id int64, input map[string]any, ifMatch int64) (*domain.Recipe, error) {
	existing, err := uc.findForWrite(ctx, actor, http.MethodPatch, id)
	if err != nil {
		return nil, err
	}
	if ifMatch > 0 && ifMatch != existing.Version {
		return nil, domain.ErrConflict
	}

	fields := serializer.WritableRecipeFields(input)
	prior := serializer.RecipeFields(*existing)

	updated := *existing
	if err := uc.bindRecipe(ctx, fields, prior, &updated); err != nil {
		return nil, err
	}
	if updated.Title != existing.Title {
		updated.Slug = recipeSlug(updated.Title)
	}

	if err := uc.recipes.UpdateRecipe(ctx, &updated, existing.Version); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("usecase: ошибка при обновлении рецепта %d: %w", id, err)
	}

	uc.logger.Info("recipe updated", "recipe_id", id, "version", updated.Version)
	uc.publish(ctx, payloads.NewRecipeEvent(payloads.RecipeUpdated, id, existing.AuthorID))

	return uc.reload(ctx, id)
}

// DeleteRecipe удаляет рецепт; обложка удаляется воркером асинхронно
func (uc *recipeUseCase) DeleteRecipe(ctx context.Context, actor permission.Actor, id int64) error {
	existing, err := uc.findForWrite(ctx, actor, http.MethodDelete, id)
	if err != nil {
		return err
	}

	if err := uc.recipes.DeleteRecipe(ctx, id); err != nil {
		return fmt.Errorf("usecase: ошибка при удалении рецепта %d: %w", id, err)
	}

	uc.logger.Info("recipe deleted", "recipe_id", id, "author_id", existing.AuthorID)
	event := payloads.NewRecipeEvent(payloads.RecipeDeleted, id, existing.AuthorID)
	event.StaleCover = existing.CoverKey
	uc.publish(ctx, event)
	return nil
}

// UploadCover сохраняет файл обложки и привязывает его к рецепту
func (uc *recipeUseCase) UploadCover(ctx context.Context, actor permission.Actor, id int64, file io.Reader, contentType string) (*domain.Recipe, error) {
	existing, err := uc.findForWrite(ctx, actor, http.MethodPut, id)
	if err != nil {
		return nil, err
	}
	if uc.files == nil {
		return nil, ErrCoversDisabled
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		verr := domain.NewValidationError()
		verr.Add("cover", msgInvalidImage)
		return nil, verr
	}

	key := coverKey(id, mediaType)
	coverURL, err := uc.files.UploadFile(ctx, key, file, mediaType)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка загрузки обложки рецепта %d: %w", id, err)
	}

	updated := *existing
	updated.Cover = coverURL
	updated.CoverKey = key
	if err := uc.recipes.UpdateRecipe(ctx, &updated, existing.Version); err != nil {
		// загруженный объект никому не принадлежит
		if delErr := uc.files.DeleteFile(ctx, key); delErr != nil {
			uc.logger.Warn("failed to remove orphaned cover", "key", key, "error", delErr)
		}
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("usecase: ошибка при сохранении обложки рецепта %d: %w", id, err)
	}

	uc.logger.Info("recipe cover uploaded", "recipe_id", id, "key", key)
	event := payloads.NewRecipeEvent(payloads.RecipeCoverChanged, id, existing.AuthorID)
	event.StaleCover = existing.CoverKey
	uc.publish(ctx, event)

	return uc.reload(ctx, id)
}

// findForWrite: проверка уровня запроса, поиск среди видимых, затем проверка владельца.
// Чужой опубликованный рецепт даёт 403, чужой неопубликованный даёт 404.
func (uc *recipeUseCase) findForWrite(ctx context.Context, actor permission.Actor, method string, id int64) (*domain.Recipe, error) {
	if err := permission.Check(permission.Recipe, method, actor).Err(); err != nil {
		return nil, err
	}
	existing, err := uc.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	obj := permission.Object{OwnerID: existing.AuthorID}
	if err := permission.CheckObject(permission.Recipe, method, actor, obj).Err(); err != nil {
		return nil, err
	}
	return existing, nil
}

// bindRecipe: валидация (с дополнением из prior), приведение типов и проверка ссылок
// на категорию и теги. Все нарушения возвращаются одной ValidationError.
func (uc *recipeUseCase) bindRecipe(ctx context.Context, fields, prior map[string]any, recipe *domain.Recipe) error {
	verr := domain.NewValidationError()

	if err := validation.ValidateRecipe(fields, prior); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		verr.Merge(ve)
	}

	merged := fields
	if prior != nil {
		merged = validation.Backfill(fields, prior)
	}
	verr.Merge(serializer.ApplyRecipeFields(merged, recipe))

	if err := uc.checkReferences(ctx, recipe, verr); err != nil {
		return err
	}
	return verr.OrNil()
}

func (uc *recipeUseCase) checkReferences(ctx context.Context, recipe *domain.Recipe, verr *domain.ValidationError) error {
	if recipe.CategoryID.Valid {
		cat, err := uc.categories.GetCategory(ctx, recipe.CategoryID.Int64)
		if err != nil {
			return fmt.Errorf("usecase: ошибка при проверке категории: %w", err)
		}
		if cat == nil {
			verr.Add("category", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", recipe.CategoryID.Int64))
		}
	}

	if len(recipe.TagIDs) > 0 {
		found, err := uc.tags.GetTagsByIDs(ctx, recipe.TagIDs)
		if err != nil {
			return fmt.Errorf("usecase: ошибка при проверке тегов: %w", err)
		}
		known := make(map[int64]struct{}, len(found))
		for _, t := range found {
			known[t.ID] = struct{}{}
		}
		for _, id := range recipe.TagIDs {
			if _, ok := known[id]; !ok {
				verr.Add("tags", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			}
		}
	}
	return nil
}

// publish отправляет событие; ошибка очереди не отменяет уже выполненную запись
func (uc *recipeUseCase) publish(ctx context.Context, event payloads.RecipeEvent) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishRecipeEvent(ctx, event); err != nil {
		uc.logger.Warn("failed to publish recipe event",
			"type", event.Type,
			"recipe_id", event.RecipeID,
			"error", err,
		)
	}
}

func coverKey(recipeID int64, mediaType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("recipes/%d/cover-%s%s", recipeID, uuid.NewString(), ext)
}
