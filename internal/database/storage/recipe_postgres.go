package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/core/query"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RecipeStorage реализует ports.RecipeStorage поверх sqlx
type RecipeStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewRecipeStorage(db *sqlx.DB, logger *slog.Logger) *RecipeStorage {
	return &RecipeStorage{db: db, logger: logger}
}

var recipeColumns = map[query.Field]string{
	query.FieldID:        "r.id",
	query.FieldPublished: "r.is_published",
	query.FieldCategory:  "r.category_id",
	query.FieldAuthor:    "r.author_id",
}

const tagExistsClause = "EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY(?))"

// compileWhere переводит условия спецификации в SQL с плейсхолдерами '?'
func compileWhere(preds []query.Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		clause, a, err := compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, clause)
		args = append(args, a...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func compilePredicate(p query.Predicate) (string, []any, error) {
	if len(p.AnyOf) > 0 {
		parts := make([]string, 0, len(p.AnyOf))
		var args []any
		for _, sub := range p.AnyOf {
			clause, a, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, clause)
			args = append(args, a...)
		}
		return "(" + strings.Join(parts, " OR ") + ")", args, nil
	}

	if p.Field == query.FieldTag {
		ids, ok := p.Value.([]int64)
		if !ok {
			return "", nil, fmt.Errorf("tag predicate expects []int64, got %T", p.Value)
		}
		return tagExistsClause, []any{pq.Array(ids)}, nil
	}

	col, ok := recipeColumns[p.Field]
	if !ok {
		return "", nil, fmt.Errorf("unsupported recipe field %q", p.Field)
	}
	switch p.Op {
	case query.OpEq:
		return col + " = ?", []any{p.Value}, nil
	case query.OpIn:
		ids, ok := p.Value.([]int64)
		if !ok {
			return "", nil, fmt.Errorf("in predicate expects []int64, got %T", p.Value)
		}
		return col + " = ANY(?)", []any{pq.Array(ids)}, nil
	}
	return "", nil, fmt.Errorf("unsupported operator %d", p.Op)
}

// buildSelect собирает SELECT с учётом join-подсказок, сортировки и окна
func buildSelect(spec query.Spec) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT r.*")
	if spec.HasJoin(query.JoinAuthor) {
		b.WriteString(", u.username AS author_username, u.first_name AS author_first_name, u.last_name AS author_last_name")
	}
	if spec.HasJoin(query.JoinCategory) {
		b.WriteString(", c.name AS category_name")
	}
	b.WriteString(" FROM recipes r")
	if spec.HasJoin(query.JoinAuthor) {
		b.WriteString(" JOIN users u ON u.id = r.author_id")
	}
	if spec.HasJoin(query.JoinCategory) {
		b.WriteString(" LEFT JOIN categories c ON c.id = r.category_id")
	}

	where, args, err := compileWhere(spec.Predicates)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(where)

	if len(spec.OrderBy) > 0 {
		orders := make([]string, 0, len(spec.OrderBy))
		for _, o := range spec.OrderBy {
			col, ok := recipeColumns[o.Field]
			if !ok {
				return "", nil, fmt.Errorf("unsupported order field %q", o.Field)
			}
			if o.Desc {
				col += " DESC"
			}
			orders = append(orders, col)
		}
		b.WriteString(" ORDER BY " + strings.Join(orders, ", "))
	}
	if spec.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, spec.Limit)
	}
	if spec.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, spec.Offset)
	}
	return b.String(), args, nil
}

// ListRecipes выполняет спецификацию и при необходимости подгружает теги одним запросом
func (s *RecipeStorage) ListRecipes(ctx context.Context, spec query.Spec) ([]domain.Recipe, error) {
	start := time.Now()

	q, args, err := buildSelect(spec)
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса рецептов: %w", err)
	}

	recipes := []domain.Recipe{}
	if err := s.db.SelectContext(ctx, &recipes, s.db.Rebind(q), args...); err != nil {
		s.logger.Error("failed to list recipes", "error", err)
		return nil, fmt.Errorf("ошибка при получении списка рецептов: %w", err)
	}

	if spec.HasPrefetch(query.PrefetchTags) {
		if err := s.prefetchTags(ctx, recipes); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("recipes fetched",
		"count", len(recipes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return recipes, nil
}

func (s *RecipeStorage) CountRecipes(ctx context.Context, spec query.Spec) (int, error) {
	where, args, err := compileWhere(spec.Predicates)
	if err != nil {
		return 0, fmt.Errorf("ошибка построения запроса рецептов: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind("SELECT COUNT(*) FROM recipes r"+where), args...); err != nil {
		s.logger.Error("failed to count recipes", "error", err)
		return 0, fmt.Errorf("ошибка при подсчёте рецептов: %w", err)
	}
	return count, nil
}

// FindRecipe возвращает первый рецепт по спецификации или nil
func (s *RecipeStorage) FindRecipe(ctx context.Context, spec query.Spec) (*domain.Recipe, error) {
	spec.Limit = 1
	spec.Offset = 0

	recipes, err := s.ListRecipes(ctx, spec)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, nil
	}
	return &recipes[0], nil
}

type recipeTagRow struct {
	RecipeID int64 `db:"recipe_id"`
	domain.Tag
}

// prefetchTags загружает теги всей страницы одним запросом
func (s *RecipeStorage) prefetchTags(ctx context.Context, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		index[r.ID] = i
		recipes[i].Tags = []domain.Tag{}
		recipes[i].TagIDs = []int64{}
	}

	var rows []recipeTagRow
	q := `
	SELECT rt.recipe_id, t.id, t.name, t.slug
	FROM recipe_tags rt
	JOIN tags t ON t.id = rt.tag_id
	WHERE rt.recipe_id = ANY($1)
	ORDER BY t.id
	`
	if err := s.db.SelectContext(ctx, &rows, q, pq.Array(ids)); err != nil {
		s.logger.Error("failed to prefetch recipe tags", "error", err)
		return fmt.Errorf("ошибка при получении тегов рецептов: %w", err)
	}

	for _, row := range rows {
		i := index[row.RecipeID]
		recipes[i].Tags = append(recipes[i].Tags, row.Tag)
		recipes[i].TagIDs = append(recipes[i].TagIDs, row.Tag.ID)
	}
	return nil
}

// CreateRecipe сохраняет рецепт и его теги в одной транзакции
func (s *RecipeStorage) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	start := time.Now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	INSERT INTO recipes (title, description, slug, preparation_time, preparation_time_unit, servings, servings_unit,
		preparation_steps, is_published, cover, cover_key, category_id, author_id)
	VALUES (:title, :description, :slug, :preparation_time, :preparation_time_unit, :servings, :servings_unit,
		:preparation_steps, :is_published, :cover, :cover_key, :category_id, :author_id)
	RETURNING id, version, created_at, updated_at
	`
	named, args, err := tx.BindNamed(q, recipe)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	if err := tx.QueryRowxContext(ctx, named, args...).Scan(&recipe.ID, &recipe.Version, &recipe.CreatedAt, &recipe.UpdatedAt); err != nil {
		s.logger.Error("failed to insert recipe", "title", recipe.Title, "error", err)
		return fmt.Errorf("ошибка при сохранении рецепта: %w", err)
	}

	if err := replaceRecipeTags(ctx, tx, recipe.ID, recipe.TagIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	s.logger.Info("recipe saved successfully",
		"id", recipe.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// UpdateRecipe сохраняет рецепт при совпадении версии и увеличивает её
func (s *RecipeStorage) UpdateRecipe(ctx context.Context, recipe *domain.Recipe, expectedVersion int64) error {
	start := time.Now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	UPDATE recipes SET
		title = $1, description = $2, slug = $3,
		preparation_time = $4, preparation_time_unit = $5,
		servings = $6, servings_unit = $7, preparation_steps = $8,
		is_published = $9, cover = $10, cover_key = $11, category_id = $12,
		version = version + 1, updated_at = NOW()
	WHERE id = $13 AND version = $14
	RETURNING version, updated_at
	`
	err = tx.QueryRowxContext(ctx, q,
		recipe.Title, recipe.Description, recipe.Slug,
		recipe.PreparationTime, recipe.PreparationTimeUnit,
		recipe.Servings, recipe.ServingsUnit, recipe.PreparationSteps,
		recipe.IsPublished, recipe.Cover, recipe.CoverKey, recipe.CategoryID,
		recipe.ID, expectedVersion,
	).Scan(&recipe.Version, &recipe.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("recipe version conflict", "id", recipe.ID, "expected_version", expectedVersion)
		return domain.ErrConflict
	}
	if err != nil {
		s.logger.Error("failed to update recipe", "id", recipe.ID, "error", err)
		return fmt.Errorf("ошибка при обновлении рецепта: %w", err)
	}

	if err := replaceRecipeTags(ctx, tx, recipe.ID, recipe.TagIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	s.logger.Info("recipe updated successfully",
		"id", recipe.ID,
		"version", recipe.Version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func replaceRecipeTags(ctx context.Context, tx *sqlx.Tx, recipeID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("ошибка при очистке тегов рецепта: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	q := `INSERT INTO recipe_tags (recipe_id, tag_id) SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, q, recipeID, pq.Array(tagIDs)); err != nil {
		return fmt.Errorf("ошибка при сохранении тегов рецепта: %w", err)
	}
	return nil
}

func (s *RecipeStorage) DeleteRecipe(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id); err != nil {
		s.logger.Error("failed to delete recipe", "id", id, "error", err)
		return fmt.Errorf("ошибка при удалении рецепта: %w", err)
	}
	s.logger.Info("recipe deleted", "id", id)
	return nil
}
