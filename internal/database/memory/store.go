// Package memory — хранилище в памяти процесса. Используется драйвером STORAGE_DRIVER=memory
// и тестами usecase-слоя. Реализует все порты хранилища и выполняет спецификации выборки.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/core/query"
	"github.com/GoArmGo/RecipeApp/internal/domain"
)

// Store хранит все сущности под одним мьютексом
type Store struct {
	mu sync.RWMutex

	users      map[int64]domain.User
	recipes    map[int64]domain.Recipe
	tags       map[int64]domain.Tag
	categories map[int64]domain.Category
	recipeTags map[int64][]int64

	nextUserID     int64
	nextRecipeID   int64
	nextTagID      int64
	nextCategoryID int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:      make(map[int64]domain.User),
		recipes:    make(map[int64]domain.Recipe),
		tags:       make(map[int64]domain.Tag),
		categories: make(map[int64]domain.Category),
		recipeTags: make(map[int64][]int64),
		now:        time.Now,
	}
}

// AddCategory добавляет категорию (категории создаются вне API)
func (s *Store) AddCategory(name string) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCategoryID++
	c := domain.Category{ID: s.nextCategoryID, Name: name}
	s.categories[c.ID] = c
	return c
}

// AddTag добавляет тег (теги создаются вне API)
func (s *Store) AddTag(name, slug string) domain.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTagID++
	t := domain.Tag{ID: s.nextTagID, Name: name, Slug: slug}
	s.tags[t.ID] = t
	return t
}

// --- recipes ---

func (s *Store) ListRecipes(_ context.Context, spec query.Spec) ([]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.match(spec.Predicates)
	if err != nil {
		return nil, err
	}
	sortRecipes(matched, spec.OrderBy)

	if spec.Offset > 0 {
		if spec.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[spec.Offset:]
		}
	}
	if spec.Limit > 0 && len(matched) > spec.Limit {
		matched = matched[:spec.Limit]
	}

	out := make([]domain.Recipe, 0, len(matched))
	for _, r := range matched {
		out = append(out, s.decorate(r, spec))
	}
	return out, nil
}

func (s *Store) CountRecipes(_ context.Context, spec query.Spec) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.match(spec.Predicates)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (s *Store) FindRecipe(ctx context.Context, spec query.Spec) (*domain.Recipe, error) {
	spec.Limit = 1
	spec.Offset = 0
	recipes, err := s.ListRecipes(ctx, spec)
	if err != nil || len(recipes) == 0 {
		return nil, err
	}
	return &recipes[0], nil
}

func (s *Store) CreateRecipe(_ context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[recipe.AuthorID]; !ok {
		return fmt.Errorf("memory: author %d does not exist", recipe.AuthorID)
	}
	if err := s.checkSlug(recipe.Slug, 0); err != nil {
		return err
	}

	s.nextRecipeID++
	now := s.now()
	recipe.ID = s.nextRecipeID
	recipe.Version = 1
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	s.recipes[recipe.ID] = stripped(*recipe)
	s.recipeTags[recipe.ID] = append([]int64(nil), recipe.TagIDs...)
	return nil
}

func (s *Store) UpdateRecipe(_ context.Context, recipe *domain.Recipe, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.recipes[recipe.ID]
	if !ok || stored.Version != expectedVersion {
		return domain.ErrConflict
	}
	if err := s.checkSlug(recipe.Slug, recipe.ID); err != nil {
		return err
	}

	recipe.Version = expectedVersion + 1
	recipe.CreatedAt = stored.CreatedAt
	recipe.UpdatedAt = s.now()
	recipe.AuthorID = stored.AuthorID

	s.recipes[recipe.ID] = stripped(*recipe)
	s.recipeTags[recipe.ID] = append([]int64(nil), recipe.TagIDs...)
	return nil
}

func (s *Store) DeleteRecipe(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recipes, id)
	delete(s.recipeTags, id)
	return nil
}

func (s *Store) checkSlug(slug string, selfID int64) error {
	for id, r := range s.recipes {
		if id != selfID && r.Slug == slug {
			return fmt.Errorf("memory: duplicate recipe slug %q", slug)
		}
	}
	return nil
}

// stripped оставляет только собственные колонки рецепта
func stripped(r domain.Recipe) domain.Recipe {
	r.AuthorUsername, r.AuthorFirstName, r.AuthorLastName = "", "", ""
	r.CategoryName = sql.NullString{}
	r.Tags = nil
	r.TagIDs = nil
	return r
}

// decorate дополняет рецепт данными по подсказкам join/prefetch
func (s *Store) decorate(r domain.Recipe, spec query.Spec) domain.Recipe {
	if spec.HasJoin(query.JoinAuthor) {
		if u, ok := s.users[r.AuthorID]; ok {
			r.AuthorUsername = u.Username
			r.AuthorFirstName = u.FirstName
			r.AuthorLastName = u.LastName
		}
	}
	if spec.HasJoin(query.JoinCategory) && r.CategoryID.Valid {
		if c, ok := s.categories[r.CategoryID.Int64]; ok {
			r.CategoryName = sql.NullString{String: c.Name, Valid: true}
		}
	}
	if spec.HasPrefetch(query.PrefetchTags) {
		ids := s.liveTagIDs(r.ID)
		r.TagIDs = ids
		r.Tags = make([]domain.Tag, 0, len(ids))
		for _, id := range ids {
			r.Tags = append(r.Tags, s.tags[id])
		}
	}
	return r
}

// liveTagIDs возвращает теги рецепта, которые ещё существуют, по возрастанию id
func (s *Store) liveTagIDs(recipeID int64) []int64 {
	ids := make([]int64, 0, len(s.recipeTags[recipeID]))
	for _, id := range s.recipeTags[recipeID] {
		if _, ok := s.tags[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) match(preds []query.Predicate) ([]domain.Recipe, error) {
	out := make([]domain.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		ok, err := s.matchAll(r, preds)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	// детерминированный порядок для спецификаций без сортировки
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) matchAll(r domain.Recipe, preds []query.Predicate) (bool, error) {
	for _, p := range preds {
		ok, err := s.matchOne(r, p)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (s *Store) matchOne(r domain.Recipe, p query.Predicate) (bool, error) {
	if len(p.AnyOf) > 0 {
		for _, sub := range p.AnyOf {
			ok, err := s.matchOne(r, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	switch p.Field {
	case query.FieldPublished:
		want, ok := p.Value.(bool)
		if !ok {
			return false, fmt.Errorf("memory: %s expects bool, got %T", p.Field, p.Value)
		}
		return r.IsPublished == want, nil
	case query.FieldTag:
		ids, ok := p.Value.([]int64)
		if !ok {
			return false, fmt.Errorf("memory: %s expects []int64, got %T", p.Field, p.Value)
		}
		for _, have := range s.liveTagIDs(r.ID) {
			if containsID(ids, have) {
				return true, nil
			}
		}
		return false, nil
	}

	var actual sql.NullInt64
	switch p.Field {
	case query.FieldID:
		actual = sql.NullInt64{Int64: r.ID, Valid: true}
	case query.FieldAuthor:
		actual = sql.NullInt64{Int64: r.AuthorID, Valid: true}
	case query.FieldCategory:
		actual = r.CategoryID
	default:
		return false, fmt.Errorf("memory: unsupported field %q", p.Field)
	}
	if !actual.Valid {
		return false, nil
	}

	switch p.Op {
	case query.OpEq:
		want, ok := p.Value.(int64)
		if !ok {
			return false, fmt.Errorf("memory: %s expects int64, got %T", p.Field, p.Value)
		}
		return actual.Int64 == want, nil
	case query.OpIn:
		ids, ok := p.Value.([]int64)
		if !ok {
			return false, fmt.Errorf("memory: %s expects []int64, got %T", p.Field, p.Value)
		}
		return containsID(ids, actual.Int64), nil
	}
	return false, fmt.Errorf("memory: unsupported operator %d", p.Op)
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func sortRecipes(recipes []domain.Recipe, order []query.Order) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(recipes, func(i, j int) bool {
		for _, o := range order {
			a, b := orderKey(recipes[i], o.Field), orderKey(recipes[j], o.Field)
			if a == b {
				continue
			}
			if o.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})
}

func orderKey(r domain.Recipe, f query.Field) int64 {
	switch f {
	case query.FieldAuthor:
		return r.AuthorID
	case query.FieldCategory:
		return r.CategoryID.Int64
	case query.FieldPublished:
		if r.IsPublished {
			return 1
		}
		return 0
	default:
		return r.ID
	}
}

// --- users ---

func (s *Store) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) UsernameTaken(_ context.Context, username string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, u := range s.users {
		if id != excludeID && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, u := range s.users {
		if id != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	now := s.now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = s.now()
	s.users[user.ID] = *user
	return nil
}

// DeleteUser удаляет пользователя вместе с его рецептами
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for rid, r := range s.recipes {
		if r.AuthorID == id {
			delete(s.recipes, rid)
			delete(s.recipeTags, rid)
		}
	}
	return nil
}

// --- tags & categories ---

func (s *Store) ListTags(_ context.Context) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetTag(_ context.Context, id int64) (*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tags[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *Store) GetTagsByIDs(_ context.Context, ids []int64) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Tag, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tags[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) TagSlugTaken(_ context.Context, slug string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, t := range s.tags {
		if id != excludeID && t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateTag(_ context.Context, tag *domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tags[tag.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, t := range s.tags {
		if id != tag.ID && t.Slug == tag.Slug {
			return fmt.Errorf("memory: duplicate tag slug %q", tag.Slug)
		}
	}
	s.tags[tag.ID] = *tag
	return nil
}

func (s *Store) DeleteTag(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tags, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
