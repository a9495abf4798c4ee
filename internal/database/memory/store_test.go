package memory

import (
	"context"
	"database/sql"
	"testing"

	"github.com/GoArmGo/RecipeApp/internal/core/query"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*Store, domain.User, domain.User) {
	t.Helper()
	s := New()
	ctx := context.Background()

	anna := domain.User{Username: "anna", Email: "anna@example.com", FirstName: "Anna", LastName: "Petrova"}
	boris := domain.User{Username: "boris", Email: "boris@example.com"}
	require.NoError(t, s.CreateUser(ctx, &anna))
	require.NoError(t, s.CreateUser(ctx, &boris))

	cat := s.AddCategory("Breakfast")
	sweet := s.AddTag("Sweet", "sweet")
	quick := s.AddTag("Quick", "quick")

	recipes := []domain.Recipe{
		{Title: "one", Slug: "one", AuthorID: anna.ID, IsPublished: true, CategoryID: sql.NullInt64{Int64: cat.ID, Valid: true}, TagIDs: []int64{quick.ID, sweet.ID}},
		{Title: "two", Slug: "two", AuthorID: anna.ID, IsPublished: false},
		{Title: "three", Slug: "three", AuthorID: boris.ID, IsPublished: true, TagIDs: []int64{quick.ID}},
	}
	for i := range recipes {
		require.NoError(t, s.CreateRecipe(ctx, &recipes[i]))
	}
	return s, anna, boris
}

func titles(recipes []domain.Recipe) []string {
	out := make([]string, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.Title)
	}
	return out
}

func TestListRecipes_Predicates(t *testing.T) {
	s, anna, _ := seed(t)
	ctx := context.Background()

	cases := []struct {
		name string
		spec *query.Spec
		want []string
	}{
		{"published", query.New().Where(query.Eq(query.FieldPublished, true)), []string{"one", "three"}},
		{"author", query.New().Where(query.Eq(query.FieldAuthor, anna.ID)), []string{"one", "two"}},
		{"category", query.New().Where(query.Eq(query.FieldCategory, int64(1))), []string{"one"}},
		{"tags intersect", query.New().Where(query.In(query.FieldTag, []int64{2})), []string{"one", "three"}},
		{"id in", query.New().Where(query.In(query.FieldID, []int64{2, 3})), []string{"two", "three"}},
		{"published or own", query.New().Where(query.Or(
			query.Eq(query.FieldPublished, true),
			query.Eq(query.FieldAuthor, anna.ID),
		)), []string{"one", "two", "three"}},
		{"ordered desc", query.New().Order(query.FieldID, true), []string{"three", "two", "one"}},
		{"window", query.New().Order(query.FieldID, true).Window(1, 1), []string{"two"}},
		{"window past end", query.New().Window(10, 10), []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListRecipes(ctx, *tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(got))
		})
	}
}

func TestListRecipes_BadPredicate(t *testing.T) {
	s, _, _ := seed(t)

	_, err := s.ListRecipes(context.Background(), *query.New().Where(query.Eq(query.FieldAuthor, "anna")))
	assert.Error(t, err)

	_, err = s.CountRecipes(context.Background(), *query.New().Where(query.Eq("rating", int64(5))))
	assert.Error(t, err)
}

func TestFindRecipe_Decorates(t *testing.T) {
	s, _, _ := seed(t)
	ctx := context.Background()

	spec := query.New().
		Where(query.Eq(query.FieldID, int64(1))).
		With(query.JoinAuthor, query.JoinCategory).
		Preload(query.PrefetchTags)

	r, err := s.FindRecipe(ctx, *spec)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Anna Petrova (anna)", r.AuthorFullName())
	assert.Equal(t, "Breakfast", r.CategoryName.String)
	assert.Equal(t, []int64{1, 2}, r.TagIDs)
	assert.Equal(t, "sweet", r.Tags[0].Slug)

	bare, err := s.FindRecipe(ctx, *query.New().Where(query.Eq(query.FieldID, int64(1))))
	require.NoError(t, err)
	assert.Empty(t, bare.AuthorUsername)
	assert.Nil(t, bare.Tags)

	missing, err := s.FindRecipe(ctx, *query.New().Where(query.Eq(query.FieldID, int64(42))))
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateRecipe_Version(t *testing.T) {
	s, _, boris := seed(t)
	ctx := context.Background()

	r, err := s.FindRecipe(ctx, *query.New().Where(query.Eq(query.FieldID, int64(1))))
	require.NoError(t, err)

	r.Title = "one, revised"
	r.AuthorID = boris.ID
	require.NoError(t, s.UpdateRecipe(ctx, r, 1))
	assert.Equal(t, int64(2), r.Version)
	assert.NotEqual(t, boris.ID, r.AuthorID, "author is immutable")

	r.Title = "stale write"
	assert.ErrorIs(t, s.UpdateRecipe(ctx, r, 1), domain.ErrConflict)

	missing := domain.Recipe{ID: 99}
	assert.ErrorIs(t, s.UpdateRecipe(ctx, &missing, 1), domain.ErrConflict)
}

func TestCreateRecipe_Constraints(t *testing.T) {
	s, anna, _ := seed(t)
	ctx := context.Background()

	assert.Error(t, s.CreateRecipe(ctx, &domain.Recipe{Slug: "one", AuthorID: anna.ID}))
	assert.Error(t, s.CreateRecipe(ctx, &domain.Recipe{Slug: "orphan", AuthorID: 404}))
}

func TestDeleteUser_Cascades(t *testing.T) {
	s, anna, _ := seed(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteUser(ctx, anna.ID))

	n, err := s.CountRecipes(ctx, query.Spec{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteTag_HidesFromRecipes(t *testing.T) {
	s, _, _ := seed(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteTag(ctx, 2))

	got, err := s.ListRecipes(ctx, *query.New().Where(query.In(query.FieldTag, []int64{2})))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUsers(t *testing.T) {
	s, anna, _ := seed(t)
	ctx := context.Background()

	taken, err := s.UsernameTaken(ctx, "anna", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.UsernameTaken(ctx, "anna", anna.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = s.EmailTaken(ctx, "ANNA@EXAMPLE.COM", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	ghost := domain.User{ID: 77, Username: "ghost"}
	assert.ErrorIs(t, s.UpdateUser(ctx, &ghost), domain.ErrNotFound)

	u, err := s.GetUserByID(ctx, 77)
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestUpdateTag_UniqueSlug(t *testing.T) {
	s, _, _ := seed(t)
	ctx := context.Background()

	assert.Error(t, s.UpdateTag(ctx, &domain.Tag{ID: 1, Name: "Sweet", Slug: "quick"}))
	assert.ErrorIs(t, s.UpdateTag(ctx, &domain.Tag{ID: 9, Slug: "x"}), domain.ErrNotFound)
	assert.NoError(t, s.UpdateTag(ctx, &domain.Tag{ID: 1, Name: "Candy", Slug: "candy"}))
}

func TestTagSlugTaken(t *testing.T) {
	s, _, _ := seed(t)
	ctx := context.Background()

	taken, err := s.TagSlugTaken(ctx, "quick", 1)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.TagSlugTaken(ctx, "sweet", 1)
	require.NoError(t, err)
	assert.False(t, taken, "own slug")

	taken, err = s.TagSlugTaken(ctx, "unused", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}
