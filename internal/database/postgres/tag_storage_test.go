package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTagStorageWithMock(t *testing.T) (*GormTagStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := OpenGorm(db, logger.Discard())
	require.NoError(t, err)
	return NewGormTagStorage(gdb, logger.Discard()), mock
}

func TestGetTag(t *testing.T) {
	s, mock := newTagStorageWithMock(t)

	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}).AddRow(int64(3), "Sweet", "sweet"))

	tag, err := s.GetTag(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, domain.Tag{ID: 3, Name: "Sweet", Slug: "sweet"}, *tag)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTag_NotFound(t *testing.T) {
	s, mock := newTagStorageWithMock(t)

	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}))

	tag, err := s.GetTag(context.Background(), 3)
	assert.NoError(t, err)
	assert.Nil(t, tag)
}

func TestGetTagsByIDs(t *testing.T) {
	s, mock := newTagStorageWithMock(t)

	tags, err := s.GetTagsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tags)

	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE id IN \(\$1,\$2\) ORDER BY id`).
		WithArgs(int64(1), int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}).
			AddRow(int64(1), "Sweet", "sweet").
			AddRow(int64(4), "Quick", "quick"))

	tags, err = s.GetTagsByIDs(context.Background(), []int64{1, 4})
	require.NoError(t, err)
	assert.Len(t, tags, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTag(t *testing.T) {
	s, mock := newTagStorageWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tags" SET "name"=\$1,"slug"=\$2 WHERE id = \$3`).
		WithArgs("Desserts", "desserts", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.UpdateTag(context.Background(), &domain.Tag{ID: 3, Name: "Desserts", Slug: "desserts"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTag_NotFound(t *testing.T) {
	s, mock := newTagStorageWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tags"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.UpdateTag(context.Background(), &domain.Tag{ID: 9, Name: "x", Slug: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTagSlugTaken(t *testing.T) {
	s, mock := newTagStorageWithMock(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "tags" WHERE slug = \$1 AND id <> \$2`).
		WithArgs("vegan", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tags"`).
		WithArgs("quick", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	taken, err := s.TagSlugTaken(context.Background(), "vegan", 2)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.TagSlugTaken(context.Background(), "quick", 2)
	require.NoError(t, err)
	assert.False(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCategories(t *testing.T) {
	s, mock := newTagStorageWithMock(t)

	mock.ExpectQuery(`SELECT \* FROM "categories" ORDER BY name`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(2), "Breakfast").
			AddRow(int64(1), "Soups"))

	categories, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Breakfast", categories[0].Name)
}
