package serializer

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestPageLinks(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		page     int
		count    int
		next     string
		previous string
	}{
		{"first of three", "http://api/recipes", 1, 120, "http://api/recipes?page=2", ""},
		{"middle", "http://api/recipes?page=2", 2, 120, "http://api/recipes?page=3", "http://api/recipes"},
		{"last", "http://api/recipes?page=3", 3, 120, "", "http://api/recipes?page=2"},
		{"past the end", "http://api/recipes?page=9", 9, 120, "", "http://api/recipes?page=3"},
		{"empty", "http://api/recipes", 1, 0, "", ""},
		{"keeps filters", "http://api/recipes?category_id=3&page=1", 1, 51, "http://api/recipes?category_id=3&page=2", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, previous := PageLinks(mustURL(t, tc.url), tc.page, 50, tc.count)

			if tc.next == "" {
				assert.Nil(t, next)
			} else {
				require.NotNil(t, next)
				assert.Equal(t, tc.next, *next)
			}
			if tc.previous == "" {
				assert.Nil(t, previous)
			} else {
				require.NotNil(t, previous)
				assert.Equal(t, tc.previous, *previous)
			}
		})
	}
}

func TestPageLinks_RepeatedParams(t *testing.T) {
	next, _ := PageLinks(mustURL(t, "http://api/recipes?tags_ids=1&tags_ids=2"), 1, 1, 2)

	require.NotNil(t, next)
	u := mustURL(t, *next)
	assert.Equal(t, []string{"1", "2"}, u.Query()["tags_ids"])
	assert.Equal(t, "2", u.Query().Get("page"))
}
