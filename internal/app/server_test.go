package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/auth"
	"github.com/GoArmGo/RecipeApp/internal/cache"
	"github.com/GoArmGo/RecipeApp/internal/config"
	"github.com/GoArmGo/RecipeApp/internal/database/memory"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/handler"
	"github.com/GoArmGo/RecipeApp/internal/logger"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type memoryFiles struct {
	objects map[string][]byte
}

func (f *memoryFiles) UploadFile(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	return "http://minio.local/recipe-covers/" + key, nil
}

func (f *memoryFiles) DeleteFile(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type apiFixture struct {
	store   *memory.Store
	files   *memoryFiles
	limiter chan struct{}
	router  http.Handler
}

func newAPIFixture(t *testing.T, checks map[string]handler.HealthCheck) *apiFixture {
	t.Helper()
	log := logger.Discard()
	store := memory.New()
	files := &memoryFiles{objects: make(map[string][]byte)}

	deps := Dependencies{
		RecipeUseCase: usecase.NewRecipeUseCase(store, store, store, files, nil, usecase.Pagination{}, log),
		AuthorUseCase: usecase.NewAuthorUseCase(store, log),
		TagUseCase:    usecase.NewTagUseCase(store, store, cache.NopTagCache{}, log),
		Files:         files,
		HealthChecks:  checks,
		UploadLimiter: make(chan struct{}, 1),
	}
	cfg := &config.Config{JWTSecret: testSecret, CORSAllowedOrigins: []string{"*"}}

	return &apiFixture{
		store:   store,
		files:   files,
		limiter: deps.UploadLimiter,
		router:  NewRouter(cfg, deps, log),
	}
}

// author создаёт пользователя напрямую в хранилище и возвращает bearer-токен
func (f *apiFixture) author(t *testing.T, username string, staff bool) (*domain.User, string) {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", FirstName: strings.ToUpper(username[:1]) + username[1:], LastName: "Cook", IsStaff: staff}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	token, err := auth.GenerateToken(u.ID, u.Username, staff, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return u, token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func recipeBody(title string, public bool) map[string]any {
	return map[string]any{
		"title":                 title,
		"description":           "How to cook " + title,
		"preparation_time":      1,
		"preparation_time_unit": "minutes",
		"servings":              2,
		"servings_unit":         "people",
		"preparation_steps":     "Cook.",
		"public":                public,
	}
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	f = newAPIFixture(t, map[string]handler.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	rec = f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode(t, rec)["status"])
}

func TestRegistration(t *testing.T) {
	f := newAPIFixture(t, nil)

	body := map[string]any{
		"username":   "anna",
		"email":      "anna@example.com",
		"first_name": "Anna",
		"last_name":  "Petrova",
		"password":   "correct-horse",
	}
	rec := f.do(t, http.MethodPost, "/authors", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "anna", out["username"])
	assert.NotContains(t, out, "password")
	assert.NotContains(t, rec.Body.String(), "correct-horse")

	rec = f.do(t, http.MethodPost, "/authors", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "username")

	_, token := f.author(t, "boris", false)
	rec = f.do(t, http.MethodPost, "/authors", token, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMe(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, token := f.author(t, "anna", false)

	rec := f.do(t, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anna", decode(t, rec)["username"])

	rec = f.do(t, http.MethodPatch, "/me", token, map[string]any{"last_name": "Ivanova", "id": 999})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "Ivanova", out["last_name"])
	assert.Equal(t, "anna@example.com", out["email"])

	rec = f.do(t, http.MethodPatch, "/me", token, map[string]any{"username": "12345"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/me", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRecipe(t *testing.T) {
	f := newAPIFixture(t, nil)
	anna, token := f.author(t, "anna", false)
	boris, _ := f.author(t, "boris", false)
	sweet := f.store.AddTag("Sweet", "sweet")
	breakfast := f.store.AddCategory("Breakfast")

	body := recipeBody("Pancakes", true)
	body["author"] = boris.ID
	body["category"] = breakfast.ID
	body["tags"] = []int64{sweet.ID}

	rec := f.do(t, http.MethodPost, "/recipes", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = f.do(t, http.MethodPost, "/recipes", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(t, rec)

	assert.Equal(t, fmt.Sprintf("/recipes/%v", out["id"]), rec.Header().Get("Location"))
	assert.Equal(t, `"1"`, rec.Header().Get("ETag"))
	assert.Equal(t, float64(anna.ID), out["author"])
	assert.Equal(t, "Anna Cook (anna)", out["author_full_name"])
	assert.Equal(t, true, out["public"])
	assert.Equal(t, "1 minute", out["preparation_display"])
	assert.Equal(t, "Breakfast", out["category_name"])
	assert.Equal(t, []any{fmt.Sprintf("http://example.com/tags/%d", sweet.ID)}, out["tags_links"])
	assert.Nil(t, out["cover"])
}

func TestCreateRecipe_BadBodies(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, token := f.author(t, "anna", false)

	rec := f.do(t, http.MethodPost, "/recipes", token, "{broken")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "JSON parse error")

	rec = f.do(t, http.MethodPost, "/recipes", token, "[1, 2]")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid data: expected a JSON object, got list", decode(t, rec)["detail"])

	body := recipeBody("Soup", true)
	body["description"] = "Soup"
	body["servings"] = 0
	rec = f.do(t, http.MethodPost, "/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := decode(t, rec)
	assert.Contains(t, out, "title")
	assert.Contains(t, out, "description")
	assert.Contains(t, out, "servings")
}

func TestFieldLengthLimits(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, token := f.author(t, "anna", false)

	body := recipeBody(strings.Repeat("t", 300), true)
	body["servings_unit"] = strings.Repeat("p", 65)
	rec := f.do(t, http.MethodPost, "/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, []any{"Ensure this field has no more than 255 characters."}, out["title"])
	assert.Equal(t, []any{"Ensure this field has no more than 64 characters."}, out["servings_unit"])

	rec = f.do(t, http.MethodPatch, "/me", token, map[string]any{"first_name": strings.Repeat("a", 200)})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, []any{"Ensure this field has no more than 150 characters."}, decode(t, rec)["first_name"])
}

func TestListRecipes(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, token := f.author(t, "anna", false)
	for i := 0; i < 120; i++ {
		rec := f.do(t, http.MethodPost, "/recipes", token, recipeBody(fmt.Sprintf("Recipe %03d", i), true))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodGet, "/recipes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, float64(120), out["count"])
	assert.Len(t, out["results"], 50)
	assert.Equal(t, "http://example.com/recipes?page=2", out["next"])
	assert.Nil(t, out["previous"])

	rec = f.do(t, http.MethodGet, "/recipes?page=3", "", nil)
	out = decode(t, rec)
	assert.Len(t, out["results"], 20)
	assert.Nil(t, out["next"])
	assert.Equal(t, "http://example.com/recipes?page=2", out["previous"])

	rec = f.do(t, http.MethodGet, "/recipes?page_size=150", "", nil)
	out = decode(t, rec)
	assert.Len(t, out["results"], 100)

	rec = f.do(t, http.MethodGet, "/recipes?page=50", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["results"])

	rec = f.do(t, http.MethodGet, "/recipes?category_id=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "category_id")
}

func TestUpdateAndDeleteRecipe(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, annaToken := f.author(t, "anna", false)
	_, borisToken := f.author(t, "boris", false)

	rec := f.do(t, http.MethodPost, "/recipes", annaToken, recipeBody("Pancakes", true))
	require.Equal(t, http.StatusCreated, rec.Code)
	path := fmt.Sprintf("/recipes/%v", decode(t, rec)["id"])

	rec = f.do(t, http.MethodPatch, path, borisToken, map[string]any{"servings": 3})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPatch, path, annaToken, map[string]any{"servings": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `"2"`, rec.Header().Get("ETag"))
	out := decode(t, rec)
	assert.Equal(t, float64(3), out["servings"])
	assert.Equal(t, "Pancakes", out["title"])

	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"servings": 4}`))
	req.Header.Set("Authorization", "Bearer "+annaToken)
	req.Header.Set("If-Match", `"1"`)
	stale := httptest.NewRecorder()
	f.router.ServeHTTP(stale, req)
	assert.Equal(t, http.StatusConflict, stale.Code)

	req = httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"servings": 4}`))
	req.Header.Set("Authorization", "Bearer "+annaToken)
	req.Header.Set("If-Match", "latest")
	bad := httptest.NewRecorder()
	f.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	rec = f.do(t, http.MethodDelete, path, borisToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, path, annaToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftVisibility(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, annaToken := f.author(t, "anna", false)
	_, borisToken := f.author(t, "boris", false)

	rec := f.do(t, http.MethodPost, "/recipes", annaToken, recipeBody("Secret stew", false))
	require.Equal(t, http.StatusCreated, rec.Code)
	path := fmt.Sprintf("/recipes/%v", decode(t, rec)["id"])

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, path, annaToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, borisToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, path, borisToken, map[string]any{"servings": 1}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/recipes/not-a-number", "", nil).Code)

	rec = f.do(t, http.MethodGet, "/recipes", "", nil)
	assert.Equal(t, float64(0), decode(t, rec)["count"])
}

func uploadRequest(t *testing.T, path, token string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if content != nil {
		part, err := mw.CreateFormFile("cover", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadCover(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, token := f.author(t, "anna", false)

	rec := f.do(t, http.MethodPost, "/recipes", token, recipeBody("Pancakes", true))
	require.Equal(t, http.StatusCreated, rec.Code)
	path := fmt.Sprintf("/recipes/%v/cover", decode(t, rec)["id"])

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, uploadRequest(t, path, token, png))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cover, _ := decode(t, rec)["cover"].(string)
	assert.True(t, strings.HasPrefix(cover, "http://minio.local/recipe-covers/recipes/"), cover)
	assert.Len(t, f.files.objects, 1)

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, uploadRequest(t, path, token, []byte("just some text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "cover")

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, uploadRequest(t, path, token, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadCover_AnonymousAndBusy(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, token := f.author(t, "anna", false)

	rec := f.do(t, http.MethodPost, "/recipes", token, recipeBody("Pancakes", true))
	require.Equal(t, http.StatusCreated, rec.Code)
	path := fmt.Sprintf("/recipes/%v/cover", decode(t, rec)["id"])
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	// все слоты заняты: анонимный запрос всё равно получает 401, а не ждёт
	f.limiter <- struct{}{}
	anon := uploadRequest(t, path, "", png)
	anon.Header.Del("Authorization")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, anon)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := uploadRequest(t, path, token, png)
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		busy := httptest.NewRecorder()
		f.router.ServeHTTP(busy, req)
		done <- busy
	}()
	select {
	case busy := <-done:
		assert.Equal(t, http.StatusServiceUnavailable, busy.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("upload blocked on a saturated limiter")
	}
	assert.Empty(t, f.files.objects)

	<-f.limiter
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, uploadRequest(t, path, token, png))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestTags(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, userToken := f.author(t, "anna", false)
	_, staffToken := f.author(t, "moderator", true)
	sweet := f.store.AddTag("Sweet", "sweet")
	f.store.AddCategory("Breakfast")
	path := fmt.Sprintf("/tags/%d", sweet.ID)

	rec := f.do(t, http.MethodGet, "/tags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"sweet"`)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/tags/999", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/categories", "", nil).Code)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPatch, path, "", map[string]any{"name": "Candy"}).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPatch, path, userToken, map[string]any{"name": "Candy"}).Code)

	rec = f.do(t, http.MethodPatch, path, staffToken, map[string]any{"name": "Candy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "candy", decode(t, rec)["slug"])

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, path, userToken, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path, staffToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, path, staffToken, nil).Code)
}

func TestUpdateTag_SlugConflict(t *testing.T) {
	f := newAPIFixture(t, nil)
	_, staffToken := f.author(t, "moderator", true)
	f.store.AddTag("vegan", "vegan")
	quick := f.store.AddTag("quick", "quick")
	path := fmt.Sprintf("/tags/%d", quick.ID)

	rec := f.do(t, http.MethodPatch, path, staffToken, map[string]any{"name": "Vegan"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec), "slug")

	rec = f.do(t, http.MethodPatch, path, staffToken, map[string]any{"slug": "vegan"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"slug": []any{"tag with this slug already exists."}}, decode(t, rec))

	rec = f.do(t, http.MethodPatch, path, staffToken, map[string]any{"name": "!!!"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec), "name")
}

func TestInvalidToken(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/recipes", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
