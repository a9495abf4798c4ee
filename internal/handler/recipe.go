package handler

import (
	"bufio"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/GoArmGo/RecipeApp/internal/auth"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/permission"
	"github.com/GoArmGo/RecipeApp/internal/serializer"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

const (
	maxCoverSize       = 10 << 20
	defaultUploadSlots = 5
	msgNoCoverFile     = "No file was submitted."
	msgUploadBusy      = "Upload queue is full, try again later."
)

// RecipeHandler — обработчик HTTP-запросов для работы с рецептами.
type RecipeHandler struct {
	recipeUseCase usecase.RecipeUseCase
	uploadLimiter chan struct{}
	logger        *slog.Logger
}

// NewRecipeHandler создаёт новый экземпляр RecipeHandler.
// limiter ограничивает число одновременных загрузок обложек.
func NewRecipeHandler(uc usecase.RecipeUseCase, limiter chan struct{}, logger *slog.Logger) *RecipeHandler {
	if limiter == nil {
		limiter = make(chan struct{}, defaultUploadSlots)
	}
	return &RecipeHandler{
		recipeUseCase: uc,
		uploadLimiter: limiter,
		logger:        logger,
	}
}

// ListRecipes — GET /recipes
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	page, err := h.recipeUseCase.ListRecipes(r.Context(), r.URL.Query())
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	base := baseURL(r)
	results := make([]serializer.RecipeRecord, 0, len(page.Recipes))
	for _, rec := range page.Recipes {
		results = append(results, serializer.Recipe(rec, base))
	}
	next, previous := serializer.PageLinks(absoluteURL(r), page.Page, page.PageSize, page.Count)

	respondWithJSON(w, http.StatusOK, serializer.Page[serializer.RecipeRecord]{
		Count:    page.Count,
		Next:     next,
		Previous: previous,
		Results:  results,
	}, h.logger)
}

// GetRecipe — GET /recipes/{id}
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, detailNotFound, h.logger)
		return
	}

	recipe, err := h.recipeUseCase.GetRecipe(r.Context(), auth.ActorFrom(r.Context()), id)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	h.respondWithRecipe(w, r, http.StatusOK, recipe)
}

// CreateRecipe — POST /recipes
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	input, err := decodeObject(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	recipe, err := h.recipeUseCase.CreateRecipe(r.Context(), auth.ActorFrom(r.Context()), input)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Location", "/recipes/"+strconv.FormatInt(recipe.ID, 10))
	h.respondWithRecipe(w, r, http.StatusCreated, recipe)
}

// UpdateRecipe — PATCH /recipes/{id}. Заголовок If-Match фиксирует ожидаемую версию.
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, detailNotFound, h.logger)
		return
	}
	ifMatch, ok := parseIfMatch(r.Header.Get("If-Match"))
	if !ok {
		respondWithJSON(w, http.StatusBadRequest, map[string][]string{"If-Match": {"must be a recipe version"}}, h.logger)
		return
	}
	input, err := decodeObject(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	recipe, err := h.recipeUseCase.UpdateRecipe(r.Context(), auth.ActorFrom(r.Context()), id, input, ifMatch)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	h.respondWithRecipe(w, r, http.StatusOK, recipe)
}

// DeleteRecipe — DELETE /recipes/{id}
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, detailNotFound, h.logger)
		return
	}

	if err := h.recipeUseCase.DeleteRecipe(r.Context(), auth.ActorFrom(r.Context()), id); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadCover — PUT /recipes/{id}/cover, multipart-поле "cover".
func (h *RecipeHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, detailNotFound, h.logger)
		return
	}

	// анонимный запрос не должен занимать слот и читать тело
	actor := auth.ActorFrom(r.Context())
	if err := permission.Check(permission.Recipe, http.MethodPut, actor).Err(); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	select {
	case h.uploadLimiter <- struct{}{}:
		defer func() { <-h.uploadLimiter }()
	default:
		h.logger.Warn("cover upload rejected, all slots busy", "recipe_id", id)
		respondWithError(w, http.StatusServiceUnavailable, msgUploadBusy, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize)
	file, _, err := r.FormFile("cover")
	if err != nil {
		h.logger.Warn("cover upload without file", "recipe_id", id, "error", err)
		respondWithJSON(w, http.StatusBadRequest, map[string][]string{"cover": {msgNoCoverFile}}, h.logger)
		return
	}
	defer file.Close()

	// тип определяется по содержимому, а не по заголовку клиента
	buffered := bufio.NewReaderSize(file, 512)
	head, _ := buffered.Peek(512)
	contentType := http.DetectContentType(head)

	recipe, err := h.recipeUseCase.UploadCover(r.Context(), actor, id, buffered, contentType)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	h.respondWithRecipe(w, r, http.StatusOK, recipe)
}

func (h *RecipeHandler) respondWithRecipe(w http.ResponseWriter, r *http.Request, code int, recipe *domain.Recipe) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(recipe.Version, 10)))
	respondWithJSON(w, code, serializer.Recipe(*recipe, baseURL(r)), h.logger)
}

// parseIfMatch: пустой заголовок и "*" означают "без проверки версии" (0).
func parseIfMatch(header string) (int64, bool) {
	v := strings.TrimSpace(header)
	if v == "" || v == "*" {
		return 0, true
	}
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	version, err := strconv.ParseInt(v, 10, 64)
	if err != nil || version <= 0 {
		return 0, false
	}
	return version, true
}
