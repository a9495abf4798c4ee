package usecase

import (
	"net/url"
	"strconv"

	"github.com/GoArmGo/RecipeApp/internal/core/query"
	"github.com/GoArmGo/RecipeApp/internal/domain"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	paramCategory = "category_id"
	paramAuthor   = "author_id"
	paramTags     = "tags_ids"
	paramPage     = "page"
	paramPageSize = "page_size"

	msgNotIntegerParam = "must be a non-negative integer"

	// страницы дальше этой заведомо пусты; ограничение не даёт переполнить смещение
	maxPageNumber = 1 << 24
)

// Pagination задаёт размер страницы по умолчанию и верхнюю границу.
type Pagination struct {
	DefaultPageSize int
	MaxPageSize     int
}

func (p Pagination) normalized() Pagination {
	if p.DefaultPageSize <= 0 {
		p.DefaultPageSize = DefaultPageSize
	}
	if p.MaxPageSize <= 0 {
		p.MaxPageSize = MaxPageSize
	}
	if p.DefaultPageSize > p.MaxPageSize {
		p.DefaultPageSize = p.MaxPageSize
	}
	return p
}

// listRequest — разобранные параметры списка рецептов.
type listRequest struct {
	spec     query.Spec
	page     int
	pageSize int
}

// baseRecipeSpec: опубликованные рецепты, новые первыми, с автором, категорией и тегами.
func baseRecipeSpec() *query.Spec {
	return query.New().
		Where(query.Eq(query.FieldPublished, true)).
		With(query.JoinAuthor, query.JoinCategory).
		Preload(query.PrefetchTags).
		Order(query.FieldID, true)
}

// parseListRequest проверяет фильтры и строит спецификацию выборки.
// Нечисловые идентификаторы дают InvalidParameterError; некорректные page/page_size
// заменяются значениями по умолчанию.
func parseListRequest(params url.Values, p Pagination) (*listRequest, error) {
	p = p.normalized()
	spec := baseRecipeSpec()

	if raw, ok := firstValue(params, paramCategory); ok {
		id, err := parseID(paramCategory, raw)
		if err != nil {
			return nil, err
		}
		spec.Where(query.Eq(query.FieldCategory, id))
	}

	if raw, ok := firstValue(params, paramAuthor); ok {
		id, err := parseID(paramAuthor, raw)
		if err != nil {
			return nil, err
		}
		spec.Where(query.Eq(query.FieldAuthor, id))
	}

	if raws, ok := params[paramTags]; ok && len(raws) > 0 {
		ids := make([]int64, 0, len(raws))
		for _, raw := range raws {
			id, err := parseID(paramTags, raw)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		spec.Where(query.In(query.FieldTag, ids))
	}

	page := positiveOr(params.Get(paramPage), 1)
	if page > maxPageNumber {
		page = maxPageNumber
	}
	pageSize := positiveOr(params.Get(paramPageSize), p.DefaultPageSize)
	if pageSize > p.MaxPageSize {
		pageSize = p.MaxPageSize
	}

	spec.Window(pageSize, (page-1)*pageSize)
	return &listRequest{spec: *spec, page: page, pageSize: pageSize}, nil
}

func firstValue(params url.Values, key string) (string, bool) {
	vals, ok := params[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// parseID принимает только строку из десятичных цифр.
func parseID(param, raw string) (int64, error) {
	if raw == "" {
		return 0, &domain.InvalidParameterError{Param: param, Message: msgNotIntegerParam}
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, &domain.InvalidParameterError{Param: param, Message: msgNotIntegerParam}
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &domain.InvalidParameterError{Param: param, Message: msgNotIntegerParam}
	}
	return id, nil
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
