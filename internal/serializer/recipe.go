// Package serializer переводит сущности хранилища в записи API и обратно.
package serializer

import (
	"database/sql"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/validation"
)

const (
	msgNotString  = "Not a valid string."
	msgNotInteger = "A valid integer is required."
	msgNotBool    = "Must be a valid boolean."
	msgNotPK      = "Incorrect type. Expected pk value."
	msgNotList    = "Expected a list of items."

	maxTitleLength = 255
	maxUnitLength  = 64
)

// Ключи входной записи рецепта. Остальные ключи (author, id, ...) игнорируются.
var recipeWritableFields = []string{
	"title", "description",
	"preparation_time", "preparation_time_unit",
	"servings", "servings_unit",
	"preparation_steps", "public", "category", "tags",
}

// TagRecord: тег в ответе API.
type TagRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// RecipeRecord — рецепт в ответе API.
type RecipeRecord struct {
	ID                  int64       `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	Author              int64       `json:"author"`
	AuthorFullName      string      `json:"author_full_name"`
	Public              bool        `json:"public"`
	PreparationDisplay  string      `json:"preparation_display"`
	PreparationTime     int         `json:"preparation_time"`
	PreparationTimeUnit string      `json:"preparation_time_unit"`
	Servings            int         `json:"servings"`
	ServingsUnit        string      `json:"servings_unit"`
	PreparationSteps    string      `json:"preparation_steps"`
	Category            *int64      `json:"category"`
	CategoryName        *string     `json:"category_name"`
	Tags                []int64     `json:"tags"`
	TagsObjects         []TagRecord `json:"tags_objects"`
	TagsLinks           []string    `json:"tags_links"`
	Cover               *string     `json:"cover"`
}

func Tag(t domain.Tag) TagRecord {
	return TagRecord{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

// TagLink строит абсолютную ссылку на тег. baseURL без завершающего слэша, например "http://host".
func TagLink(baseURL string, id int64) string {
	return strings.TrimRight(baseURL, "/") + "/tags/" + strconv.FormatInt(id, 10)
}

// Recipe строит запись API. Рецепт должен быть загружен с join автора и категории и с тегами.
func Recipe(r domain.Recipe, baseURL string) RecipeRecord {
	rec := RecipeRecord{
		ID:                  r.ID,
		Title:               r.Title,
		Description:         r.Description,
		Author:              r.AuthorID,
		AuthorFullName:      r.AuthorFullName(),
		Public:              r.IsPublished,
		PreparationDisplay:  r.PreparationDisplay(),
		PreparationTime:     r.PreparationTime,
		PreparationTimeUnit: r.PreparationTimeUnit,
		Servings:            r.Servings,
		ServingsUnit:        r.ServingsUnit,
		PreparationSteps:    r.PreparationSteps,
		Tags:                make([]int64, 0, len(r.Tags)),
		TagsObjects:         make([]TagRecord, 0, len(r.Tags)),
		TagsLinks:           make([]string, 0, len(r.Tags)),
	}
	if r.CategoryID.Valid {
		id := r.CategoryID.Int64
		rec.Category = &id
	}
	if r.CategoryName.Valid {
		name := r.CategoryName.String
		rec.CategoryName = &name
	}
	if r.Cover != "" {
		cover := r.Cover
		rec.Cover = &cover
	}
	for _, t := range r.Tags {
		rec.Tags = append(rec.Tags, t.ID)
		rec.TagsObjects = append(rec.TagsObjects, Tag(t))
		rec.TagsLinks = append(rec.TagsLinks, TagLink(baseURL, t.ID))
	}
	return rec
}

// RecipeFields представляет сохранённый рецепт как входную запись:
// именно с ней сливается частичное обновление перед валидацией.
func RecipeFields(r domain.Recipe) map[string]any {
	var category any
	if r.CategoryID.Valid {
		category = r.CategoryID.Int64
	}
	tagIDs := r.TagIDs
	if tagIDs == nil {
		tagIDs = make([]int64, 0, len(r.Tags))
		for _, t := range r.Tags {
			tagIDs = append(tagIDs, t.ID)
		}
	}
	tags := make([]any, 0, len(tagIDs))
	for _, id := range tagIDs {
		tags = append(tags, id)
	}
	return map[string]any{
		"title":                 r.Title,
		"description":           r.Description,
		"preparation_time":      r.PreparationTime,
		"preparation_time_unit": r.PreparationTimeUnit,
		"servings":              r.Servings,
		"servings_unit":         r.ServingsUnit,
		"preparation_steps":     r.PreparationSteps,
		"public":                r.IsPublished,
		"category":              category,
		"tags":                  tags,
	}
}

// WritableRecipeFields оставляет во входной записи только допустимые ключи.
func WritableRecipeFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for _, k := range recipeWritableFields {
		if v, ok := in[k]; ok {
			out[k] = v
		}
	}
	return out
}

// ApplyRecipeFields переносит полную (уже слитую) входную запись в рецепт.
// Ошибки приведения типов возвращаются как ValidationError.
func ApplyRecipeFields(fields map[string]any, r *domain.Recipe) *domain.ValidationError {
	verr := domain.NewValidationError()

	r.Title = asBoundedString(fields, "title", maxTitleLength, verr)
	r.Description = asString(fields, "description", verr)
	r.PreparationTimeUnit = asBoundedString(fields, "preparation_time_unit", maxUnitLength, verr)
	r.ServingsUnit = asBoundedString(fields, "servings_unit", maxUnitLength, verr)
	r.PreparationSteps = asString(fields, "preparation_steps", verr)
	r.PreparationTime = asInt(fields, "preparation_time", verr)
	r.Servings = asInt(fields, "servings", verr)

	switch v := fields["public"].(type) {
	case nil:
		r.IsPublished = false
	case bool:
		r.IsPublished = v
	default:
		verr.Add("public", msgNotBool)
	}

	if v := fields["category"]; v == nil {
		r.CategoryID = sql.NullInt64{}
	} else if id, ok := toID(v); ok {
		r.CategoryID = sql.NullInt64{Int64: id, Valid: true}
	} else {
		verr.Add("category", msgNotPK)
	}

	r.TagIDs = nil
	switch v := fields["tags"].(type) {
	case nil:
		r.TagIDs = []int64{}
	case []any:
		ids := make([]int64, 0, len(v))
		for _, item := range v {
			id, ok := toID(item)
			if !ok {
				verr.Add("tags", msgNotPK)
				continue
			}
			ids = append(ids, id)
		}
		r.TagIDs = dedupe(ids)
	case []int64:
		r.TagIDs = dedupe(v)
	default:
		verr.Add("tags", msgNotList)
	}

	return verr
}

func asString(fields map[string]any, key string, verr *domain.ValidationError) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		verr.Add(key, msgNotString)
		return ""
	}
}

// asBoundedString дополнительно ограничивает длину ширинами столбцов схемы
func asBoundedString(fields map[string]any, key string, max int, verr *domain.ValidationError) string {
	s := asString(fields, key, verr)
	if validation.TooLong(s, max) {
		verr.Add(key, validation.MaxLengthMessage(max))
	}
	return s
}

// asInt отбрасывает только значения, которые нельзя представить целым без потерь.
// Положительность проверяется валидатором, здесь проверяется только тип.
func asInt(fields map[string]any, key string, verr *domain.ValidationError) int {
	f, ok := number(fields[key])
	if !ok {
		// нечисловые значения уже отмечены валидатором
		return 0
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		verr.Add(key, msgNotInteger)
		return 0
	}
	return int(f)
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toID(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, x > 0
	case int:
		return int64(x), x > 0
	case float64:
		if x != math.Trunc(x) || x <= 0 {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		id, err := x.Int64()
		return id, err == nil && id > 0
	case string:
		id, err := strconv.ParseInt(x, 10, 64)
		return id, err == nil && id > 0
	}
	return 0, false
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
