package serializer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/GoArmGo/RecipeApp/internal/domain"
)

const (
	maxTagName = 255
	maxTagSlug = 255

	msgBlank       = "This field may not be blank."
	msgTagNameLong = "Ensure this field has no more than 255 characters."
	msgSlugInvalid = "Enter a valid \"slug\" consisting of letters, numbers, underscores or hyphens."
)

// TagInput — входная запись тега для PATCH. Незаданные поля сохраняют текущие значения.
type TagInput struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

// CategoryRecord — категория в ответе API.
type CategoryRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func Category(c domain.Category) CategoryRecord {
	return CategoryRecord{ID: c.ID, Name: c.Name}
}

// ApplyTo проверяет заданные поля и переносит их в тег.
func (in TagInput) ApplyTo(t *domain.Tag) *domain.ValidationError {
	verr := domain.NewValidationError()

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			verr.Add("name", msgBlank)
		case utf8.RuneCountInString(name) > maxTagName:
			verr.Add("name", msgTagNameLong)
		default:
			t.Name = name
		}
	}

	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		switch {
		case slug == "":
			verr.Add("slug", msgBlank)
		case utf8.RuneCountInString(slug) > maxTagSlug || !isSlug(slug):
			verr.Add("slug", msgSlugInvalid)
		default:
			t.Slug = slug
		}
	}
	return verr
}

func isSlug(s string) bool {
	for _, r := range s {
		if r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
