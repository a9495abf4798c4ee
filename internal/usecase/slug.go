package usecase

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const maxSlugBase = 60

// slugify переводит строку в нижний регистр и заменяет всё, кроме букв и цифр, дефисами.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")

	runes := []rune(out)
	if len(runes) > maxSlugBase {
		out = strings.TrimRight(string(runes[:maxSlugBase]), "-")
	}
	return out
}

// recipeSlug добавляет к slug заголовка короткий случайный суффикс, чтобы одинаковые заголовки не конфликтовали.
func recipeSlug(title string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	base := slugify(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
