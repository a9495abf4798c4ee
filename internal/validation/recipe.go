// Package validation содержит правила проверки входных данных рецептов и авторов.
package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/GoArmGo/RecipeApp/internal/domain"
)

const (
	MsgTooShort               = "Must have at least 5 chars."
	MsgNotPositive            = "Must be a positive number"
	MsgTitleEqualsDescription = "Cannot be equal to description"
	MsgDescriptionEqualsTitle = "Cannot be equal to title"

	minTitleLength = 5
)

// Backfill дополняет candidate значениями из prior для всех отсутствующих ключей.
// Ключ с явным nil считается присутствующим. Исходные карты не изменяются.
func Backfill(candidate, prior map[string]any) map[string]any {
	merged := make(map[string]any, len(candidate)+len(prior))
	for k, v := range prior {
		merged[k] = v
	}
	for k, v := range candidate {
		merged[k] = v
	}
	return merged
}

// ValidateRecipe проверяет запись рецепта. При обновлении prior содержит сохранённую запись,
// иначе nil. Все правила выполняются независимо, нарушения накапливаются.
func ValidateRecipe(candidate, prior map[string]any) error {
	data := candidate
	if prior != nil {
		data = Backfill(candidate, prior)
	}

	verr := domain.NewValidationError()
	checkTitle(data, verr)
	checkPositive(data, "servings", verr)
	checkPositive(data, "preparation_time", verr)
	checkTitleDescription(data, verr)

	return verr.OrNil()
}

func checkTitle(data map[string]any, verr *domain.ValidationError) {
	title := stringValue(data["title"])
	if utf8.RuneCountInString(title) < minTitleLength {
		verr.Add("title", MsgTooShort)
	}
}

func checkPositive(data map[string]any, field string, verr *domain.ValidationError) {
	if !IsPositiveNumber(data[field]) {
		verr.Add(field, MsgNotPositive)
	}
}

// сравнение точное: регистр и пробелы имеют значение
func checkTitleDescription(data map[string]any, verr *domain.ValidationError) {
	if sameValue(data["title"], data["description"]) {
		verr.Add("title", MsgTitleEqualsDescription)
		verr.Add("description", MsgDescriptionEqualsTitle)
	}
}

func sameValue(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	return aok && bok && as == bs
}

// IsPositiveNumber сообщает, разбирается ли значение как число больше нуля.
// Принимает числа JSON (float64, json.Number), целые Go и строки.
func IsPositiveNumber(v any) bool {
	n, ok := toFloat(v)
	return ok && n > 0
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// stringValue приводит значение к строке; nil превращается в пустую строку.
func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
