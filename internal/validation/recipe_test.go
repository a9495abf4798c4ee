package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecipe() map[string]any {
	return map[string]any{
		"title":            "Borscht",
		"description":      "Beetroot soup",
		"preparation_time": json.Number("90"),
		"servings":         json.Number("4"),
	}
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "want *domain.ValidationError, got %v", err)
	return verr.Fields
}

func TestValidateRecipe_Valid(t *testing.T) {
	assert.NoError(t, ValidateRecipe(validRecipe(), nil))
}

func TestValidateRecipe_TitleTooShort(t *testing.T) {
	in := validRecipe()
	in["title"] = "Soup"

	fields := fieldErrors(t, ValidateRecipe(in, nil))
	assert.Equal(t, []string{MsgTooShort}, fields["title"])
	assert.Len(t, fields, 1)
}

func TestValidateRecipe_TitleLengthCountsRunes(t *testing.T) {
	in := validRecipe()
	in["title"] = "Щавель"

	assert.NoError(t, ValidateRecipe(in, nil))
}

func TestValidateRecipe_NotPositive(t *testing.T) {
	cases := []struct {
		name  string
		value any
	}{
		{"zero", json.Number("0")},
		{"negative", json.Number("-3")},
		{"float zero", 0.0},
		{"text", "many"},
		{"null", nil},
		{"bool", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validRecipe()
			in["servings"] = tc.value
			in["preparation_time"] = tc.value

			fields := fieldErrors(t, ValidateRecipe(in, nil))
			assert.Equal(t, []string{MsgNotPositive}, fields["servings"])
			assert.Equal(t, []string{MsgNotPositive}, fields["preparation_time"])
		})
	}
}

func TestValidateRecipe_TitleEqualsDescription(t *testing.T) {
	in := validRecipe()
	in["description"] = in["title"]

	fields := fieldErrors(t, ValidateRecipe(in, nil))
	assert.Equal(t, []string{MsgTitleEqualsDescription}, fields["title"])
	assert.Equal(t, []string{MsgDescriptionEqualsTitle}, fields["description"])
}

func TestValidateRecipe_TitleEqualsDescriptionIsExact(t *testing.T) {
	in := validRecipe()
	in["description"] = "borscht"
	assert.NoError(t, ValidateRecipe(in, nil))

	in["description"] = "Borscht "
	assert.NoError(t, ValidateRecipe(in, nil))
}

func TestValidateRecipe_AccumulatesAllViolations(t *testing.T) {
	in := map[string]any{
		"title":            "abc",
		"description":      "abc",
		"preparation_time": json.Number("0"),
		"servings":         json.Number("-1"),
	}

	fields := fieldErrors(t, ValidateRecipe(in, nil))
	assert.Equal(t, []string{MsgTooShort, MsgTitleEqualsDescription}, fields["title"])
	assert.Equal(t, []string{MsgDescriptionEqualsTitle}, fields["description"])
	assert.Contains(t, fields, "preparation_time")
	assert.Contains(t, fields, "servings")
}

func TestValidateRecipe_BackfillsFromPrior(t *testing.T) {
	prior := validRecipe()

	// заголовок отсутствует: берётся из сохранённой записи
	assert.NoError(t, ValidateRecipe(map[string]any{"servings": json.Number("2")}, prior))

	// описание совпадает с сохранённым заголовком
	fields := fieldErrors(t, ValidateRecipe(map[string]any{"description": "Borscht"}, prior))
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "description")
}

func TestValidateRecipe_ExplicitNullIsValidated(t *testing.T) {
	prior := validRecipe()

	fields := fieldErrors(t, ValidateRecipe(map[string]any{"servings": nil}, prior))
	assert.Equal(t, []string{MsgNotPositive}, fields["servings"])
}

func TestBackfill_DoesNotMutateInputs(t *testing.T) {
	candidate := map[string]any{"title": "New title", "servings": nil}
	prior := map[string]any{"title": "Old title", "servings": 3, "description": "d"}

	merged := Backfill(candidate, prior)

	assert.Equal(t, "New title", merged["title"])
	assert.Nil(t, merged["servings"])
	assert.Contains(t, merged, "servings")
	assert.Equal(t, "d", merged["description"])
	assert.Len(t, candidate, 2)
	assert.Equal(t, "Old title", prior["title"])
}

func TestIsPositiveNumber(t *testing.T) {
	assert.True(t, IsPositiveNumber(json.Number("1")))
	assert.True(t, IsPositiveNumber(json.Number("0.5")))
	assert.True(t, IsPositiveNumber(" 12 "))
	assert.True(t, IsPositiveNumber(int64(7)))
	assert.False(t, IsPositiveNumber(json.Number("0")))
	assert.False(t, IsPositiveNumber(""))
	assert.False(t, IsPositiveNumber(nil))
	assert.False(t, IsPositiveNumber([]any{1}))
}
