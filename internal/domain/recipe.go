package domain

import (
	"database/sql"
	"fmt"
	"time"
)

// Recipe представляет модель рецепта,
// соответствует таблице recipes в бд.
// Поля Author* и CategoryName заполняются хранилищем только при соответствующих join-подсказках.
type Recipe struct {
	ID                  int64         `json:"id" db:"id"`
	Title               string        `json:"title" db:"title"`
	Description         string        `json:"description" db:"description"`
	Slug                string        `json:"slug" db:"slug"`
	PreparationTime     int           `json:"preparation_time" db:"preparation_time"`
	PreparationTimeUnit string        `json:"preparation_time_unit" db:"preparation_time_unit"`
	Servings            int           `json:"servings" db:"servings"`
	ServingsUnit        string        `json:"servings_unit" db:"servings_unit"`
	PreparationSteps    string        `json:"preparation_steps" db:"preparation_steps"`
	IsPublished         bool          `json:"is_published" db:"is_published"`
	Cover               string        `json:"cover" db:"cover"`
	CoverKey            string        `json:"-" db:"cover_key"`
	CategoryID          sql.NullInt64 `json:"category_id" db:"category_id"`
	AuthorID            int64         `json:"author_id" db:"author_id"`
	Version             int64         `json:"version" db:"version"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`

	AuthorUsername  string         `json:"-" db:"author_username"`
	AuthorFirstName string         `json:"-" db:"author_first_name"`
	AuthorLastName  string         `json:"-" db:"author_last_name"`
	CategoryName    sql.NullString `json:"-" db:"category_name"`

	Tags   []Tag   `json:"tags,omitempty" db:"-"`
	TagIDs []int64 `json:"-" db:"-"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// AuthorFullName повторяет аннотацию списка рецептов: "first last (username)".
func (r Recipe) AuthorFullName() string {
	return FullName(r.AuthorFirstName, r.AuthorLastName, r.AuthorUsername)
}

// PreparationDisplay форматирует время приготовления.
// При времени, равном 1, у единицы измерения отрезается последний символ ("minutes" -> "minute").
func (r Recipe) PreparationDisplay() string {
	unit := r.PreparationTimeUnit
	if r.PreparationTime == 1 && unit != "" {
		runes := []rune(unit)
		unit = string(runes[:len(runes)-1])
	}
	return fmt.Sprintf("%d %s", r.PreparationTime, unit)
}

// Category — категория рецептов (только чтение с точки зрения ядра).
type Category struct {
	ID   int64  `json:"id" db:"id" gorm:"primaryKey"`
	Name string `json:"name" db:"name"`
}

func (Category) TableName() string {
	return "categories"
}

// Tag представляет модель тега,
// соответствует таблице tags в бд.
type Tag struct {
	ID   int64  `json:"id" db:"id" gorm:"primaryKey"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

func (Tag) TableName() string {
	return "tags"
}
