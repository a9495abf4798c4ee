// Package query описывает спецификацию выборки рецептов, не зависящую от конкретного хранилища.
// Хранилища (postgres, memory) сами переводят спецификацию в свой язык запросов.
package query

// Field — поле рецепта, по которому можно фильтровать или сортировать.
type Field string

const (
	FieldID        Field = "id"
	FieldPublished Field = "is_published"
	FieldCategory  Field = "category_id"
	FieldAuthor    Field = "author_id"
	FieldTag       Field = "tag_id"
)

type Op int

const (
	OpEq Op = iota
	// OpIn: значение поля входит в список (для FieldTag это пересечение набора тегов рецепта со списком).
	OpIn
)

// Predicate: одно условие. Если задан AnyOf, условие истинно, когда истинно хотя бы одно из вложенных.
type Predicate struct {
	Field Field
	Op    Op
	Value any
	AnyOf []Predicate
}

// Eq создаёт условие равенства.
func Eq(field Field, value any) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: value}
}

// In создаёт условие вхождения в список идентификаторов.
func In(field Field, ids []int64) Predicate {
	return Predicate{Field: field, Op: OpIn, Value: ids}
}

// Or объединяет условия через ИЛИ.
func Or(preds ...Predicate) Predicate {
	return Predicate{AnyOf: preds}
}

// Join: подсказка хранилищу присоединить связанные данные той же выборкой.
type Join string

const (
	JoinAuthor   Join = "author"
	JoinCategory Join = "category"
)

// Prefetch: связанные данные, которые загружаются отдельным пакетным запросом на всю страницу.
type Prefetch string

const PrefetchTags Prefetch = "tags"

type Order struct {
	Field Field
	Desc  bool
}

// Spec — полное описание выборки: условия (объединяются через И), подсказки join/prefetch,
// сортировка и окно пагинации. Limit == 0 означает "без ограничения".
type Spec struct {
	Predicates []Predicate
	Joins      []Join
	Prefetch   []Prefetch
	OrderBy    []Order
	Limit      int
	Offset     int
}

func New() *Spec {
	return &Spec{}
}

func (s *Spec) Where(preds ...Predicate) *Spec {
	s.Predicates = append(s.Predicates, preds...)
	return s
}

func (s *Spec) With(joins ...Join) *Spec {
	s.Joins = append(s.Joins, joins...)
	return s
}

func (s *Spec) Preload(p ...Prefetch) *Spec {
	s.Prefetch = append(s.Prefetch, p...)
	return s
}

func (s *Spec) Order(field Field, desc bool) *Spec {
	s.OrderBy = append(s.OrderBy, Order{Field: field, Desc: desc})
	return s
}

func (s *Spec) Window(limit, offset int) *Spec {
	s.Limit = limit
	s.Offset = offset
	return s
}

func (s Spec) HasJoin(j Join) bool {
	for _, x := range s.Joins {
		if x == j {
			return true
		}
	}
	return false
}

func (s Spec) HasPrefetch(p Prefetch) bool {
	for _, x := range s.Prefetch {
		if x == p {
			return true
		}
	}
	return false
}

// Unpaged возвращает копию спецификации без окна и сортировки, для подсчёта общего количества.
func (s Spec) Unpaged() Spec {
	s.Limit = 0
	s.Offset = 0
	s.OrderBy = nil
	s.Prefetch = nil
	return s
}
