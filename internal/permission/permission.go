// Package permission решает, может ли участник выполнить запрос к ресурсу.
//
// Проверка идёт в два этапа: сначала на уровне запроса (класс метода и аутентификация),
// затем, если ресурс уже найден, на уровне объекта (владение или роль).
// Всё, что не разрешено явно, запрещено.
package permission

import (
	"net/http"

	"github.com/GoArmGo/RecipeApp/internal/domain"
)

type Decision int

const (
	Allow Decision = iota
	DenyNotAuthenticated
	DenyForbidden
)

func (d Decision) Allowed() bool {
	return d == Allow
}

// Err переводит отказ в доменную ошибку; для Allow возвращает nil.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	switch d {
	case DenyNotAuthenticated:
		return domain.ErrNotAuthenticated
	default:
		return domain.ErrPermissionDenied
	}
}

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyNotAuthenticated:
		return "not_authenticated"
	default:
		return "forbidden"
	}
}

// Actor — участник запроса. Нулевое значение означает анонимного пользователя.
type Actor struct {
	Authenticated bool
	UserID        int64
	Username      string
	IsStaff       bool
}

func Anonymous() Actor {
	return Actor{}
}

// Is сообщает, совпадает ли участник с пользователем id.
func (a Actor) Is(id int64) bool {
	return a.Authenticated && a.UserID != 0 && a.UserID == id
}

// Kind — тип ресурса, для которого действует своя таблица правил.
type Kind int

const (
	Recipe Kind = iota
	Author
	Tag
)

// Object описывает уже найденный ресурс: его владельца
// (для автора это сам пользователь).
type Object struct {
	OwnerID int64
}

type policy struct {
	request func(method string, actor Actor) Decision
	object  func(method string, actor Actor, obj Object) Decision
}

var policies = map[Kind]policy{
	Recipe: {request: recipeRequest, object: recipeObject},
	Author: {request: authorRequest, object: authorObject},
	Tag:    {request: tagRequest, object: tagObject},
}

// IsSafe: GET, HEAD и OPTIONS не изменяют состояние.
func IsSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Check выполняет проверку уровня запроса (до поиска ресурса).
func Check(kind Kind, method string, actor Actor) Decision {
	p, ok := policies[kind]
	if !ok {
		return deny(actor)
	}
	return p.request(method, actor)
}

// CheckObject выполняет обе проверки для найденного ресурса.
func CheckObject(kind Kind, method string, actor Actor, obj Object) Decision {
	p, ok := policies[kind]
	if !ok {
		return deny(actor)
	}
	if d := p.request(method, actor); d != Allow {
		return d
	}
	return p.object(method, actor, obj)
}

// deny: отказ по умолчанию, анонимному сначала предлагается аутентифицироваться.
func deny(actor Actor) Decision {
	if !actor.Authenticated {
		return DenyNotAuthenticated
	}
	return DenyForbidden
}

func requireAuth(actor Actor) Decision {
	if !actor.Authenticated {
		return DenyNotAuthenticated
	}
	return Allow
}

func recipeRequest(method string, actor Actor) Decision {
	if IsSafe(method) {
		return Allow
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return requireAuth(actor)
	}
	return deny(actor)
}

func recipeObject(method string, actor Actor, obj Object) Decision {
	if IsSafe(method) {
		return Allow
	}
	switch method {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		if actor.Is(obj.OwnerID) {
			return Allow
		}
	}
	return deny(actor)
}

func authorRequest(method string, actor Actor) Decision {
	switch method {
	case http.MethodGet, http.MethodPatch, http.MethodDelete:
		return requireAuth(actor)
	case http.MethodPost:
		// регистрация доступна только анонимным
		if actor.Authenticated {
			return DenyForbidden
		}
		return Allow
	}
	return deny(actor)
}

func authorObject(method string, actor Actor, obj Object) Decision {
	switch method {
	case http.MethodGet, http.MethodPatch, http.MethodDelete:
		if actor.Is(obj.OwnerID) {
			return Allow
		}
	}
	return deny(actor)
}

func tagRequest(method string, actor Actor) Decision {
	if IsSafe(method) {
		return Allow
	}
	switch method {
	case http.MethodPatch, http.MethodDelete:
		if d := requireAuth(actor); d != Allow {
			return d
		}
		if actor.IsStaff {
			return Allow
		}
		return DenyForbidden
	}
	return deny(actor)
}

func tagObject(method string, actor Actor, _ Object) Decision {
	return tagRequest(method, actor)
}
