package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/GoArmGo/RecipeApp/internal/domain"
)

const (
	MsgRequired          = "This field is required."
	MsgUsernameExists    = "Username already exists"
	MsgEmailExists       = "Email already exists"
	MsgUsernameReserved  = "Username not allowed"
	MsgUsernameNumeric   = "Username cannot be only numbers"
	MsgFirstNameNumeric  = "First name cannot be only numbers"
	MsgLastNameNumeric   = "Last name cannot be only numbers"
	MsgInvalidEmail      = "Enter a valid email address."
	MsgPasswordTooShort  = "This password is too short. It must contain at least 8 characters."
	MsgPasswordNumeric   = "This password is entirely numeric."
	MsgUsernameMalformed = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."

	MinPasswordLength = 8
	MaxUsernameLength = 150
	MaxNameLength     = 150
	MaxEmailLength    = 254
)

// MaxLengthMessage: сообщение о превышении длины поля в n символов.
func MaxLengthMessage(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// TooLong сообщает, длиннее ли строка n символов (не байт).
func TooLong(s string, n int) bool {
	return utf8.RuneCountInString(s) > n
}

var reservedUsernames = map[string]struct{}{
	"admin":         {},
	"root":          {},
	"administrator": {},
}

// IsReservedUsername сообщает, входит ли имя в список зарезервированных.
// Сравнение точное, как и при регистрации.
func IsReservedUsername(username string) bool {
	_, ok := reservedUsernames[username]
	return ok
}

// IsNumericOnly сообщает, состоит ли строка только из цифр.
// Пустая строка числовой не считается.
func IsNumericOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsValidUsername: буквы, цифры и @/./+/-/_, не длиннее MaxUsernameLength.
func IsValidUsername(username string) bool {
	if username == "" || utf8.RuneCountInString(username) > MaxUsernameLength {
		return false
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return false
	}
	return true
}

func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// PasswordProblems возвращает список замечаний к паролю; пустой список означает, что пароль подходит.
func PasswordProblems(password string) []string {
	var problems []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, MsgPasswordTooShort)
	}
	if IsNumericOnly(password) {
		problems = append(problems, MsgPasswordNumeric)
	}
	return problems
}

// AuthorFields: полный набор атрибутов автора после слияния с сохранённой записью.
type AuthorFields struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// ValidateAuthor проверяет атрибуты автора без обращения к хранилищу.
// Уникальность username и email проверяется usecase-слоем.
func ValidateAuthor(f AuthorFields) *domain.ValidationError {
	verr := domain.NewValidationError()

	switch {
	case !IsValidUsername(f.Username):
		verr.Add("username", MsgUsernameMalformed)
	case IsReservedUsername(f.Username):
		verr.Add("username", MsgUsernameReserved)
	case IsNumericOnly(f.Username):
		verr.Add("username", MsgUsernameNumeric)
	}
	switch {
	case TooLong(f.Email, MaxEmailLength):
		verr.Add("email", MaxLengthMessage(MaxEmailLength))
	case !IsValidEmail(f.Email):
		verr.Add("email", MsgInvalidEmail)
	}
	switch {
	case TooLong(f.FirstName, MaxNameLength):
		verr.Add("first_name", MaxLengthMessage(MaxNameLength))
	case IsNumericOnly(f.FirstName):
		verr.Add("first_name", MsgFirstNameNumeric)
	}
	switch {
	case TooLong(f.LastName, MaxNameLength):
		verr.Add("last_name", MaxLengthMessage(MaxNameLength))
	case IsNumericOnly(f.LastName):
		verr.Add("last_name", MsgLastNameNumeric)
	}
	return verr
}
