package serializer

import (
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/validation"
)

// AuthorInput — входная запись автора. Поле, отсутствующее в запросе (или null), остаётся nil.
type AuthorInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
}

// AuthorRecord: автор в ответе API, без пароля.
type AuthorRecord struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func Author(u domain.User) AuthorRecord {
	return AuthorRecord{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// MissingRegistrationFields возвращает ошибку для каждого обязательного поля регистрации, которого нет.
func (in AuthorInput) MissingRegistrationFields() *domain.ValidationError {
	verr := domain.NewValidationError()
	required := []struct {
		name  string
		value *string
	}{
		{"username", in.Username},
		{"email", in.Email},
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"password", in.Password},
	}
	for _, f := range required {
		if f.value == nil || *f.value == "" {
			verr.Add(f.name, validation.MsgRequired)
		}
	}
	return verr
}

// MergeInto применяет заданные поля к пользователю; незаданные сохраняют текущие значения.
// Пароль не переносится: его хэширует usecase.
func (in AuthorInput) MergeInto(u *domain.User) {
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
}
