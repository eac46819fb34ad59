package models

import "time"

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time `json:"createdAt"`  // время создания
	UpdatedAt    time.Time `json:"updatedAt"`  // время последнего обновления
	ID           string    `json:"_id"`        // UUID пользователя
	FullName     string    `json:"fullName"`   // отображаемое имя
	Email        string    `json:"email"`      // уникальный email
	PasswordHash string    `json:"-"`          // bcrypt хеш пароля, наружу не отдается
	ProfilePic   string    `json:"profilePic"` // URL аватара, пустая строка если не задан
}

// UserSummary is the password-free view of a user returned by listings.
type UserSummary struct {
	ID         string `json:"_id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilePic"`
	Online     bool   `json:"online"`
}

// Summary returns the listing view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
	}
}
