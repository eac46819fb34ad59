package api

// SignupRequest представляет запрос на регистрацию нового пользователя
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required"`       // отображаемое имя
	Email    string `json:"email" validate:"required,email"`    // уникальный email
	Password string `json:"password" validate:"required,min=6"` // пароль в открытом виде, хешируется на сервере
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest представляет запрос на смену аватара
type UpdateProfileRequest struct {
	ProfilePic string `json:"profilePic" validate:"required"` // data URI изображения
}

// MessageResponse представляет ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
