package api

// SendMessageRequest представляет запрос на отправку сообщения
// Должно быть заполнено хотя бы одно из полей
type SendMessageRequest struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"` // data URI изображения
}

// OnlineResponse представляет список пользователей в сети
type OnlineResponse struct {
	UserIDs []string `json:"userIds"`
}
