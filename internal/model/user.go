package model

type User struct {
	ID        int64   `json:"id"`
	FullName  string  `json:"full_name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url"`
}

// UserRef - минимальный профиль для вложенной отдачи
type UserRef struct {
	ID        int64   `json:"id"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}
