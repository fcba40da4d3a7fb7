package model

// User представляет зарегистрированного пользователя.
type User struct {
	ID       int    `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"` // bcrypt-хеш, не возвращаем в JSON
}

// InsertUser содержит данные для регистрации пользователя.
type InsertUser struct {
	Username string
	Password string // уже захешированный пароль
}

// RegisterRequest содержит данные запроса регистрации.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Password string `json:"password" binding:"required,min=8,max=100"`
}

// LoginRequest содержит данные запроса входа.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse содержит выданный токен доступа и данные пользователя.
type TokenResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
