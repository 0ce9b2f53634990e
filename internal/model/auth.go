package model

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterRequest represents the register request body.
type RegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required,min=1,max=64"`
	Password string `json:"password" form:"password" binding:"required,min=1,max=64"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Token   string `json:"token"`
	APIKey  string `json:"api_key"`
}
