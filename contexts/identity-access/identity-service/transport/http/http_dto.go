package http

// ErrorResponse is the uniform error body for identity endpoints.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	County   string `json:"county"`
	Registry string `json:"registry,omitempty"`
	Role     string `json:"role,omitempty"`
}

type UserDTO struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	County    string `json:"county"`
	Registry  string `json:"registry,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

type RegisterResponse struct {
	User UserDTO `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type IdentityDTO struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	County   string `json:"county"`
	Registry string `json:"registry,omitempty"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expires_at"`
	User      IdentityDTO `json:"user"`
}

type ListUsersResponse struct {
	Items []UserDTO `json:"items"`
}
