package handlers

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges operations that return no resource
type SuccessResponse struct {
	Success bool `json:"success"`
}

// AuthResponse is returned by the social login callback when no frontend is configured
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// UserResponse represents the user data from OAuth providers
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	AvatarURL string `json:"avatarUrl"`
}

// ProvidersResponse lists which social sign-in providers are enabled
type ProvidersResponse struct {
	Google  bool `json:"google"`
	Github  bool `json:"github"`
	Twitter bool `json:"twitter"`
}
