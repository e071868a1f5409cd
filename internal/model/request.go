package model

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type AuthenticationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     *Date  `json:"dueDate"`
	Priority    string `json:"priority"`
}

type TaskUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     *Date  `json:"dueDate"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}
