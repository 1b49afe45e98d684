package dto

import "github.com/ouk-labs/grouper-api/internal/models"

// RegisterUserRequest creates a user account.
type RegisterUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse serializes an account for API clients.
type UserResponse struct {
	ID          uint             `json:"id"`
	Email       string           `json:"email"`
	Role        string           `json:"role"`
	IsAdmin     bool             `json:"is_admin"`
	Student     *StudentResponse `json:"student"`
	GravatarURL string           `json:"gravatar_url"`
}

// AuthResponse pairs an account with its bearer token.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NewUserResponse converts a user model into a DTO. The linked student is
// optional and passed separately because it lives in another repository.
func NewUserResponse(user models.User, student *models.Student) UserResponse {
	response := UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Role:        user.Role,
		IsAdmin:     user.IsAdmin(),
		GravatarURL: gravatarURL(user.Email, 80),
	}
	if student != nil {
		s := NewStudentResponse(*student)
		response.Student = &s
	}
	return response
}
