package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/models"
	"github.com/ouk-labs/grouper-api/internal/repository"
)

// AuthService manages user accounts and bearer tokens.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterUserRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	students  repository.StudentRepository
	validator *validator.Validate
	secret    string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

// NewAuthService constructs the account service.
func NewAuthService(users repository.UserRepository, students repository.StudentRepository, validate *validator.Validate, secret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		users:     users,
		students:  students,
		validator: validate,
		secret:    secret,
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterUserRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if taken {
		return dto.AuthResponse{}, ErrEmailTaken
	}

	user := models.User{Email: email, Role: models.RoleUser}
	if err := user.SetPassword(payload.Password); err != nil {
		return dto.AuthResponse{}, err
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.AuthResponse{}, err
	}

	s.tryLinkStudent(ctx, &user)
	return s.authResponse(ctx, user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}
	if !user.CheckPassword(payload.Password) {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	s.tryLinkStudent(ctx, &user)
	return s.authResponse(ctx, user)
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return s.userResponse(ctx, user), nil
}

// tryLinkStudent links the account to the student profile sharing its email,
// once such a profile exists. Failures only cost the link, never the login.
func (s *authService) tryLinkStudent(ctx context.Context, user *models.User) {
	if user.StudentID != nil {
		return
	}
	student, err := s.students.GetByEmail(ctx, user.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to look up student for linking")
		}
		return
	}
	if err := s.users.LinkStudent(ctx, user.ID, student.ID); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to link student profile")
		return
	}
	user.StudentID = &student.ID
}

func (s *authService) authResponse(ctx context.Context, user models.User) (dto.AuthResponse, error) {
	token, err := s.issueToken(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{Token: token, User: s.userResponse(ctx, user)}, nil
}

func (s *authService) userResponse(ctx context.Context, user models.User) dto.UserResponse {
	var student *models.Student
	if user.StudentID != nil {
		if loaded, err := s.students.GetByID(ctx, *user.StudentID); err == nil {
			student = &loaded
		}
	}
	return dto.NewUserResponse(user, student)
}

func (s *authService) issueToken(user models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
