package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/balkashynov/attendr/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
)

// UserStore is the persistence the auth service needs
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// RegisterInput holds the data needed to create an account
type RegisterInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	FullName string      `json:"full_name" validate:"required"`
	FaceName string      `json:"face_name"`
	Role     models.Role `json:"-"`
}

type Service struct {
	users  UserStore
	issuer *Issuer
}

func NewService(users UserStore, issuer *Issuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// Register creates a new account. Role defaults to employee.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleEmployee
	}
	faceName := strings.TrimSpace(in.FaceName)
	if faceName == "" {
		faceName = strings.TrimSpace(in.FullName)
	}

	u := &models.User{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         role,
		FaceName:     faceName,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Login checks credentials and issues an access token
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, Session, error) {
	u, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", time.Time{}, Session{}, err
	}
	if u == nil || !CheckPassword(u.PasswordHash, password) {
		return "", time.Time{}, Session{}, ErrInvalidCredentials
	}
	token, expires, err := s.issuer.Issue(u)
	if err != nil {
		return "", time.Time{}, Session{}, err
	}
	return token, expires, SessionFor(u), nil
}

// User loads the account behind a session
func (s *Service) User(ctx context.Context, sess Session) (*models.User, error) {
	if !sess.Authenticated() {
		return nil, ErrInvalidCredentials
	}
	return s.users.FindUserByID(ctx, sess.UserID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
