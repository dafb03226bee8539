package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/repository/mongodb"
)

const (
	bcryptCost        = bcrypt.DefaultCost
	minPasswordLength = 6
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = fmt.Errorf("%w: user already exists", models.ErrConflict)
)

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Company  string `json:"company"`
}

// Session is what a successful login or registration returns.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Service registers and authenticates operators.
type Service struct {
	users  mongodb.UserStore
	tokens *TokenIssuer
	logger *zap.Logger
}

// NewService wires an auth service.
func NewService(users mongodb.UserStore, tokens *TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Register creates a user account with the user role. Admins are only
// created through the seed command.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	user, err := NewUser(in.Email, in.Password, models.RoleUser)
	if err != nil {
		return nil, err
	}

	if c := strings.TrimSpace(in.Company); c != "" {
		company, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			return nil, fmt.Errorf("%w: company is not a valid identifier", models.ErrBadRequest)
		}
		user.Company = &company
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return s.session(user)
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", zap.String("user_id", user.ID.Hex()))
		return nil, ErrInvalidCredentials
	}

	return s.session(user)
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", models.ErrUnauthorized)
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// NewUser validates the credentials and hashes the password.
func NewUser(email, password string, role models.Role) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: a valid email is required", models.ErrBadRequest)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrBadRequest, minPasswordLength)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrBadRequest, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &models.User{Email: email, PasswordHash: string(hash), Role: role}, nil
}
