package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

type TokenIssuer interface {
	IssueToken(u *domain.User) (string, time.Time, error)
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// UserInput is a partial admin user. Password is re-hashed only when set.
type UserInput struct {
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Name     *string      `json:"name"`
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
}

type UserService struct {
	repo   UserStore
	tokens TokenIssuer
	log    *slog.Logger
}

func NewUserService(repo UserStore, tokens TokenIssuer, log *slog.Logger) *UserService {
	return &UserService{repo: repo, tokens: tokens, log: log}
}

// Login checks the password and issues a session token. Unknown emails,
// wrong passwords and deactivated accounts fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.Invalid("email", "email and password are required")
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !access.CheckPassword(u.PasswordHash, password) {
		s.log.Warn("admin login rejected", "email", u.Email)
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("failed to record last login", "user_id", u.ID, "error", err)
	}
	u.LastLoginAt = &now

	token, expires, err := s.tokens.IssueToken(u)
	if err != nil {
		return nil, err
	}
	s.log.Info("admin logged in", "user_id", u.ID, "role", u.Role)
	return &LoginResult{Token: token, ExpiresAt: expires, User: u}, nil
}

func (s *UserService) Me(ctx context.Context, session *access.Session) (*domain.User, error) {
	if session == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.GetUserByID(ctx, session.UserID)
}

func (s *UserService) List(ctx context.Context, session *access.Session) ([]domain.User, error) {
	if err := access.CanListUsers(session); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

// Create defaults the role to EDITOR and the account to active.
func (s *UserService) Create(ctx context.Context, session *access.Session, in UserInput) (*domain.User, error) {
	if err := access.CanManageUsers(session); err != nil {
		return nil, err
	}
	if in.Email == nil || in.Password == nil || in.Name == nil ||
		strings.TrimSpace(*in.Email) == "" || *in.Password == "" || strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Invalid("email", "email, password and name are required")
	}

	u := &domain.User{Role: domain.RoleEditor, IsActive: true}
	if err := applyUserInput(u, in); err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("admin user created", "user_id", u.ID, "role", u.Role, "by", session.UserID)
	return u, nil
}

func (s *UserService) Update(ctx context.Context, session *access.Session, id uuid.UUID, in UserInput) (*domain.User, error) {
	if err := access.CanManageUsers(session); err != nil {
		return nil, err
	}
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyUserInput(u, in); err != nil {
		return nil, err
	}
	if u.Email == "" || u.Name == "" {
		return nil, domain.Invalid("email", "email and name must not be empty")
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, session *access.Session, id uuid.UUID) error {
	if err := access.CanDeleteUser(session, id); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Info("admin user deleted", "user_id", id, "by", session.UserID)
	return nil
}

func applyUserInput(u *domain.User, in UserInput) error {
	setString(&u.Email, in.Email)
	setString(&u.Name, in.Name)
	if in.Role != nil {
		role, err := domain.ParseRole(string(*in.Role))
		if err != nil {
			return err
		}
		u.Role = role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := access.HashPassword(*in.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return nil
}
