package service

import (
	"context"
	"time"

	"github.com/staffdesk/staffdesk-backend/internal/auth/jwt"
	"github.com/staffdesk/staffdesk-backend/internal/auth/repository"
	employeerepo "github.com/staffdesk/staffdesk-backend/internal/employee/repository"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/identity"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// EmployeeDirectory resolves employee profiles for employee-role logins.
type EmployeeDirectory interface {
	GetByID(ctx context.Context, id string) (*employeerepo.Employee, error)
}

// EventSink receives identity lifecycle events. Publishing is best-effort
// and must never fail the request.
type EventSink interface {
	UserRegistered(ctx context.Context, userID, email, role string)
}

// RegisterRequest is the payload for registering a standalone credential
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin employee"`
}

// LoginRequest is the payload for logging in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned from register and login
type AuthResponse struct {
	ID        string                 `json:"id"`
	Email     string                 `json:"email"`
	Role      string                 `json:"role"`
	Employee  *employeerepo.Employee `json:"employee,omitempty"`
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// ProfileResponse is returned from the profile endpoint
type ProfileResponse struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	Role     string                 `json:"role"`
	Employee *employeerepo.Employee `json:"employee,omitempty"`
}

// AuthService handles registration, login and profile resolution
type AuthService struct {
	users     *repository.UserRepository
	employees EmployeeDirectory
	tokens    *jwt.Manager
	events    EventSink
	log       *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *repository.UserRepository,
	employees EmployeeDirectory,
	tokens *jwt.Manager,
	events EventSink,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		employees: employees,
		tokens:    tokens,
		events:    events,
		log:       log.WithComponent("auth-service"),
	}
}

// Register creates a credential record and returns it with a fresh token.
// Registration never creates an employee profile; employee-role credentials
// are normally created alongside the employee record by an admin.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.BadRequest("user with this email already exists")
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &repository.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate token")
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("role", user.Role).
		Msg("user registered")

	s.events.UserRegistered(ctx, user.ID, user.Email, user.Role)

	return &AuthResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Login verifies the credentials and returns the identity with a fresh
// token. Employee-role logins carry the linked employee profile so the
// client can render it without a second round trip.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	token, expiresAt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate token")
	}

	resp := &AuthResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	resp.Employee = s.linkedEmployee(ctx, user)

	s.log.Info().
		Str("user_id", user.ID).
		Str("role", user.Role).
		Msg("user logged in")

	return resp, nil
}

// Profile returns the caller's identity and, for employee-role callers,
// the linked employee profile.
func (s *AuthService) Profile(ctx context.Context) (*ProfileResponse, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	return &ProfileResponse{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role,
		Employee: s.linkedEmployee(ctx, user),
	}, nil
}

// linkedEmployee loads the employee profile for an employee-role credential.
// A dangling link is logged, not fatal: the login must still succeed.
func (s *AuthService) linkedEmployee(ctx context.Context, user *repository.User) *employeerepo.Employee {
	if user.Role != identity.RoleEmployee || user.EmployeeID == nil {
		return nil
	}

	emp, err := s.employees.GetByID(ctx, *user.EmployeeID)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("user_id", user.ID).
			Str("employee_id", *user.EmployeeID).
			Msg("failed to load linked employee profile")
		return nil
	}

	return emp
}
