package service

import (
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	EmployeeCode string `json:"employee_code" binding:"required"`
	Username     string `json:"username" binding:"required"`
	DisplayName  string `json:"display_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Gender       string `json:"gender" binding:"omitempty,oneof=M F"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         string `json:"role" binding:"required,oneof=admin approver staff"`
	SectionID    string `json:"section_id"`
	DepartmentID string `json:"department_id"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	EmployeeCode string    `json:"employee_code"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	Gender       string    `json:"gender"`
	Role         string    `json:"role"`
	CreatedAt    string    `json:"created_at"`
}

// UserService is the identity-directory collaborator: it issues tokens and
// serves approver records; it holds no approval decision logic.
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
}

type userService struct {
	repo   repository.UserRepository
	tokens repository.RefreshTokenRepository
	guard  *loginGuard
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, tokens repository.RefreshTokenRepository) UserService {
	return &userService{repo: repo, tokens: tokens, guard: newLoginGuard()}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:           user.ID,
		EmployeeCode: user.EmployeeCode,
		Username:     user.Username,
		DisplayName:  user.DisplayName,
		Email:        user.Email,
		Gender:       user.Gender,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperror.New(apperror.KindValidation, "username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.New(apperror.KindValidation, "email already exists")
	}
	if _, err := s.repo.GetByEmployeeCode(ctx, req.EmployeeCode); err == nil {
		return nil, apperror.New(apperror.KindValidation, "employee code already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, err, "failed to hash password")
	}

	user := &model.User{
		EmployeeCode: req.EmployeeCode,
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		Gender:       req.Gender,
		Password:     string(hashedPassword),
		Role:         req.Role,
	}
	if req.SectionID != "" {
		if sectionID, parseErr := uuid.Parse(req.SectionID); parseErr == nil {
			user.SectionID = &sectionID
		}
	}
	if req.DepartmentID != "" {
		if departmentID, parseErr := uuid.Parse(req.DepartmentID); parseErr == nil {
			user.DepartmentID = &departmentID
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	if !s.guard.Allow(req.Email) {
		return nil, apperror.New(apperror.KindBusinessRule, "too many failed login attempts, try again later")
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		s.guard.Fail(req.Email)
		return nil, apperror.New(apperror.KindValidation, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.guard.Fail(req.Email)
		return nil, apperror.New(apperror.KindValidation, "invalid email or password")
	}
	s.guard.Reset(req.Email)

	return s.issueTokens(ctx, user)
}

// RefreshToken exchanges a stored refresh token for a fresh token pair. The
// presented token is rotated: it is deleted and replaced in the same call, so
// a replayed token fails.
func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	row, err := s.tokens.GetByToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid refresh token")
	}
	if time.Now().After(row.ExpiresAt) {
		_ = s.tokens.DeleteByToken(ctx, row.Token)
		return nil, apperror.New(apperror.KindValidation, "refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, row.UserID.String())
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "user not found")
	}

	if err := s.tokens.DeleteByToken(ctx, row.Token); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// RevokeRefreshToken invalidates a stored refresh token (logout).
func (s *userService) RevokeRefreshToken(ctx context.Context, token string) error {
	return s.tokens.DeleteByToken(ctx, token)
}

// issueTokens signs an access JWT and persists a new refresh token for the
// user. One refresh token per user: issuing replaces any existing one.
func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, err, "failed to generate token")
	}

	refreshToken, err := newRefreshTokenValue()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, err, "failed to generate refresh token")
	}
	if err := s.tokens.DeleteByUser(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}); err != nil {
		return nil, err
	}

	return &TokenResponse{Token: tokenString, RefreshToken: refreshToken}, nil
}

func newRefreshTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "user not found")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var responses []UserResponse
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}

	return responses, total, nil
}

// --- Login attempt guard ---

const (
	maxLoginAttempts = 5
	loginAttemptTTL  = 15 * time.Minute
	refreshTokenTTL  = 7 * 24 * time.Hour
)

type loginAttempt struct {
	count     int
	expiresAt time.Time
}

// loginGuard is process-scoped state tracking failed logins per email with
// explicit TTL eviction; entries vanish once their window expires.
type loginGuard struct {
	mu       sync.Mutex
	attempts map[string]loginAttempt
}

func newLoginGuard() *loginGuard {
	return &loginGuard{attempts: make(map[string]loginAttempt)}
}

func (g *loginGuard) Allow(email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.evictLocked()
	entry, ok := g.attempts[email]
	return !ok || entry.count < maxLoginAttempts
}

func (g *loginGuard) Fail(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry := g.attempts[email]
	entry.count++
	entry.expiresAt = time.Now().Add(loginAttemptTTL)
	g.attempts[email] = entry
}

func (g *loginGuard) Reset(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, email)
}

func (g *loginGuard) evictLocked() {
	now := time.Now()
	for email, entry := range g.attempts {
		if now.After(entry.expiresAt) {
			delete(g.attempts, email)
		}
	}
}
