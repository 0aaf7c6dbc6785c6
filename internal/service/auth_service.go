package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const (
	minPasswordLength = 6
	lastSeenInterval  = time.Minute
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	Authenticate(token string) (*model.User, error)
	Logout(userID uuid.UUID) error
	ChangePassword(email, oldPassword, newPassword string) error
	ResetPassword(email, newPassword string) error
}

type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	signer   *jwt.Signer
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, signer *jwt.Signer) AuthService {
	return &authService{
		userRepo: userRepo,
		signer:   signer,
		now:      time.Now,
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// A new token version signs out every other session of this user.
	version := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(user.ID, version); err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.userRepo.UpdateLastSeen(user.ID, now); err != nil {
		return nil, err
	}

	token, err := s.signer.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), user.GetPrivilegeCodes(), version)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	user.TokenVersion = version
	user.LastSeenAt = &now

	return &LoginResponse{
		Token:     token,
		ExpiresAt: now.Add(s.signer.TTL()),
		User:      user.ToResponse(),
	}, nil
}

// Authenticate resolves a session token to its user, checking the user is still
// active and the token belongs to the latest login.
func (s *authService) Authenticate(token string) (*model.User, error) {
	claims, err := s.signer.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	now := s.now()
	if user.LastSeenAt == nil || now.Sub(*user.LastSeenAt) > lastSeenInterval {
		if err := s.userRepo.UpdateLastSeen(user.ID, now); err == nil {
			user.LastSeenAt = &now
		}
	}
	return user, nil
}

func (s *authService) Logout(userID uuid.UUID) error {
	return s.userRepo.UpdateTokenVersion(userID, uuid.New().String())
}

func (s *authService) ChangePassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	return s.setPassword(user, newPassword)
}

// ResetPassword sets a new password without the old one and signs the user out everywhere.
func (s *authService) ResetPassword(email, newPassword string) error {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.setPassword(user, newPassword)
}

func (s *authService) setPassword(user *model.User, password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	if err := user.SetPassword(password); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	return s.userRepo.UpdateTokenVersion(user.ID, uuid.New().String())
}
