package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/models"
	"ktuligonine.lt/repositories"

	"go.uber.org/zap"
)

// AuthServiceError is returned for expected registration and login failures.
type AuthServiceError string

func (e AuthServiceError) Error() string { return string(e) }

const (
	ErrEmailTaken      AuthServiceError = "El. pašto adresas užimtas."
	ErrAccountNotFound AuthServiceError = "Paskyra nerasta."
	ErrWrongPassword   AuthServiceError = "Neteisingas slaptažodis."
)

// uniqueIDBytes is the entropy of a generated user id, hex encoded to 40 chars.
const uniqueIDBytes = 20

// PasswordHasher is the part of passwordhash.Hasher the services rely on.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsRehash(encoded string) bool
}

// IAuthService covers registration, login and principal lookup.
type IAuthService interface {
	Register(ctx context.Context, form RegistrationForm) (*models.User, error)
	Login(ctx context.Context, form LoginForm) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthService implements IAuthService.
type AuthService struct {
	users  repositories.IUserRepository
	hasher PasswordHasher
}

// NewAuthService builds the registration and login service.
func NewAuthService(users repositories.IUserRepository, hasher PasswordHasher) IAuthService {
	return &AuthService{users: users, hasher: hasher}
}

// Register validates the form and stores a new patient account.
func (s *AuthService) Register(ctx context.Context, form RegistrationForm) (*models.User, error) {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.PersonalCode = strings.TrimSpace(form.PersonalCode)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	if err := validateForm(form); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, form.Email)
	if err != nil {
		configslog.Log.Error("Register: email lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	id, err := newUniqueID()
	if err != nil {
		configslog.Log.Error("Register: id generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		configslog.Log.Error("Register: password hashing failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	user := &models.User{
		UniqueID:     id,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		PersonalCode: form.PersonalCode,
		Email:        form.Email,
		Phone:        form.Phone,
		Role:         models.RolePatient,
		PasswordHash: hash,
		ImageURL:     models.DefaultImage,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		configslog.Log.Error("Register: create failed", zap.String("email", form.Email), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	configslog.Log.Info("user registered", zap.String("user_id", user.UniqueID))
	return user, nil
}

// Login checks the credentials. A stored hash made with older parameters or
// with bcrypt is replaced after a successful check.
func (s *AuthService) Login(ctx context.Context, form LoginForm) (*models.User, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := validateForm(form); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, form.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		configslog.Log.Error("Login: lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	ok, err := s.hasher.Verify(form.Password, user.PasswordHash)
	if err != nil {
		configslog.Log.Warn("Login: stored hash unreadable", zap.String("user_id", user.UniqueID), zap.Error(err))
		return nil, ErrWrongPassword
	}
	if !ok {
		return nil, ErrWrongPassword
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, form.Password)
	}
	return user, nil
}

func (s *AuthService) upgradeHash(ctx context.Context, user *models.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.UniqueID, hash)
	}
	if err != nil {
		configslog.Log.Warn("Login: password rehash failed", zap.String("user_id", user.UniqueID), zap.Error(err))
		return
	}
	user.PasswordHash = hash
}

// GetUserByID resolves the session principal.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return user, nil
}

func newUniqueID() (string, error) {
	b := make([]byte, uniqueIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
