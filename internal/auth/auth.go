package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"hireline/internal/models"

	"github.com/c-pro/geche"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenExpiry = 24 * time.Hour
	loginFailedMessage = "Login failed"
	bcryptCost         = 12
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// Storage persists credentials and session tokens across restarts.
type Storage interface {
	UpsertCredentials(credentials UserCredentials) error
	ListCredentials() ([]UserCredentials, error)
	UpsertToken(tokenHash, userID string) error
	DeleteToken(tokenHash string) error
	ListTokens() (map[string]string, error)
}

// UserCredentials couples the public user record with authentication state.
type UserCredentials struct {
	models.User
	PasswordHash string
	// Counter for consecutive failed login attempts to throttle brute force.
	FailedLoginAttempts int64
	LastAttemptTime     int64
}

func (uc *UserCredentials) ResetFailedLoginAttempts(now time.Time) {
	uc.FailedLoginAttempts = 0
	uc.LastAttemptTime = now.Unix()
}

func (uc *UserCredentials) IncrementFailedLoginAttempts(now time.Time) {
	uc.FailedLoginAttempts++
	uc.LastAttemptTime = now.Unix()
}

type RegisterRequest struct {
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	UserType  models.UserType `json:"user_type"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message,omitempty"`
	Token       string       `json:"token,omitempty"`
	TokenExpiry int64        `json:"token_expiry,omitempty"`
	User        *models.User `json:"user,omitempty"`
}

type Config struct {
	TokenExpiry time.Duration `json:"token_expiry"`
}

func (c *Config) Validate() error {
	if c.TokenExpiry == 0 {
		c.TokenExpiry = DefaultTokenExpiry
	}
	if c.TokenExpiry < 0 {
		return errors.New("token expiry must be positive")
	}
	return nil
}

type AuthService struct {
	Config
	store Storage
	// users is keyed by lower-cased email, ids maps user id to that key.
	users      *geche.Locker[string, *UserCredentials]
	ids        geche.Geche[string, string]
	liveTokens geche.Geche[string, string]
	now        func() time.Time
}

func NewAuthService(ctx context.Context, config Config, store Storage) (*AuthService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	as := &AuthService{
		Config:     config,
		store:      store,
		users:      geche.NewLocker[string, *UserCredentials](geche.NewMapCache[string, *UserCredentials]()),
		ids:        geche.NewMapCache[string, string](),
		liveTokens: geche.NewMapTTLCache[string, string](ctx, config.TokenExpiry, time.Minute),
		now:        time.Now,
	}

	if err := as.loadFromStore(); err != nil {
		return nil, err
	}

	return as, nil
}

func (as *AuthService) loadFromStore() error {
	creds, err := as.store.ListCredentials()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	tx := as.users.Lock()
	for i := range creds {
		c := creds[i]
		tx.Set(emailKey(c.Email), &c)
		as.ids.Set(c.User.ID, emailKey(c.Email))
	}
	tx.Unlock()

	tokens, err := as.store.ListTokens()
	if err != nil {
		return fmt.Errorf("failed to load tokens: %w", err)
	}
	for hash, userID := range tokens {
		as.liveTokens.Set(hash, userID)
	}

	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashToken derives the storage key for a raw session token. Raw tokens are
// never persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (as *AuthService) Register(req RegisterRequest) (models.User, error) {
	if req.Email == "" || req.Password == "" {
		return models.User{}, errors.New("email and password are required")
	}
	if req.UserType != models.UserTypeClientHunter && req.UserType != models.UserTypeFreelancer {
		return models.User{}, fmt.Errorf("unknown user type %q", req.UserType)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	tx := as.users.Lock()
	defer tx.Unlock()
	if _, err := tx.Get(emailKey(req.Email)); err == nil {
		return models.User{}, ErrUserExists
	}

	creds := &UserCredentials{
		User: models.User{
			ID:        uuid.NewString(),
			Email:     emailKey(req.Email),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			UserType:  req.UserType,
			IsActive:  true,
			CreatedAt: as.now().Unix(),
		},
		PasswordHash: string(hash),
	}

	if err := as.store.UpsertCredentials(*creds); err != nil {
		return models.User{}, fmt.Errorf("failed to persist credentials: %w", err)
	}

	tx.Set(emailKey(req.Email), creds)
	as.ids.Set(creds.User.ID, emailKey(req.Email))

	return creds.User, nil
}

func (as *AuthService) Login(req LoginRequest) LoginResponse {
	now := as.now()
	tx := as.users.Lock()
	defer tx.Unlock()
	user, err := tx.Get(emailKey(req.Email))
	if err != nil {
		return LoginResponse{Success: false, Message: loginFailedMessage}
	}

	if !user.IsActive {
		return LoginResponse{Success: false, Message: loginFailedMessage}
	}

	// Quadratic backoff after repeated failures.
	if user.FailedLoginAttempts > 3 {
		nextAttempt := user.LastAttemptTime + 30*(user.FailedLoginAttempts*user.FailedLoginAttempts)
		if now.Unix() < nextAttempt {
			return LoginResponse{
				Success: false,
				Message: fmt.Sprintf("Too many failed login attempts. Next attempt in %d seconds", nextAttempt-now.Unix()),
			}
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		user.IncrementFailedLoginAttempts(now)
		return LoginResponse{Success: false, Message: loginFailedMessage}
	}

	token, err := as.generateToken()
	if err != nil {
		slog.Error("login failed", "user_id", user.User.ID, "error", err)
		return LoginResponse{Success: false, Message: "internal error"}
	}

	hash := HashToken(token)
	as.liveTokens.Set(hash, user.User.ID)
	if err := as.store.UpsertToken(hash, user.User.ID); err != nil {
		slog.Error("failed to persist token", "user_id", user.User.ID, "error", err)
	}
	user.ResetFailedLoginAttempts(now)

	u := user.User
	return LoginResponse{
		Success:     true,
		Token:       token,
		TokenExpiry: now.Unix() + int64(as.TokenExpiry.Seconds()),
		User:        &u,
	}
}

func (as *AuthService) Logoff(token string) error {
	hash := HashToken(token)
	if err := as.store.DeleteToken(hash); err != nil {
		slog.Error("failed to delete token", "error", err)
	}
	return as.liveTokens.Del(hash)
}

// GetUserID resolves a raw session token to a user id.
func (as *AuthService) GetUserID(token string) (string, error) {
	return as.liveTokens.Get(HashToken(token))
}

func (as *AuthService) GetUser(id string) (models.User, bool) {
	key, err := as.ids.Get(id)
	if err != nil {
		return models.User{}, false
	}
	tx := as.users.RLock()
	defer tx.Unlock()
	creds, err := tx.Get(key)
	if err != nil {
		return models.User{}, false
	}
	return creds.User, true
}

// GetUsers returns all active users sorted by name.
func (as *AuthService) GetUsers() []models.User {
	tx := as.users.RLock()
	snapshot := tx.Snapshot()
	tx.Unlock()

	users := make([]models.User, 0, len(snapshot))
	for _, c := range snapshot {
		if c.IsActive {
			users = append(users, c.User)
		}
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].FullName() < users[j].FullName()
	})

	return users
}

// UpdateProfile changes the mutable profile fields of a user.
func (as *AuthService) UpdateProfile(userID, firstName, lastName, profilePicture string) (models.User, error) {
	return as.mutateUser(userID, func(c *UserCredentials) {
		if firstName != "" {
			c.FirstName = firstName
		}
		if lastName != "" {
			c.LastName = lastName
		}
		if profilePicture != "" {
			c.ProfilePicture = profilePicture
		}
	})
}

// SetHasPaid marks the platform access fee as paid.
func (as *AuthService) SetHasPaid(userID string) error {
	_, err := as.mutateUser(userID, func(c *UserCredentials) {
		c.HasPaid = true
	})
	return err
}

// Deactivate disables an account. Used by the moderation API.
func (as *AuthService) Deactivate(userID string) error {
	_, err := as.mutateUser(userID, func(c *UserCredentials) {
		c.IsActive = false
	})
	return err
}

func (as *AuthService) mutateUser(userID string, mutate func(*UserCredentials)) (models.User, error) {
	key, err := as.ids.Get(userID)
	if err != nil {
		return models.User{}, ErrUserNotFound
	}

	tx := as.users.Lock()
	defer tx.Unlock()
	creds, err := tx.Get(key)
	if err != nil {
		return models.User{}, ErrUserNotFound
	}

	mutate(creds)
	if err := as.store.UpsertCredentials(*creds); err != nil {
		return models.User{}, fmt.Errorf("failed to persist credentials: %w", err)
	}
	tx.Set(key, creds)

	return creds.User, nil
}

// ChangePassword verifies the old password and replaces it.
func (as *AuthService) ChangePassword(userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return errors.New("new password cannot be empty")
	}

	key, err := as.ids.Get(userID)
	if err != nil {
		return ErrUserNotFound
	}

	tx := as.users.Lock()
	defer tx.Unlock()
	creds, err := tx.Get(key)
	if err != nil {
		return ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(oldPassword)) != nil {
		return errors.New("old password does not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	creds.PasswordHash = string(hash)
	if err := as.store.UpsertCredentials(*creds); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	tx.Set(key, creds)

	return nil
}

func (as *AuthService) generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
