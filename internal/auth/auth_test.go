package auth

import (
	"context"
	"testing"
	"time"

	"hireline/internal/models"
)

// memStore is an in-memory Storage for tests.
type memStore struct {
	creds  map[string]UserCredentials
	tokens map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		creds:  make(map[string]UserCredentials),
		tokens: make(map[string]string),
	}
}

func (m *memStore) UpsertCredentials(c UserCredentials) error {
	m.creds[c.User.ID] = c
	return nil
}

func (m *memStore) ListCredentials() ([]UserCredentials, error) {
	out := make([]UserCredentials, 0, len(m.creds))
	for _, c := range m.creds {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) UpsertToken(hash, userID string) error {
	m.tokens[hash] = userID
	return nil
}

func (m *memStore) DeleteToken(hash string) error {
	delete(m.tokens, hash)
	return nil
}

func (m *memStore) ListTokens() (map[string]string, error) {
	out := make(map[string]string, len(m.tokens))
	for k, v := range m.tokens {
		out[k] = v
	}
	return out, nil
}

func createService(t *testing.T) (*AuthService, *memStore, *time.Time) {
	t.Helper()

	store := newMemStore()
	svc, err := NewAuthService(context.Background(), Config{TokenExpiry: time.Hour}, store)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	currentTime := time.Unix(1700000000, 0)
	svc.now = func() time.Time {
		return currentTime
	}

	return svc, store, &currentTime
}

func registerReq(email string) RegisterRequest {
	return RegisterRequest{
		Email:     email,
		Password:  "pass1",
		FirstName: "Alice",
		LastName:  "Smith",
		UserType:  models.UserTypeFreelancer,
	}
}

func TestAuthService(t *testing.T) {
	t.Run("Register", func(t *testing.T) {
		svc, store, _ := createService(t)

		u1, err := svc.Register(registerReq("alice@example.com"))
		if err != nil {
			t.Fatalf("Failed to register: %v", err)
		}
		if u1.ID == "" {
			t.Error("Expected user id to be set")
		}
		if u1.Email != "alice@example.com" {
			t.Errorf("Expected normalized email, got %q", u1.Email)
		}
		if !u1.IsActive {
			t.Error("Expected new user to be active")
		}

		// Duplicate email (case-insensitive) is rejected.
		if _, err := svc.Register(registerReq("Alice@Example.COM")); err != ErrUserExists {
			t.Errorf("Expected ErrUserExists, got %v", err)
		}

		if len(store.creds) != 1 {
			t.Errorf("Expected 1 persisted credential, got %d", len(store.creds))
		}
	})

	t.Run("Register rejects unknown role", func(t *testing.T) {
		svc, _, _ := createService(t)

		req := registerReq("bob@example.com")
		req.UserType = "admin"
		if _, err := svc.Register(req); err == nil {
			t.Error("Expected error for unknown user type")
		}
	})

	t.Run("LoginSuccess", func(t *testing.T) {
		svc, store, _ := createService(t)
		u, _ := svc.Register(registerReq("alice@example.com"))

		resp := svc.Login(LoginRequest{Email: "alice@example.com", Password: "pass1"})
		if !resp.Success {
			t.Fatalf("Login failed: %s", resp.Message)
		}
		if resp.Token == "" {
			t.Error("Expected token")
		}
		if resp.User == nil || resp.User.ID != u.ID {
			t.Error("Expected user in login response")
		}

		// Token resolves to the user and its hash is persisted.
		userID, err := svc.GetUserID(resp.Token)
		if err != nil {
			t.Fatalf("GetUserID failed: %v", err)
		}
		if userID != u.ID {
			t.Errorf("Expected %s, got %s", u.ID, userID)
		}
		if _, ok := store.tokens[HashToken(resp.Token)]; !ok {
			t.Error("Expected token hash persisted")
		}
	})

	t.Run("LoginWrongPassword", func(t *testing.T) {
		svc, _, _ := createService(t)
		_, _ = svc.Register(registerReq("alice@example.com"))

		resp := svc.Login(LoginRequest{Email: "alice@example.com", Password: "wrong"})
		if resp.Success {
			t.Error("Expected login to fail")
		}
		if resp.Message != loginFailedMessage {
			t.Errorf("Unexpected message: %s", resp.Message)
		}
	})

	t.Run("LoginThrottling", func(t *testing.T) {
		svc, _, now := createService(t)
		_, _ = svc.Register(registerReq("alice@example.com"))

		for i := 0; i < 5; i++ {
			_ = svc.Login(LoginRequest{Email: "alice@example.com", Password: "wrong"})
		}

		// Even the correct password is throttled now.
		resp := svc.Login(LoginRequest{Email: "alice@example.com", Password: "pass1"})
		if resp.Success {
			t.Error("Expected throttled login to fail")
		}

		// After the backoff window it succeeds.
		*now = now.Add(30 * 25 * time.Second)
		resp = svc.Login(LoginRequest{Email: "alice@example.com", Password: "pass1"})
		if !resp.Success {
			t.Errorf("Expected login to succeed after backoff: %s", resp.Message)
		}
	})

	t.Run("Logoff", func(t *testing.T) {
		svc, _, _ := createService(t)
		_, _ = svc.Register(registerReq("alice@example.com"))

		resp := svc.Login(LoginRequest{Email: "alice@example.com", Password: "pass1"})
		if !resp.Success {
			t.Fatal("Login failed")
		}

		if err := svc.Logoff(resp.Token); err != nil {
			t.Fatalf("Logoff failed: %v", err)
		}
		if _, err := svc.GetUserID(resp.Token); err == nil {
			t.Error("Expected token to be invalid after logoff")
		}
	})

	t.Run("DeactivatedUserCannotLogin", func(t *testing.T) {
		svc, _, _ := createService(t)
		u, _ := svc.Register(registerReq("alice@example.com"))

		if err := svc.Deactivate(u.ID); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}

		resp := svc.Login(LoginRequest{Email: "alice@example.com", Password: "pass1"})
		if resp.Success {
			t.Error("Expected deactivated user login to fail")
		}
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		svc, _, _ := createService(t)
		u, _ := svc.Register(registerReq("alice@example.com"))

		updated, err := svc.UpdateProfile(u.ID, "Alicia", "", "file123")
		if err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		if updated.FirstName != "Alicia" || updated.LastName != "Smith" {
			t.Errorf("Unexpected name: %s", updated.FullName())
		}
		if updated.ProfilePicture != "file123" {
			t.Errorf("Unexpected avatar: %s", updated.ProfilePicture)
		}
	})

	t.Run("ChangePassword", func(t *testing.T) {
		svc, _, _ := createService(t)
		u, _ := svc.Register(registerReq("alice@example.com"))

		if err := svc.ChangePassword(u.ID, "wrong", "new"); err == nil {
			t.Error("Expected change with wrong old password to fail")
		}
		if err := svc.ChangePassword(u.ID, "pass1", "pass2"); err != nil {
			t.Fatalf("ChangePassword failed: %v", err)
		}

		resp := svc.Login(LoginRequest{Email: "alice@example.com", Password: "pass2"})
		if !resp.Success {
			t.Errorf("Login with new password failed: %s", resp.Message)
		}
	})

	t.Run("PersistenceRoundTrip", func(t *testing.T) {
		svc, store, _ := createService(t)
		u, _ := svc.Register(registerReq("alice@example.com"))
		resp := svc.Login(LoginRequest{Email: "alice@example.com", Password: "pass1"})
		if !resp.Success {
			t.Fatal("Login failed")
		}

		// A new service over the same store sees the user and the session.
		svc2, err := NewAuthService(context.Background(), Config{TokenExpiry: time.Hour}, store)
		if err != nil {
			t.Fatalf("Failed to create second service: %v", err)
		}
		if _, ok := svc2.GetUser(u.ID); !ok {
			t.Error("Expected user to survive restart")
		}
		userID, err := svc2.GetUserID(resp.Token)
		if err != nil || userID != u.ID {
			t.Errorf("Expected token to survive restart, got (%s, %v)", userID, err)
		}
	})
}
