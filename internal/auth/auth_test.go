package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/balkashynov/attendr/internal/models"
)

type memUsers struct {
	byID map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (m *memUsers) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = "u-" + u.Email
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.byID[id], nil
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatalf("expected password to match its hash")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestIssuerRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	u := &models.User{ID: "u1", Email: "a@b.co", Role: models.RoleAdmin}

	token, expires, err := issuer.Issue(u)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected expiry in the future, got %v", expires)
	}

	sess, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if sess.UserID != "u1" || sess.Email != "a@b.co" || !sess.IsAdmin() {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestIssuerRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	u := &models.User{ID: "u1", Email: "a@b.co", Role: models.RoleEmployee}

	expired, _, err := issuer.Issue(u)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if _, err := NewIssuer("test-secret", time.Minute).Parse(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	foreign, _, err := NewIssuer("other-secret", time.Hour).Issue(u)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if _, err := NewIssuer("test-secret", time.Hour).Parse(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign token, got %v", err)
	}
}

func TestServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemUsers(), NewIssuer("test-secret", time.Hour))

	u, err := svc.Register(ctx, RegisterInput{Email: " Ana@Example.com ", Password: "password1", FullName: "Ana"})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if u.Email != "ana@example.com" || u.Role != models.RoleEmployee || u.FaceName != "Ana" {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := svc.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "password2", FullName: "Ana 2"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	token, _, sess, err := svc.Login(ctx, "ANA@example.com", "password1")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if token == "" || sess.UserID != u.ID {
		t.Fatalf("unexpected login result token=%q sess=%+v", token, sess)
	}

	if _, _, _, err := svc.Login(ctx, "ana@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "ghost@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestZeroSessionIsUnauthenticated(t *testing.T) {
	var s Session
	if s.Authenticated() || s.IsAdmin() {
		t.Fatalf("zero session must not be authenticated")
	}
}
