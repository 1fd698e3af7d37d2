package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/ports"
)

type stubUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return domain.ErrUserExists
	}
	clone := *u
	r.byID[u.ID] = &clone
	r.byEmail[u.Email] = &clone
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *u
	r.byID[u.ID] = &clone
	r.byEmail[u.Email] = &clone
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	var all []*domain.User
	for _, u := range r.byID {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		clone := *u
		all = append(all, &clone)
	}
	return all, int64(len(all)), nil
}

type stubBlacklist struct {
	revoked map[string]int64
}

func newStubBlacklist() *stubBlacklist {
	return &stubBlacklist{revoked: make(map[string]int64)}
}

func (b *stubBlacklist) Revoke(_ context.Context, jti string, ttlSeconds int64) error {
	b.revoked[jti] = ttlSeconds
	return nil
}

func (b *stubBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := b.revoked[jti]
	return ok, nil
}

const testSecret = "test-secret"

func newAuthFixture() (*AuthService, *stubUserRepo, *stubBlacklist) {
	users := newStubUserRepo()
	blacklist := newStubBlacklist()
	// Token expiry is validated against the wall clock when parsing, so the
	// auth fixture cannot run on a frozen past time.
	svc := NewAuthService(users, blacklist, testSecret, time.Hour, ports.SystemClock{}, discardLogger)
	return svc, users, blacklist
}

func TestAuthService_Register(t *testing.T) {
	svc, users, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), "ana@example.com", "s3cret-pass", "Ana Torres")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if user.Role != domain.RoleMember {
		t.Errorf("registration must always create members, got %s", user.Role)
	}
	if !user.Active {
		t.Error("new accounts must be active")
	}
	stored := users.byEmail["ana@example.com"]
	if stored.PasswordHash == "s3cret-pass" {
		t.Error("password must be stored hashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")) != nil {
		t.Error("stored hash must verify against the original password")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "ana@example.com", "s3cret-pass", "Ana"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(context.Background(), "ana@example.com", "other-pass", "Other Ana")
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := newAuthFixture()
	registered, _ := svc.Register(context.Background(), "ana@example.com", "s3cret-pass", "Ana")

	token, user, err := svc.Login(context.Background(), "ana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("expected user %q, got %q", registered.ID, user.ID)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("token must verify against the signing secret: %v", err)
	}
	if claims["sub"] != registered.ID {
		t.Errorf("sub: expected %q, got %v", registered.ID, claims["sub"])
	}
	if claims["role"] != string(domain.RoleMember) {
		t.Errorf("role: expected member, got %v", claims["role"])
	}
	if jti, _ := claims["jti"].(string); jti == "" {
		t.Error("token must carry a jti for revocation")
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, _ = svc.Register(context.Background(), "ana@example.com", "s3cret-pass", "Ana")

	_, _, err := svc.Login(context.Background(), "ana@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown emails must not be distinguishable, got %v", err)
	}
}

func TestAuthService_Login_BlockedAccount(t *testing.T) {
	svc, users, _ := newAuthFixture()
	registered, _ := svc.Register(context.Background(), "ana@example.com", "s3cret-pass", "Ana")

	stored := users.byID[registered.ID]
	stored.Active = false
	users.byEmail[stored.Email] = stored

	_, _, err := svc.Login(context.Background(), "ana@example.com", "s3cret-pass")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("blocked accounts must not log in, got %v", err)
	}
}

func TestAuthService_Logout_RevokesJTI(t *testing.T) {
	svc, _, blacklist := newAuthFixture()
	_, _ = svc.Register(context.Background(), "ana@example.com", "s3cret-pass", "Ana")
	token, _, err := svc.Login(context.Background(), "ana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	claims := jwt.MapClaims{}
	_, _ = jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	jti, _ := claims["jti"].(string)

	revoked, err := blacklist.IsRevoked(context.Background(), jti)
	if err != nil {
		t.Fatal(err)
	}
	if !revoked {
		t.Error("logout must revoke the token's jti")
	}
	if ttl := blacklist.revoked[jti]; ttl <= 0 || ttl > 3600 {
		t.Errorf("revocation ttl must match the remaining token lifetime, got %d", ttl)
	}
}

func TestAuthService_Logout_GarbageToken(t *testing.T) {
	svc, _, _ := newAuthFixture()

	if err := svc.Logout(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
