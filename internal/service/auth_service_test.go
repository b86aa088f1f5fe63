package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stitchline/stitchline-server/internal/config"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T, env *serviceTestEnv) *AuthService {
	t.Helper()
	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "admin-test-secret-admin-test-secret", ExpireHours: 24},
		UserJWT: config.JWTConfig{SecretKey: "user-test-secret-user-test-secret-1", ExpireHours: 168},
	}
	return NewAuthService(repository.NewAdminRepository(env.db), repository.NewUserRepository(env.db), cfg)
}

func seedAdmin(t *testing.T, env *serviceTestEnv, username, password string, active bool) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	admin := &models.Admin{Username: username, Password: string(hash), Active: active}
	if err := env.db.Create(admin).Error; err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}
	return admin
}

func TestAdminLoginAndTokenRoundTrip(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(t, env)
	seedAdmin(t, env, "jane", "shop-floor-9", true)

	admin, token, expiresAt, err := auth.AdminLogin(context.Background(), "jane", "shop-floor-9", "10.0.0.1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatalf("expected a token with expiry")
	}

	claims, err := auth.ParseAdminToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "jane" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	state, err := auth.ResolveAdmin(context.Background(), claims)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if state.AdminID != admin.ID {
		t.Fatalf("unexpected auth state: %+v", state)
	}

	// last login gets stamped
	reloaded := &models.Admin{}
	if err := env.db.First(reloaded, admin.ID).Error; err != nil {
		t.Fatalf("reload admin failed: %v", err)
	}
	if reloaded.LastLoginAt == nil || reloaded.LastLoginIP != "10.0.0.1" {
		t.Fatalf("expected login stamp, got %v %s", reloaded.LastLoginAt, reloaded.LastLoginIP)
	}
}

func TestAdminLoginRejections(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(t, env)
	seedAdmin(t, env, "jane", "shop-floor-9", true)
	seedAdmin(t, env, "rex", "irrelevant-pass", false)

	if _, _, _, err := auth.AdminLogin(context.Background(), "jane", "wrong", "ip"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
	if _, _, _, err := auth.AdminLogin(context.Background(), "ghost", "whatever", "ip"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown admin, got: %v", err)
	}
	if _, _, _, err := auth.AdminLogin(context.Background(), "rex", "irrelevant-pass", "ip"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got: %v", err)
	}
	if _, _, _, err := auth.AdminLogin(context.Background(), "", "", "ip"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for blanks, got: %v", err)
	}
}

func TestAdminTokenIsNotAUserToken(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(t, env)
	seedAdmin(t, env, "jane", "shop-floor-9", true)

	_, token, _, err := auth.AdminLogin(context.Background(), "jane", "shop-floor-9", "ip")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := auth.ParseUserToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected admin token to fail user parsing, got: %v", err)
	}
	if _, err := auth.ParseAdminToken("not.a.token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected garbage token to fail, got: %v", err)
	}
}

func TestChangeAdminPassword(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(t, env)
	admin := seedAdmin(t, env, "jane", "shop-floor-9", true)

	if err := auth.ChangeAdminPassword(context.Background(), admin.ID, "shop-floor-9", "short"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected short password rejection, got: %v", err)
	}
	if err := auth.ChangeAdminPassword(context.Background(), admin.ID, "wrong-current", "new-floor-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrong current rejection, got: %v", err)
	}
	if err := auth.ChangeAdminPassword(context.Background(), 9999, "x", "new-floor-pass"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unknown admin rejection, got: %v", err)
	}

	if err := auth.ChangeAdminPassword(context.Background(), admin.ID, "shop-floor-9", "new-floor-pass"); err != nil {
		t.Fatalf("change failed: %v", err)
	}
	if _, _, _, err := auth.AdminLogin(context.Background(), "jane", "shop-floor-9", "ip"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should be dead, got: %v", err)
	}
	if _, _, _, err := auth.AdminLogin(context.Background(), "jane", "new-floor-pass", "ip"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}

func TestUserRegisterAndLogin(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(t, env)

	user, err := auth.RegisterUser("  Shopper@Example.COM ", "wardrobe-key-1", "Ada Obi")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "shopper@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}

	if _, err := auth.RegisterUser("shopper@example.com", "wardrobe-key-2", "Other"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got: %v", err)
	}
	if _, err := auth.RegisterUser("new@example.com", "short", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected short password rejection, got: %v", err)
	}

	logged, token, _, err := auth.UserLogin(context.Background(), "SHOPPER@example.com", "wardrobe-key-1", "ip")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("unexpected account: %d", logged.ID)
	}

	claims, err := auth.ParseUserToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != "shopper@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	state, err := auth.ResolveUser(context.Background(), claims)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if state.UserID != user.ID || !state.Active {
		t.Fatalf("unexpected auth state: %+v", state)
	}
}

func TestResolveUserDisabledAccount(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(t, env)

	user, err := auth.RegisterUser("dormant@example.com", "wardrobe-key-1", "x")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, token, _, err := auth.UserLogin(context.Background(), "dormant@example.com", "wardrobe-key-1", "ip")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := auth.ParseUserToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("active", false).Error; err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if _, err := auth.ResolveUser(context.Background(), claims); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got: %v", err)
	}
	if _, err := auth.ResolveUser(context.Background(), &UserClaims{UserID: 424242}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown user, got: %v", err)
	}
}
