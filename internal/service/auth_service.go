package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stitchline/stitchline-server/internal/cache"
	"github.com/stitchline/stitchline-server/internal/config"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and validates tokens for both the back office
// and the storefront. Separate signing secrets keep the two token
// populations from crossing over.
type AuthService struct {
	adminRepo repository.AdminRepository
	userRepo  repository.UserRepository
	cfg       *config.Config
}

// NewAuthService creates the auth service.
func NewAuthService(adminRepo repository.AdminRepository, userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		adminRepo: adminRepo,
		userRepo:  userRepo,
		cfg:       cfg,
	}
}

// AdminClaims is the back-office token payload.
type AdminClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserClaims is the storefront token payload.
type UserClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AdminLogin verifies credentials and issues a token. Attempts are
// rate limited per username and client IP.
func (s *AuthService) AdminLogin(ctx context.Context, username, password, clientIP string) (*models.Admin, string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	allowed, err := s.loginAllowed(ctx, "admin", username, clientIP)
	if err != nil {
		logger.Warnw("login_rate_limit_check_failed", "username", username, "error", err)
	}
	if !allowed {
		logger.Warnw("admin_login_rate_limited", "username", username, "ip", clientIP)
		return nil, "", time.Time{}, ErrTooManyAttempts
	}

	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if admin == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !admin.Active {
		return nil, "", time.Time{}, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) != nil {
		logger.Warnw("admin_login_failed", "username", username, "ip", clientIP)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateAdminToken(admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.clearLoginAttempts(ctx, "admin", username, clientIP)
	if err := s.adminRepo.TouchLogin(admin.ID, clientIP); err != nil {
		logger.Warnw("admin_login_touch_failed", "admin_id", admin.ID, "error", err)
	}
	if err := cache.SetAdminAuthState(ctx, cache.BuildAdminAuthState(admin)); err != nil {
		logger.Warnw("admin_auth_state_cache_failed", "admin_id", admin.ID, "error", err)
	}

	logger.Infow("admin_login_success", "admin_id", admin.ID, "username", admin.Username, "ip", clientIP)
	return admin, token, expiresAt, nil
}

// ChangeAdminPassword rotates an admin password after checking the
// current one, then drops the cached auth snapshot.
func (s *AuthService) ChangeAdminPassword(ctx context.Context, adminID uint, current, next string) error {
	if len(next) < 8 {
		return ErrInvalidCredentials
	}
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.adminRepo.UpdatePassword(adminID, string(hash)); err != nil {
		return err
	}
	if err := cache.DelAdminAuthState(ctx, adminID); err != nil {
		logger.Warnw("admin_auth_state_invalidate_failed", "admin_id", adminID, "error", err)
	}
	logger.Infow("admin_password_changed", "admin_id", adminID)
	return nil
}

// RegisterUser creates a storefront account.
func (s *AuthService) RegisterUser(email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, ErrInvalidCredentials
	}
	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     strings.TrimSpace(name),
		Active:   true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	logger.Infow("user_registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// UserLogin verifies storefront credentials and issues a token.
func (s *AuthService) UserLogin(ctx context.Context, email, password, clientIP string) (*models.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	allowed, err := s.loginAllowed(ctx, "user", email, clientIP)
	if err != nil {
		logger.Warnw("login_rate_limit_check_failed", "email", email, "error", err)
	}
	if !allowed {
		return nil, "", time.Time{}, ErrTooManyAttempts
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, "", time.Time{}, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateUserToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.clearLoginAttempts(ctx, "user", email, clientIP)
	if err := cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user)); err != nil {
		logger.Warnw("user_auth_state_cache_failed", "user_id", user.ID, "error", err)
	}

	logger.Infow("user_login_success", "user_id", user.ID, "ip", clientIP)
	return user, token, expiresAt, nil
}

// ParseAdminToken validates a back-office token.
func (s *AuthService) ParseAdminToken(tokenString string) (*AdminClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims, ok := token.Claims.(*AdminClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrUnauthorized
}

// ParseUserToken validates a storefront token.
func (s *AuthService) ParseUserToken(tokenString string) (*UserClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrUnauthorized
}

// ResolveAdmin loads the admin behind validated claims, preferring
// the cached snapshot.
func (s *AuthService) ResolveAdmin(ctx context.Context, claims *AdminClaims) (*cache.AdminAuthState, error) {
	if claims == nil || claims.AdminID == 0 {
		return nil, ErrUnauthorized
	}
	state, hit, err := cache.GetAdminAuthState(ctx, claims.AdminID)
	if err != nil {
		logger.Warnw("admin_auth_state_read_failed", "admin_id", claims.AdminID, "error", err)
	}
	if !hit {
		admin, err := s.adminRepo.GetByID(claims.AdminID)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			return nil, ErrUnauthorized
		}
		state = cache.BuildAdminAuthState(admin)
		if err := cache.SetAdminAuthState(ctx, state); err != nil {
			logger.Warnw("admin_auth_state_cache_failed", "admin_id", admin.ID, "error", err)
		}
	}
	if state == nil || !state.Active {
		return nil, ErrAccountDisabled
	}
	return state, nil
}

// ResolveUser loads the storefront account behind validated claims,
// preferring the cached snapshot.
func (s *AuthService) ResolveUser(ctx context.Context, claims *UserClaims) (*cache.UserAuthState, error) {
	if claims == nil || claims.UserID == 0 {
		return nil, ErrUnauthorized
	}
	state, hit, err := cache.GetUserAuthState(ctx, claims.UserID)
	if err != nil {
		logger.Warnw("user_auth_state_read_failed", "user_id", claims.UserID, "error", err)
	}
	if !hit {
		user, err := s.userRepo.GetByID(claims.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUnauthorized
		}
		state = cache.BuildUserAuthState(user)
		if err := cache.SetUserAuthState(ctx, state); err != nil {
			logger.Warnw("user_auth_state_cache_failed", "user_id", user.ID, "error", err)
		}
	}
	if state == nil || !state.Active {
		return nil, ErrAccountDisabled
	}
	return state, nil
}

func (s *AuthService) generateAdminToken(admin *models.Admin) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)
	claims := AdminClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (s *AuthService) generateUserToken(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.UserJWT.ExpireHours) * time.Hour)
	claims := UserClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (s *AuthService) loginAllowed(ctx context.Context, scope, principal, clientIP string) (bool, error) {
	limit := s.cfg.Security.LoginRateLimit
	if limit.MaxAttempts <= 0 {
		return true, nil
	}
	window := time.Duration(limit.WindowSeconds) * time.Second
	if window <= 0 {
		window = 5 * time.Minute
	}
	key := fmt.Sprintf("%s:%s:%s", scope, principal, clientIP)
	return cache.LoginAttempt(ctx, key, window, limit.MaxAttempts)
}

func (s *AuthService) clearLoginAttempts(ctx context.Context, scope, principal, clientIP string) {
	key := fmt.Sprintf("%s:%s:%s", scope, principal, clientIP)
	if err := cache.ClearLoginAttempts(ctx, key); err != nil {
		logger.Warnw("login_rate_limit_clear_failed", "key", key, "error", err)
	}
}
