package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/inkpress/apperr"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
	"github.com/cppla/inkpress/utils"
)

// AuthDeps collects the collaborators of AuthService. Blacklist, Guard and
// Captcha are optional.
type AuthDeps struct {
	Users     store.UserStore
	Tokens    *utils.TokenManager
	Blacklist *utils.TokenBlacklist
	Guard     *utils.AbuseGuard
	// Captcha is checked on registration when set.
	Captcha *utils.Captcha
	// IsAdminEmail grants the admin role on registration.
	IsAdminEmail func(email string) bool
	Log          *zap.Logger
}

// AuthService registers users, issues tokens and resolves them back to
// identities.
type AuthService struct {
	users        store.UserStore
	tokens       *utils.TokenManager
	blacklist    *utils.TokenBlacklist
	guard        *utils.AbuseGuard
	captcha      *utils.Captcha
	isAdminEmail func(string) bool
	log          *zap.Logger
}

func NewAuthService(d AuthDeps) *AuthService {
	s := &AuthService{
		users:        d.Users,
		tokens:       d.Tokens,
		blacklist:    d.Blacklist,
		guard:        d.Guard,
		captcha:      d.Captcha,
		isAdminEmail: d.IsAdminEmail,
		log:          d.Log,
	}
	if s.blacklist == nil {
		s.blacklist = utils.NewTokenBlacklist(nil)
	}
	if s.guard == nil {
		s.guard = utils.NewAbuseGuard(nil, utils.AbuseLimits{})
	}
	if s.isAdminEmail == nil {
		s.isAdminEmail = func(string) bool { return false }
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// CaptchaEnabled reports whether registration requires a captcha.
func (s *AuthService) CaptchaEnabled() bool { return s.captcha != nil }

// NewCaptcha issues a registration captcha.
func (s *AuthService) NewCaptcha() (string, string, error) {
	if s.captcha == nil {
		return "", "", apperr.NotFoundf(40404, "captcha is disabled")
	}
	id, img, err := s.captcha.Generate()
	if err != nil {
		return "", "", apperr.Wrap(err, 50010, "failed to generate captcha")
	}
	return id, img, nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	CaptchaID     string
	CaptchaAnswer string
	ClientIP      string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := utils.SanitizePlain(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.Invalidf(40008, "name, email and password are required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperr.Invalidf(40011, "invalid email address")
	}
	if len(in.Password) < utils.MinPasswordLen || len(in.Password) > utils.MaxPasswordLen {
		return nil, apperr.Invalidf(40009, "password must be between %d and %d characters", utils.MinPasswordLen, utils.MaxPasswordLen)
	}
	if s.captcha != nil && !s.captcha.Verify(strings.TrimSpace(in.CaptchaID), strings.TrimSpace(in.CaptchaAnswer)) {
		return nil, apperr.Invalidf(40010, "invalid or expired captcha")
	}
	if !s.guard.RegisterAllowed(ctx, in.ClientIP) {
		return nil, apperr.RateLimitedf(42910, "too many registration attempts, try again later")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(err, 50011, "failed to hash password")
	}
	role := models.RoleUser
	if s.isAdminEmail(email) {
		role = models.RoleAdmin
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Following:    []string{},
		Followers:    []string{},
		SavedBlogs:   []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflictf(40901, "email already registered")
		}
		return nil, apperr.Wrap(err, 50012, "failed to create user")
	}
	s.guard.RegisterSucceeded(ctx, in.ClientIP)
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      models.Account `json:"user"`
}

// Login checks credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	if s.guard.LoginBanned(ctx, clientIP) {
		return nil, apperr.RateLimitedf(42920, "too many failed logins, try again later")
	}
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Invalidf(40008, "email and password are required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(err, 50013, "failed to load user")
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, password) {
		s.guard.LoginFailed(ctx, clientIP)
		return nil, apperr.Unauthenticatedf(40102, "invalid credentials")
	}
	token, exp, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperr.Wrap(err, 50014, "failed to generate token")
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user.Account()}, nil
}

// Authenticate resolves a bearer token to the current user record.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *utils.Claims, error) {
	if token == "" {
		return nil, nil, apperr.Unauthenticatedf(40101, "authentication required")
	}
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, nil, apperr.Unauthenticatedf(40103, "invalid or expired token")
	}
	if s.blacklist.IsRevoked(ctx, token) {
		return nil, nil, apperr.Unauthenticatedf(40104, "token has been revoked")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.Unauthenticatedf(40105, "user no longer exists")
	}
	if err != nil {
		return nil, nil, apperr.Wrap(err, 50013, "failed to load user")
	}
	return user, claims, nil
}

// Logout revokes token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, token string, claims *utils.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return apperr.Unauthenticatedf(40103, "invalid or expired token")
	}
	if err := s.blacklist.Revoke(ctx, token, claims.ExpiresAt.Time); err != nil {
		return apperr.Wrap(err, 50015, "failed to revoke token")
	}
	return nil
}

// ProfileInput changes the caller's display name and/or password. Changing
// the password requires the current one.
type ProfileInput struct {
	Name            *string
	CurrentPassword string
	NewPassword     *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, caller *models.User, in ProfileInput) (*models.User, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	var name, hash *string
	if in.Name != nil {
		n := utils.SanitizePlain(*in.Name)
		if n == "" {
			return nil, apperr.Invalidf(40008, "name cannot be blank")
		}
		name = &n
	}
	if in.NewPassword != nil {
		if !utils.CheckPassword(caller.PasswordHash, in.CurrentPassword) {
			return nil, apperr.Invalidf(40013, "current password is incorrect")
		}
		h, err := utils.HashPassword(*in.NewPassword)
		if errors.Is(err, utils.ErrPasswordLength) {
			return nil, apperr.Invalidf(40009, "password must be between %d and %d characters", utils.MinPasswordLen, utils.MaxPasswordLen)
		}
		if err != nil {
			return nil, apperr.Wrap(err, 50011, "failed to hash password")
		}
		hash = &h
	}
	if name == nil && hash == nil {
		return caller, nil
	}
	user, err := s.users.UpdateProfile(ctx, caller.ID, name, hash)
	if err != nil {
		return nil, storeErr(err, errUserNotFound, "failed to update profile")
	}
	return user, nil
}
