package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/mailer"
	"foodorder/internal/models"
	"foodorder/internal/repositories"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// SignUpInput is the data required to open an account.
type SignUpInput struct {
	Name        string      `json:"name" validate:"required,max=100"`
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=8"`
	Phone       string      `json:"phone" validate:"omitempty,max=32"`
	DateOfBirth *time.Time  `json:"dateOfBirth" validate:"omitempty,notfuture"`
	Role        models.Role `json:"role" validate:"required,oneof=CUSTOMER RESTAURANT"`
}

// ProfileInput carries the profile fields a caller may change. Nil fields
// are left untouched.
type ProfileInput struct {
	Name        *string    `json:"name" validate:"omitempty,max=100"`
	Phone       *string    `json:"phone" validate:"omitempty,max=32"`
	DateOfBirth *time.Time `json:"dateOfBirth" validate:"omitempty,notfuture"`
}

type passwordInput struct {
	Password string `json:"password" validate:"required,min=8"`
}

// SignInResult is the account together with a fresh token pair.
type SignInResult struct {
	User   *models.User `json:"user"`
	Tokens *TokenPair   `json:"tokens"`
}

// AuthConfig holds the tunables of AuthService.
type AuthConfig struct {
	OTPTTL        time.Duration
	StoreTimeout  time.Duration
	MailerTimeout time.Duration
}

// AuthService handles sign up, account verification, passwords and sessions.
type AuthService struct {
	store    repositories.Store
	issuer   *TokenIssuer
	mailer   mailer.Mailer
	validate *validator.Validate
	cfg      AuthConfig
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repositories.Store, issuer *TokenIssuer, m mailer.Mailer, cfg AuthConfig) *AuthService {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = DefaultOTPTTL
	}
	if cfg.MailerTimeout <= 0 {
		cfg.MailerTimeout = 10 * time.Second
	}
	return &AuthService{
		store:    store,
		issuer:   issuer,
		mailer:   m,
		validate: NewValidator(),
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for OTP expiry.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) sendOTP(ctx context.Context, email string, purpose models.OTPPurpose) (string, error) {
	otp, err := IssueOTP()
	if err != nil {
		return "", apperrors.Dependency("generate otp", err)
	}
	mctx, cancel := context.WithTimeout(ctx, s.cfg.MailerTimeout)
	defer cancel()
	if err := s.mailer.SendOTPEmail(mctx, email, otp, purpose); err != nil {
		return "", apperrors.Dependency("send otp email", err)
	}
	return otp, nil
}

// SignUp creates an unverified account and mails its verification code.
// Nothing is stored when the mail cannot be sent.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*models.User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, ValidationError(err)
	}

	sctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	_, err := s.store.Accounts().GetByEmail(sctx, input.Email)
	switch {
	case err == nil:
		return nil, apperrors.ErrAccountExists
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, apperrors.Dependency("look up account", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Dependency("hash password", err)
	}

	otp, err := s.sendOTP(ctx, input.Email, models.OTPPurposeVerify)
	if err != nil {
		return nil, err
	}

	expiry := s.now().Add(s.cfg.OTPTTL)
	user := &models.User{
		Name:                  input.Name,
		Email:                 input.Email,
		Phone:                 input.Phone,
		DateOfBirth:           input.DateOfBirth,
		PasswordHash:          string(hashed),
		Role:                  input.Role,
		VerificationOTP:       &otp,
		VerificationOTPExpiry: &expiry,
	}
	if err := s.store.Accounts().Create(sctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrAccountExists
		}
		return nil, apperrors.Dependency("create account", err)
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("account created")
	return user, nil
}

// consume validates code against the slot of purpose and clears it together
// with changes in one conditional write.
func (s *AuthService) consume(ctx context.Context, user *models.User, purpose models.OTPPurpose, code string, changes map[string]interface{}) error {
	stored, expiry := user.OTPSlot(purpose)
	if err := ConsumeOTP(stored, expiry, code, s.now()); err != nil {
		return err
	}
	err := s.store.Accounts().ConsumeOTP(ctx, user.ID, purpose, *stored, changes)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrStaleWrite):
		return apperrors.ErrOTPInvalidOrExpired
	default:
		return apperrors.Dependency("consume otp", err)
	}
}

// VerifyAccount marks the account verified when otp matches its
// verification code.
func (s *AuthService) VerifyAccount(ctx context.Context, email, otp string) error {
	sctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.store.Accounts().GetByEmail(sctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrOTPInvalidOrExpired
		}
		return apperrors.Dependency("look up account", err)
	}
	return s.consume(sctx, user, models.OTPPurposeVerify, otp, map[string]interface{}{"verified": true})
}

// RequestOTP mails a fresh code for purpose and stores it.
func (s *AuthService) RequestOTP(ctx context.Context, email string, purpose models.OTPPurpose) error {
	if !purpose.Valid() {
		return apperrors.Validation("type must be one of: VERIFY RESET")
	}
	email = normalizeEmail(email)

	sctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.store.Accounts().GetByEmail(sctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return apperrors.Dependency("look up account", err)
	}

	otp, err := s.sendOTP(ctx, email, purpose)
	if err != nil {
		return err
	}
	if err := s.store.Accounts().SetOTP(sctx, user.ID, purpose, otp, s.now().Add(s.cfg.OTPTTL)); err != nil {
		return apperrors.Dependency("store otp", err)
	}
	return nil
}

// ResetPassword replaces the password when otp matches the reset code.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if err := s.validate.Struct(passwordInput{Password: newPassword}); err != nil {
		return ValidationError(err)
	}

	sctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.store.Accounts().GetByEmail(sctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return apperrors.Dependency("look up account", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Dependency("hash password", err)
	}
	return s.consume(sctx, user, models.OTPPurposeReset, otp, map[string]interface{}{"password_hash": string(hashed)})
}

// ChangePassword replaces the password of the caller after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, p Principal, oldPassword, newPassword string) error {
	sctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.currentUser(sctx, p)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return apperrors.ErrIncorrectPassword
	}
	if err := s.validate.Struct(passwordInput{Password: newPassword}); err != nil {
		return ValidationError(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Dependency("hash password", err)
	}
	if err := s.store.Accounts().UpdatePassword(sctx, user.ID, string(hashed)); err != nil {
		return apperrors.Dependency("update password", err)
	}
	return nil
}

// SignIn checks the credentials and issues a token pair. Unverified accounts
// are refused.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	sctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.store.Accounts().GetByEmail(sctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Dependency("look up account", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, apperrors.ErrAccountUnverified
	}

	tokens, err := s.issuer.IssueCredentials(user)
	if err != nil {
		return nil, apperrors.Dependency("issue tokens", err)
	}
	return &SignInResult{User: user, Tokens: tokens}, nil
}

// RefreshToken exchanges a refresh token for a new access token. The account
// must still exist.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	p, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	sctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.store.Accounts().GetByID(sctx, p.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperrors.ErrTokenInvalid.WithMessage("Refresh token is invalid or expired")
		}
		return "", apperrors.Dependency("look up account", err)
	}

	access, _, err := s.issuer.IssueAccess(user.ID, user.Role)
	if err != nil {
		return "", apperrors.Dependency("issue token", err)
	}
	return access, nil
}

// CurrentUser returns the account of the caller.
func (s *AuthService) CurrentUser(ctx context.Context, p Principal) (*models.User, error) {
	sctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.currentUser(sctx, p)
}

// UpdateProfile changes the name, phone or date of birth of the caller and
// returns the updated account. Customers and restaurants share it.
func (s *AuthService) UpdateProfile(ctx context.Context, p Principal, input ProfileInput) (*models.User, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, apperrors.Validation("name must not be empty")
		}
		input.Name = &trimmed
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, ValidationError(err)
	}

	sctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	changes := map[string]interface{}{}
	if input.Name != nil {
		changes["name"] = *input.Name
	}
	if input.Phone != nil {
		changes["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.DateOfBirth != nil {
		changes["date_of_birth"] = *input.DateOfBirth
	}
	if len(changes) == 0 {
		return s.currentUser(sctx, p)
	}

	if err := s.store.Accounts().UpdateProfile(sctx, p.ID, changes); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Dependency("update profile", err)
	}
	return s.currentUser(sctx, p)
}

func (s *AuthService) currentUser(ctx context.Context, p Principal) (*models.User, error) {
	user, err := s.store.Accounts().GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Dependency(fmt.Sprintf("load account %s", p.ID), err)
	}
	return user, nil
}
