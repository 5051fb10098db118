package services

import (
	"errors"
	"fmt"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims is the payload of both access and refresh tokens.
type Claims struct {
	ID   string      `json:"id"`
	Role models.Role `json:"role"`
	jwt.StandardClaims
}

// TokenPair is the credential set returned on sign in.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// TokenIssuer mints and verifies HS256 tokens. Access and refresh tokens are
// signed with different secrets so neither can stand in for the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. Zero TTLs fall back to 15 minutes
// and 7 days.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock returns a copy of the issuer that stamps tokens using now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	c := *i
	c.now = now
	return &c
}

func (i *TokenIssuer) sign(id string, role models.Role, secret []byte, ttl time.Duration) (string, time.Time, error) {
	issuedAt := i.now()
	expiresAt := issuedAt.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:   id,
		Role: role,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Subject:   id,
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// IssueAccess mints an access token for the account.
func (i *TokenIssuer) IssueAccess(id string, role models.Role) (string, time.Time, error) {
	return i.sign(id, role, i.accessSecret, i.accessTTL)
}

// IssueCredentials mints an access and a refresh token for user.
func (i *TokenIssuer) IssueCredentials(user *models.User) (*TokenPair, error) {
	access, accessExp, err := i.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := i.sign(user.ID, user.Role, i.refreshSecret, i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess validates an access token and returns its principal.
func (i *TokenIssuer) VerifyAccess(token string) (*Principal, error) {
	if token == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	return parse(token, i.accessSecret)
}

// ParseRefresh validates a refresh token. Every failure, expiry included,
// is reported as ErrTokenInvalid.
func (i *TokenIssuer) ParseRefresh(token string) (*Principal, error) {
	p, err := parse(token, i.refreshSecret)
	if err != nil {
		return nil, apperrors.ErrTokenInvalid.WithMessage("Refresh token is invalid or expired").Wrap(err)
	}
	return p, nil
}

func parse(tokenString string, secret []byte) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, tokenError(err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, apperrors.ErrTokenInvalid
	}
	return &Principal{ID: claims.ID, Role: claims.Role}, nil
}

func tokenError(err error) error {
	var verr *jwt.ValidationError
	if !errors.As(err, &verr) {
		return apperrors.ErrTokenInvalid.Wrap(err)
	}
	const forged = jwt.ValidationErrorMalformed | jwt.ValidationErrorSignatureInvalid | jwt.ValidationErrorUnverifiable
	if verr.Errors&forged != 0 {
		return apperrors.ErrTokenInvalid.Wrap(err)
	}
	if verr.Errors&jwt.ValidationErrorExpired != 0 {
		return apperrors.ErrTokenExpired.Wrap(err)
	}
	return apperrors.ErrTokenInvalid.Wrap(err)
}
