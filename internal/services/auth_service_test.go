package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signUpInput(email string) services.SignUpInput {
	dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	return services.SignUpInput{
		Name:        "Jane Doe",
		Email:       email,
		Password:    "password123",
		Phone:       "+15550100",
		DateOfBirth: &dob,
		Role:        models.RoleCustomer,
	}
}

func TestAuthService_SignUpValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	future := time.Now().Add(48 * time.Hour)
	in := signUpInput("future@example.com")
	in.DateOfBirth = &future
	_, err := f.auth.SignUp(ctx, in)
	assertAppErr(t, apperrors.ErrValidation, err)
	assert.Contains(t, err.Error(), "dateOfBirth should not be in the future")

	in = signUpInput("short@example.com")
	in.Password = "1234567"
	_, err = f.auth.SignUp(ctx, in)
	assertAppErr(t, apperrors.ErrValidation, err)
	assert.Contains(t, err.Error(), "password should be minimum 8 characters long")

	in = signUpInput("not-an-email")
	_, err = f.auth.SignUp(ctx, in)
	assertAppErr(t, apperrors.ErrValidation, err)

	in = signUpInput("role@example.com")
	in.Role = models.Role("ADMIN")
	_, err = f.auth.SignUp(ctx, in)
	assertAppErr(t, apperrors.ErrValidation, err)

	assert.Empty(t, f.mailer.Sent())
}

func TestAuthService_SignUpCreatesUnverifiedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.SignUp(ctx, signUpInput("Jane@Example.com"))
	require.NoError(t, err)
	assert.False(t, user.Verified)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	mail := f.mailer.Last(t, "jane@example.com")
	assert.Equal(t, models.OTPPurposeVerify, mail.Purpose)

	stored, err := f.store.Accounts().GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationOTP)
	assert.Equal(t, mail.OTP, *stored.VerificationOTP)
	require.NotNil(t, stored.VerificationOTPExpiry)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *stored.VerificationOTPExpiry, time.Minute)

	_, err = f.auth.SignUp(ctx, signUpInput("jane@example.com"))
	assertAppErr(t, apperrors.ErrAccountExists, err)
}

func TestAuthService_SignUpMailerFailureCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mailer.Err = errors.New("smtp unavailable")

	_, err := f.auth.SignUp(ctx, signUpInput("jane@example.com"))
	assertAppErr(t, apperrors.ErrDependency, err)
	assert.Equal(t, apperrors.KindDependency, apperrors.KindOf(err))

	_, err = f.store.Accounts().GetByEmail(ctx, "jane@example.com")
	assert.Error(t, err)
}

func TestAuthService_VerifyThenSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.SignUp(ctx, signUpInput("jane@example.com"))
	require.NoError(t, err)

	_, err = f.auth.SignIn(ctx, "jane@example.com", "password123")
	assertAppErr(t, apperrors.ErrAccountUnverified, err)
	assert.Equal(t, "Verify your account", err.Error())

	otp := f.mailer.Last(t, "jane@example.com").OTP
	assertAppErr(t, apperrors.ErrOTPInvalidOrExpired, f.auth.VerifyAccount(ctx, "jane@example.com", "000000"))
	require.NoError(t, f.auth.VerifyAccount(ctx, "jane@example.com", otp))
	assertAppErr(t, apperrors.ErrOTPInvalidOrExpired, f.auth.VerifyAccount(ctx, "jane@example.com", otp))
	assertAppErr(t, apperrors.ErrOTPInvalidOrExpired, f.auth.VerifyAccount(ctx, "nobody@example.com", otp))

	before := time.Now()
	result, err := f.auth.SignIn(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, result.User.Verified)
	assert.WithinDuration(t, before.Add(15*time.Minute), result.Tokens.AccessExpiresAt, 2*time.Second)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), result.Tokens.RefreshExpiresAt, 2*time.Second)

	_, err = f.auth.SignIn(ctx, "jane@example.com", "wrong-password")
	assertAppErr(t, apperrors.ErrInvalidCredentials, err)
	_, err = f.auth.SignIn(ctx, "nobody@example.com", "password123")
	assertAppErr(t, apperrors.ErrInvalidCredentials, err)
}

func TestAuthService_VerificationCodeExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Now()
	var mu sync.Mutex
	f.auth.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	_, err := f.auth.SignUp(ctx, signUpInput("jane@example.com"))
	require.NoError(t, err)
	otp := f.mailer.Last(t, "jane@example.com").OTP

	mu.Lock()
	now = now.Add(10*time.Minute + time.Second)
	mu.Unlock()
	assertAppErr(t, apperrors.ErrOTPInvalidOrExpired, f.auth.VerifyAccount(ctx, "jane@example.com", otp))

	require.NoError(t, f.auth.RequestOTP(ctx, "jane@example.com", models.OTPPurposeVerify))
	fresh := f.mailer.Last(t, "jane@example.com").OTP
	require.NoError(t, f.auth.VerifyAccount(ctx, "jane@example.com", fresh))
}

func TestAuthService_ConcurrentVerificationSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.SignUp(ctx, signUpInput("jane@example.com"))
	require.NoError(t, err)
	otp := f.mailer.Last(t, "jane@example.com").OTP

	const attempts = 5
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.auth.VerifyAccount(ctx, "jane@example.com", otp)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assertAppErr(t, apperrors.ErrOTPInvalidOrExpired, err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestAuthService_ResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.SignUp(ctx, signUpInput("jane@example.com"))
	require.NoError(t, err)
	require.NoError(t, f.auth.VerifyAccount(ctx, "jane@example.com", f.mailer.Last(t, "jane@example.com").OTP))

	assertAppErr(t, apperrors.ErrAccountNotFound, f.auth.RequestOTP(ctx, "nobody@example.com", models.OTPPurposeReset))
	assertAppErr(t, apperrors.ErrValidation, f.auth.RequestOTP(ctx, "jane@example.com", models.OTPPurpose("LOGIN")))

	require.NoError(t, f.auth.RequestOTP(ctx, "jane@example.com", models.OTPPurposeReset))
	mail := f.mailer.Last(t, "jane@example.com")
	assert.Equal(t, models.OTPPurposeReset, mail.Purpose)

	assertAppErr(t, apperrors.ErrValidation, f.auth.ResetPassword(ctx, "jane@example.com", mail.OTP, "short"))
	require.NoError(t, f.auth.ResetPassword(ctx, "jane@example.com", mail.OTP, "new-password"))
	assertAppErr(t, apperrors.ErrOTPInvalidOrExpired, f.auth.ResetPassword(ctx, "jane@example.com", mail.OTP, "another-password"))

	_, err = f.auth.SignIn(ctx, "jane@example.com", "password123")
	assertAppErr(t, apperrors.ErrInvalidCredentials, err)
	result, err := f.auth.SignIn(ctx, "jane@example.com", "new-password")
	require.NoError(t, err)
	assert.True(t, result.User.Verified)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.SignUp(ctx, signUpInput("jane@example.com"))
	require.NoError(t, err)
	require.NoError(t, f.auth.VerifyAccount(ctx, "jane@example.com", f.mailer.Last(t, "jane@example.com").OTP))
	signedIn, err := f.auth.SignIn(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	p := services.Principal{ID: signedIn.User.ID, Role: signedIn.User.Role}

	assertAppErr(t, apperrors.ErrIncorrectPassword, f.auth.ChangePassword(ctx, p, "wrong-password", "new-password"))
	assertAppErr(t, apperrors.ErrValidation, f.auth.ChangePassword(ctx, p, "password123", "short"))
	require.NoError(t, f.auth.ChangePassword(ctx, p, "password123", "new-password"))

	_, err = f.auth.SignIn(ctx, "jane@example.com", "new-password")
	require.NoError(t, err)

	me, err := f.auth.CurrentUser(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", me.Email)
}

func TestAuthService_RefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.SignUp(ctx, signUpInput("jane@example.com"))
	require.NoError(t, err)
	require.NoError(t, f.auth.VerifyAccount(ctx, "jane@example.com", f.mailer.Last(t, "jane@example.com").OTP))
	signedIn, err := f.auth.SignIn(ctx, "jane@example.com", "password123")
	require.NoError(t, err)

	access, err := f.auth.RefreshToken(ctx, signedIn.Tokens.RefreshToken)
	require.NoError(t, err)
	p, err := f.issuer.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, signedIn.User.ID, p.ID)

	_, err = f.auth.RefreshToken(ctx, signedIn.Tokens.AccessToken)
	assertAppErr(t, apperrors.ErrTokenInvalid, err)

	ghost, err := f.issuer.IssueCredentials(&models.User{ID: "deleted-account", Role: models.RoleCustomer})
	require.NoError(t, err)
	_, err = f.auth.RefreshToken(ctx, ghost.RefreshToken)
	assertAppErr(t, apperrors.ErrTokenInvalid, err)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, p := range []services.Principal{f.customer(t), f.restaurant(t)} {
		name := "  Renamed  "
		phone := "+15550199"
		dob := time.Date(1985, 1, 2, 0, 0, 0, 0, time.UTC)
		user, err := f.auth.UpdateProfile(ctx, p, services.ProfileInput{Name: &name, Phone: &phone, DateOfBirth: &dob})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", user.Name)
		assert.Equal(t, phone, user.Phone)
		require.NotNil(t, user.DateOfBirth)
		assert.True(t, dob.Equal(*user.DateOfBirth))

		stored, err := f.auth.CurrentUser(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", stored.Name)
		assert.Equal(t, p.Role, stored.Role)
	}
}

func TestAuthService_UpdateProfileLeavesNilFieldsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.customer(t)
	before, err := f.auth.CurrentUser(ctx, p)
	require.NoError(t, err)

	phone := "+15550123"
	user, err := f.auth.UpdateProfile(ctx, p, services.ProfileInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, before.Name, user.Name)
	assert.Equal(t, phone, user.Phone)

	user, err = f.auth.UpdateProfile(ctx, p, services.ProfileInput{})
	require.NoError(t, err)
	assert.Equal(t, phone, user.Phone)
}

func TestAuthService_UpdateProfileValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.customer(t)

	future := time.Now().Add(48 * time.Hour)
	_, err := f.auth.UpdateProfile(ctx, p, services.ProfileInput{DateOfBirth: &future})
	assertAppErr(t, apperrors.ErrValidation, err)
	assert.Contains(t, err.Error(), "dateOfBirth should not be in the future")

	blank := "   "
	_, err = f.auth.UpdateProfile(ctx, p, services.ProfileInput{Name: &blank})
	assertAppErr(t, apperrors.ErrValidation, err)

	_, err = f.auth.UpdateProfile(ctx, services.Principal{ID: "missing", Role: models.RoleCustomer}, services.ProfileInput{})
	assertAppErr(t, apperrors.ErrAccountNotFound, err)
}
