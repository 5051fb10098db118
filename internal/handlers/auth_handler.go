package handlers

import (
	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	limiter     fiber.Handler
}

// NewAuthHandler creates a new AuthHandler. limiter guards the public routes
// and may be nil.
func NewAuthHandler(authService *services.AuthService, limiter fiber.Handler) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    services.NewValidator(),
		limiter:     limiter,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	authRoutes := router.Group("/auth")

	limited := func(handler fiber.Handler) []fiber.Handler {
		if h.limiter == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{h.limiter, handler}
	}
	authRoutes.Post("/signup", limited(h.HandleSignUp)...)
	authRoutes.Post("/verify", limited(h.HandleVerify)...)
	authRoutes.Post("/otp", limited(h.HandleRequestOTP)...)
	authRoutes.Post("/reset-password", limited(h.HandleResetPassword)...)
	authRoutes.Post("/signin", limited(h.HandleSignIn)...)
	authRoutes.Post("/refresh", limited(h.HandleRefresh)...)

	authRoutes.Post("/change-password", authRequired, h.HandleChangePassword)
	authRoutes.Get("/me", authRequired, h.HandleMe)
	authRoutes.Patch("/me", authRequired, h.HandleUpdateMe)
}

// HandleSignUp registers an unverified account and mails its OTP.
func (h *AuthHandler) HandleSignUp(c *fiber.Ctx) error {
	var input services.SignUpInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing signup request body: %v", err)
		return apperrors.Validation("Invalid request body")
	}

	user, err := h.authService.SignUp(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created, check your email for the verification OTP",
		"user":    user,
	})
}

// VerifyRequest is the body of POST /auth/verify.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

func (h *AuthHandler) HandleVerify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.authService.VerifyAccount(c.UserContext(), req.Email, req.OTP); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Account verified successfully"})
}

// OTPRequest is the body of POST /auth/otp.
type OTPRequest struct {
	Email   string            `json:"email" validate:"required,email"`
	Purpose models.OTPPurpose `json:"purpose" validate:"required,oneof=VERIFY RESET"`
}

func (h *AuthHandler) HandleRequestOTP(c *fiber.Ctx) error {
	var req OTPRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.authService.RequestOTP(c.UserContext(), req.Email, req.Purpose); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "OTP sent successfully"})
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.authService.ResetPassword(c.UserContext(), req.Email, req.OTP, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}

// SignInRequest represents the request body for sign in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleSignIn checks credentials and issues a token pair.
func (h *AuthHandler) HandleSignIn(c *fiber.Ctx) error {
	var req SignInRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	result, err := h.authService.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.WithField("email", req.Email).Debugf("sign in failed: %v", err)
		return err
	}
	return c.JSON(result)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	access, err := h.authService.RefreshToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"accessToken": access})
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req ChangePasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.authService.ChangePassword(c.UserContext(), p, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// HandleMe returns the account of the caller.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	user, err := h.authService.CurrentUser(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleUpdateMe changes the profile fields of the caller.
func (h *AuthHandler) HandleUpdateMe(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var input services.ProfileInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing profile request body: %v", err)
		return apperrors.Validation("Invalid request body")
	}
	user, err := h.authService.UpdateProfile(c.UserContext(), p, input)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
