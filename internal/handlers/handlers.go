package handlers

import (
	"errors"
	"strings"

	"foodorder/internal/apperrors"
	"foodorder/internal/middleware"
	"foodorder/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	log "github.com/sirupsen/logrus"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindValidation:    fiber.StatusBadRequest,
	apperrors.KindNotFound:      fiber.StatusNotFound,
	apperrors.KindConflict:      fiber.StatusConflict,
	apperrors.KindAuth:          fiber.StatusUnauthorized,
	apperrors.KindAuthorization: fiber.StatusForbidden,
	apperrors.KindState:         fiber.StatusUnprocessableEntity,
	apperrors.KindRateLimit:     fiber.StatusTooManyRequests,
	apperrors.KindDependency:    fiber.StatusServiceUnavailable,
}

// ErrorHandler turns errors returned by handlers and middleware into a
// {"code","message"} response. It is installed as the app's fiber.Config.ErrorHandler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		status, ok := kindStatus[appErr.Kind]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		entry := log.WithFields(log.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"code":   appErr.Code,
		})
		if status >= fiber.StatusInternalServerError {
			// The cause stays in the log, the client sees the classified message.
			entry.WithError(err).Error("request failed")
		} else {
			entry.Debug(appErr.Message)
		}
		return c.Status(status).JSON(fiber.Map{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"code":    strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fiberErr.Code), " ", "_")),
			"message": fiberErr.Message,
		})
	}

	log.WithFields(log.Fields{"method": c.Method(), "path": c.Path()}).WithError(err).Error("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"code":    "INTERNAL",
		"message": "Internal server error",
	})
}

// bind parses the request body into dst and validates it.
func bind(c *fiber.Ctx, v *validator.Validate, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return apperrors.Validation("Invalid request body")
	}
	if err := v.Struct(dst); err != nil {
		return services.ValidationError(err)
	}
	return nil
}

// caller returns the principal stored by middleware.AuthRequired.
func caller(c *fiber.Ctx) (services.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return services.Principal{}, apperrors.ErrUnauthenticated
	}
	return p, nil
}
