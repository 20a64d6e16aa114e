package middleware

import (
	"errors"

	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/abisalde/storefront-auth/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every failure as {success:false, message, code}.
// Server errors get a generic message; their cause only goes to the log.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var typed customErrors.TypedError
		if errors.As(err, &typed) {
			if typed.ErrorType() == model.ErrorTypeServer {
				log.Error(c.UserContext(), "request failed",
					"method", c.Method(), "path", c.Path(), "error", errors.Unwrap(typed))
			}
			return render(c, typed.StatusCode(), typed.Error(), typed.ErrorType())
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			errorType := fiberErrorType(fe.Code)
			if errorType == model.ErrorTypeServer {
				log.Error(c.UserContext(), "request failed", "path", c.Path(), "error", fe)
				return render(c, fe.Code, customErrors.SomethingWentWrong.Error(), errorType)
			}
			return render(c, fe.Code, fe.Message, errorType)
		}

		log.Error(c.UserContext(), "unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		return render(c, fiber.StatusInternalServerError, customErrors.SomethingWentWrong.Error(), model.ErrorTypeServer)
	}
}

func render(c *fiber.Ctx, status int, message string, code model.ErrorType) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"code":    code,
	})
}

func fiberErrorType(status int) model.ErrorType {
	switch {
	case status == fiber.StatusUnauthorized:
		return model.ErrorTypeUnauthorized
	case status == fiber.StatusNotFound:
		return model.ErrorTypeNotFound
	case status == fiber.StatusTooManyRequests:
		return model.ErrorTypeRateLimited
	case status >= fiber.StatusInternalServerError:
		return model.ErrorTypeServer
	default:
		return model.ErrorTypeValidation
	}
}
