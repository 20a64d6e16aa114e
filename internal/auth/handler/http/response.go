package http

import (
	"github.com/abisalde/storefront-auth/internal/auth"
	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = fiber.NewError(fiber.StatusBadRequest, "Invalid request body")

func success(c *fiber.Ctx, status int, payload fiber.Map) error {
	if payload == nil {
		payload = fiber.Map{}
	}
	payload["success"] = true
	return c.Status(status).JSON(payload)
}

func withEmailStatus(payload fiber.Map, status model.EmailStatus) fiber.Map {
	if status != model.EmailStatusSent {
		payload["emailStatus"] = status
	}
	return payload
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody
	}
	return nil
}

func currentSubject(c *fiber.Ctx) (string, error) {
	id, ok := auth.IdentityFromFiber(c)
	if !ok || id.Subject == "" {
		return "", customErrors.NotAuthorized
	}
	return id.Subject, nil
}
