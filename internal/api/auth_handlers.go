package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/balkashynov/attendr/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *handlers) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return h.Validate.Struct(dst)
}

func (h *handlers) register(c *fiber.Ctx) error {
	var in auth.RegisterInput
	if err := h.bind(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "Account created", u)
}

func (h *handlers) login(c *fiber.Ctx) error {
	var in loginRequest
	if err := h.bind(c, &in); err != nil {
		return err
	}
	token, expires, sess, err := h.Auth.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return err
	}
	return Success(c, "Logged in", fiber.Map{
		"token":      token,
		"expires_at": expires,
		"session":    sess,
	})
}

func (h *handlers) me(c *fiber.Ctx) error {
	u, err := h.Auth.User(c.UserContext(), sessionFrom(c))
	if err != nil {
		return err
	}
	if u == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "account no longer exists")
	}
	return Success(c, "OK", u)
}
