package api

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/balkashynov/attendr/internal/geo"
	"github.com/balkashynov/attendr/internal/models"
)

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type verifyRequest struct {
	locationRequest
	// Action, when set, is performed once the face matches
	Action string `json:"action" validate:"omitempty,oneof=clock_in clock_out"`
}

func (r locationRequest) point() geo.Point {
	return geo.Point{Lat: r.Latitude, Lon: r.Longitude}
}

func (h *handlers) faceHealth(c *fiber.Ctx) error {
	health, err := h.Face.Health(c.UserContext())
	if err != nil {
		return err
	}
	return Success(c, "OK", health)
}

func (h *handlers) checkLocation(c *fiber.Ctx) error {
	var in locationRequest
	if err := h.bind(c, &in); err != nil {
		return err
	}
	inside, distance := h.Fence.Check(in.point())
	return Success(c, "OK", fiber.Map{
		"inside":          inside,
		"distance_meters": distance,
		"radius_meters":   h.Fence.RadiusMeters,
	})
}

func (h *handlers) verifyFace(c *fiber.Ctx) error {
	var in verifyRequest
	if err := h.bind(c, &in); err != nil {
		return err
	}
	ctx := c.UserContext()
	sess := sessionFrom(c)

	u, err := h.Auth.User(ctx, sess)
	if err != nil {
		return err
	}
	if u == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "account no longer exists")
	}

	detection, err := h.Verifier.Verify(ctx, faceNameOf(u), in.point())
	if err != nil {
		return err
	}
	result := fiber.Map{"detection": detection, "identity": detection.Identity()}

	switch in.Action {
	case "clock_in":
		rec, err := h.Machine.ClockIn(ctx, sess, h.Now())
		if err != nil {
			return err
		}
		result["record"] = rec
	case "clock_out":
		rec, err := h.Machine.ClockOut(ctx, sess, h.Now())
		if err != nil {
			return err
		}
		result["record"] = rec
	}
	return Success(c, "Face verified", result)
}

func (h *handlers) registerFace(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read file")
	}
	defer f.Close()
	image, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read file")
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		u, err := h.Auth.User(c.UserContext(), sessionFrom(c))
		if err != nil {
			return err
		}
		if u != nil {
			name = faceNameOf(u)
		}
	}

	ack, err := h.Face.RegisterFace(c.UserContext(), name, fh.Filename, image)
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, ack.Message, ack)
}

func faceNameOf(u *models.User) string {
	if u.FaceName != "" {
		return u.FaceName
	}
	return u.FullName
}
