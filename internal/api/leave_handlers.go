package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/balkashynov/attendr/internal/leave"
	"github.com/balkashynov/attendr/internal/models"
	"github.com/balkashynov/attendr/internal/parser"
)

type applyLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	TeamName  string `json:"team_name"`
	Reason    string `json:"reason"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

type decideLeaveRequest struct {
	Status models.LeaveStatus `json:"status" validate:"required,oneof=Approved Rejected"`
}

func (h *handlers) applyLeave(c *fiber.Ctx) error {
	var body applyLeaveRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	now := h.Now().In(h.Machine.Location())
	in := leave.ApplyInput{
		LeaveType: body.LeaveType,
		TeamName:  body.TeamName,
		Reason:    body.Reason,
		Days:      body.Days,
	}
	var err error
	if strings.TrimSpace(body.StartDate) != "" {
		if in.StartDate, err = parser.ParseDate(body.StartDate, now); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "start_date: "+err.Error())
		}
	}
	if strings.TrimSpace(body.EndDate) != "" {
		if in.EndDate, err = parser.ParseDate(body.EndDate, now); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "end_date: "+err.Error())
		}
	}

	req, err := h.Leaves.Apply(c.UserContext(), sessionFrom(c), in)
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "Leave application submitted", req)
}

func (h *handlers) myLeaves(c *fiber.Ctx) error {
	reqs, err := h.Leaves.ListMine(c.UserContext(), sessionFrom(c))
	if err != nil {
		return err
	}
	return Success(c, "OK", nonNilLeaves(reqs))
}

func (h *handlers) leaveCounts(c *fiber.Ctx) error {
	counts, err := h.Leaves.Counts(c.UserContext(), sessionFrom(c))
	if err != nil {
		return err
	}
	return Success(c, "OK", counts)
}

func (h *handlers) allLeaves(c *fiber.Ctx) error {
	status := models.LeaveStatus(c.Query("status"))
	reqs, err := h.Leaves.ListAll(c.UserContext(), sessionFrom(c), status)
	if err != nil {
		return err
	}
	return Success(c, "OK", nonNilLeaves(reqs))
}

func (h *handlers) decideLeave(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid leave id")
	}
	var body decideLeaveRequest
	if err := h.bind(c, &body); err != nil {
		return err
	}

	req, err := h.Leaves.Decide(c.UserContext(), sessionFrom(c), uint(id), body.Status)
	if err != nil {
		return err
	}
	return Success(c, "Leave "+strings.ToLower(string(req.Status)), req)
}

func nonNilLeaves(reqs []models.LeaveRequest) []models.LeaveRequest {
	if reqs == nil {
		return []models.LeaveRequest{}
	}
	return reqs
}

