package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/models"
	"github.com/balkashynov/attendr/internal/parser"
)

type todayResponse struct {
	attendance.Snapshot
	Worked string `json:"worked"`
	Clock  string `json:"clock"`
}

func snapshotResponse(s attendance.Snapshot) todayResponse {
	return todayResponse{
		Snapshot: s,
		Worked:   attendance.FormatHoursMinutes(s.TotalSeconds),
		Clock:    attendance.FormatClock(s.LiveSeconds),
	}
}

func (h *handlers) today(c *fiber.Ctx) error {
	snap, err := h.Machine.Status(c.UserContext(), sessionFrom(c), h.Now())
	if err != nil {
		return err
	}
	return Success(c, "OK", snapshotResponse(snap))
}

func (h *handlers) clockIn(c *fiber.Ctx) error {
	rec, err := h.Machine.ClockIn(c.UserContext(), sessionFrom(c), h.Now())
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "Clocked in", rec)
}

func (h *handlers) clockOut(c *fiber.Ctx) error {
	rec, err := h.Machine.ClockOut(c.UserContext(), sessionFrom(c), h.Now())
	if err != nil {
		return err
	}
	return Success(c, "Clocked out", fiber.Map{
		"record": rec,
		"worked": attendance.FormatHoursMinutes(rec.TotalSeconds),
	})
}

func (h *handlers) dashboard(c *fiber.Ctx) error {
	stats, err := h.Dashboard.Refresh(c.UserContext(), sessionFrom(c), h.Now(), attendance.MonthStats{})
	if err != nil {
		return err
	}
	return Success(c, "OK", stats)
}

func (h *handlers) records(c *fiber.Ctx) error {
	now := h.Now()
	month, err := parser.ParseMonth(c.Query("month"), now.In(h.Machine.Location()))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	end := month.AddDate(0, 1, -1)

	records, err := h.Dashboard.Records(c.UserContext(), sessionFrom(c), month, end)
	if err != nil {
		return err
	}
	days := attendance.DailyTotals(records, h.Logger)
	var total int64
	for _, d := range days {
		total += d.TotalSeconds
	}
	return Success(c, "OK", fiber.Map{
		"month":         month.Format("2006-01"),
		"days":          days,
		"records":       nonNilRecords(records),
		"total_seconds": total,
		"worked":        attendance.FormatHoursMinutes(total),
	})
}

func nonNilRecords(records []models.ClockRecord) []models.ClockRecord {
	if records == nil {
		return []models.ClockRecord{}
	}
	return records
}
