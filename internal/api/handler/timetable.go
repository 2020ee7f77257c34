package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/timetable"
)

type TimetableHandler struct {
	timetable *timetable.Timetable
}

// NewTimetableHandler accepts a nil timetable; every route then answers 404.
func NewTimetableHandler(tt *timetable.Timetable) *TimetableHandler {
	return &TimetableHandler{timetable: tt}
}

type DayResponse struct {
	Day   string           `json:"day"`
	Slots []timetable.Slot `json:"slots"`
}

// List GET /v1/timetable
func (h *TimetableHandler) List(c *fiber.Ctx) error {
	if h.timetable == nil {
		return domain.ErrDayNotFound
	}
	return c.JSON(fiber.Map{
		"timetable": h.timetable.Days,
		"days":      h.timetable.DayNames(),
		"subjects":  h.timetable.Subjects(),
	})
}

// Day GET /v1/timetable/:day
func (h *TimetableHandler) Day(c *fiber.Ctx) error {
	if h.timetable == nil {
		return domain.ErrDayNotFound
	}

	slots, err := h.timetable.Slots(c.Params("day"))
	if err != nil {
		return err
	}
	return c.JSON(DayResponse{Day: c.Params("day"), Slots: slots})
}
