package handler

import (
	"errors"
	"time"

	"github.com/Sladrus/messenger-server2/internal/report"
	"github.com/Sladrus/messenger-server2/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reportSvc *service.ReportService
}

func NewReportHandler(reportSvc *service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// reportRequest is the shared body of the three report endpoints. Dates are
// RFC 3339; To is required, From defaults to the epoch.
type reportRequest struct {
	DateRange struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"dateRange"`
	Period string   `json:"period"`
	Type   string   `json:"type"`
	Tags   []string `json:"tags"`
	Users  []string `json:"users"`
	Stages []string `json:"stages"`
}

func (h *ReportHandler) ByPeriods(c *fiber.Ctx) error {
	q, err := h.parse(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	rep, err := h.reportSvc.ByPeriods(c.Context(), q)
	if err != nil {
		return reportError(c, err)
	}
	return c.JSON(rep)
}

func (h *ReportHandler) ByUsers(c *fiber.Ctx) error {
	q, err := h.parse(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	rep, err := h.reportSvc.ByUsers(c.Context(), q)
	if err != nil {
		return reportError(c, err)
	}
	return c.JSON(rep)
}

func (h *ReportHandler) ByTags(c *fiber.Ctx) error {
	q, err := h.parse(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	rep, err := h.reportSvc.ByTags(c.Context(), q)
	if err != nil {
		return reportError(c, err)
	}
	return c.JSON(rep)
}

func (h *ReportHandler) parse(c *fiber.Ctx) (service.HistoryQuery, error) {
	var req reportRequest
	if err := c.BodyParser(&req); err != nil {
		return service.HistoryQuery{}, errors.New("invalid request body")
	}
	if req.DateRange.EndDate == "" {
		return service.HistoryQuery{}, errors.New("dateRange.endDate is required")
	}

	q := service.HistoryQuery{Type: req.Type}

	to, err := time.Parse(time.RFC3339, req.DateRange.EndDate)
	if err != nil {
		return q, errors.New("invalid dateRange.endDate")
	}
	q.To = to

	if req.DateRange.StartDate != "" {
		from, err := time.Parse(time.RFC3339, req.DateRange.StartDate)
		if err != nil {
			return q, errors.New("invalid dateRange.startDate")
		}
		q.From = from
	}

	switch req.Period {
	case "month":
		q.Period = report.ByMonth
	default:
		q.Period = report.ByWeek
	}

	if q.Tags, err = objectIDs(req.Tags); err != nil {
		return q, errors.New("invalid tag id")
	}
	if q.Users, err = objectIDs(req.Users); err != nil {
		return q, errors.New("invalid user id")
	}
	if q.Stages, err = objectIDs(req.Stages); err != nil {
		return q, errors.New("invalid stage id")
	}

	return q, nil
}

func reportError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrDateRangeRequired) {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(500).JSON(fiber.Map{"error": "failed to build report"})
}
