package handler

import (
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service     service.DashboardService
	saleService service.SaleService
	view        *View
}

func NewDashboardHandler(s service.DashboardService, sales service.SaleService, view *View) *DashboardHandler {
	return &DashboardHandler{service: s, saleService: sales, view: view}
}

// Index renders the dashboard
// GET /
func (h *DashboardHandler) Index(c *fiber.Ctx) error {
	d, err := h.service.GetDashboard(c.UserContext())
	if err != nil {
		return err
	}
	return h.view.Render(c, "dashboard/index", "dashboard", fiber.Map{
		"Title":     "Dashboard",
		"Dashboard": d,
		"Chart":     d.Chart(),
	})
}

// Stats returns the dashboard snapshot as JSON
// GET /dashboard/stats
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	d, err := h.service.GetDashboard(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard"})
	}
	return c.JSON(fiber.Map{"data": d, "chart": d.Chart()})
}

// Counters returns the running totals
// GET /dashboard/counters
func (h *DashboardHandler) Counters(c *fiber.Ctx) error {
	counters, err := h.saleService.Counters()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch counters"})
	}
	return c.JSON(fiber.Map{"data": counters})
}
