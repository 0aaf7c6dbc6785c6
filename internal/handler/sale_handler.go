package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go-pos-backoffice/internal/export"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/receipt"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

const salesListPath = "/sales/"

// ReceiptRenderer draws a printable receipt of a loaded sale.
type ReceiptRenderer interface {
	Render(w io.Writer, sale *model.Sale) error
}

type SaleHandler struct {
	saleService     service.SaleService
	customerService service.CustomerService
	catalogService  service.CatalogService
	receipts        ReceiptRenderer
	view            *View
	loc             *time.Location
}

func NewSaleHandler(
	sales service.SaleService,
	customers service.CustomerService,
	catalog service.CatalogService,
	receipts ReceiptRenderer,
	view *View,
	loc *time.Location,
) *SaleHandler {
	if loc == nil {
		loc = time.Local
	}
	return &SaleHandler{
		saleService:     sales,
		customerService: customers,
		catalogService:  catalog,
		receipts:        receipts,
		view:            view,
		loc:             loc,
	}
}

// filter reads ?from=YYYY-MM-DD&to=YYYY-MM-DD. Both days are inclusive.
func (h *SaleHandler) filter(c *fiber.Ctx) (repository.SaleFilter, error) {
	var f repository.SaleFilter
	if s := strings.TrimSpace(c.Query("from")); s != "" {
		from, err := time.ParseInLocation("2006-01-02", s, h.loc)
		if err != nil {
			return f, fmt.Errorf("invalid from date %q", s)
		}
		f.From = from
	}
	if s := strings.TrimSpace(c.Query("to")); s != "" {
		to, err := time.ParseInLocation("2006-01-02", s, h.loc)
		if err != nil {
			return f, fmt.Errorf("invalid to date %q", s)
		}
		f.To = to.AddDate(0, 0, 1)
	}
	return f, nil
}

// List renders all sales
// GET /sales/
func (h *SaleHandler) List(c *fiber.Ctx) error {
	f, err := h.filter(c)
	if err != nil {
		return h.view.Redirect(c, salesListPath, "danger", err.Error())
	}
	sales, err := h.saleService.ListSales(f)
	if err != nil {
		return err
	}
	return h.view.Render(c, "sales/list", "sales", fiber.Map{
		"Title": "Sales",
		"Sales": sales,
		"From":  c.Query("from"),
		"To":    c.Query("to"),
	})
}

// AddPage renders the checkout form
// GET /sales/add/
func (h *SaleHandler) AddPage(c *fiber.Ctx) error {
	customers, err := h.customerService.Options()
	if err != nil {
		return err
	}
	return h.view.Render(c, "sales/add", "sales", fiber.Map{
		"Title":     "New sale",
		"Customers": customers,
	})
}

// Add records a sale posted by the checkout form
// POST /sales/add/
func (h *SaleHandler) Add(c *fiber.Ctx) error {
	if !isAjax(c) {
		return h.view.Redirect(c, salesListPath, "warning", "Sales must be submitted from the sales form")
	}

	var req service.CreateSaleRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return h.view.Redirect(c, salesListPath, "danger", "There was an error during the creation!")
	}

	if _, err := h.saleService.CreateSale(&req, getUserID(c), getUserName(c)); err != nil {
		return h.view.Fail(c, salesListPath, err)
	}
	return h.view.Redirect(c, salesListPath, "success", "Sale created successfully!")
}

// Detail renders one sale with its lines
// GET /sales/:id/
func (h *SaleHandler) Detail(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return h.view.Redirect(c, salesListPath, "danger", "There was an error getting the sale!")
	}
	sale, err := h.saleService.GetSale(id)
	if err != nil {
		return h.view.Fail(c, salesListPath, err)
	}
	return h.view.Render(c, "sales/detail", "sales", fiber.Map{
		"Title": "Sale details",
		"Sale":  sale,
	})
}

// Receipt streams the PDF receipt of a sale
// GET /sales/:id/receipt/
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Sale not found")
	}
	sale, err := h.saleService.GetSale(id)
	if err != nil {
		if service.IsNotFound(err) {
			return fiber.NewError(fiber.StatusNotFound, "Sale not found")
		}
		return err
	}

	var buf bytes.Buffer
	if err := h.receipts.Render(&buf, sale); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, receipt.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, sale.ID.String()[:8]))
	return c.Send(buf.Bytes())
}

// Export downloads the (filtered) sales list as a spreadsheet
// GET /sales/export.xlsx
func (h *SaleHandler) Export(c *fiber.Ctx) error {
	f, err := h.filter(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	sales, err := h.saleService.ListSales(f)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.WriteSales(&buf, sales, h.loc); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="sales.xlsx"`)
	return c.Send(buf.Bytes())
}

// SearchProducts feeds the checkout product picker
// GET /sales/products/search?term=
func (h *SaleHandler) SearchProducts(c *fiber.Ctx) error {
	options, err := h.catalogService.SearchProducts(c.Query("term"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to search products"})
	}
	return c.JSON(options)
}
