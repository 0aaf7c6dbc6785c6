package handler

import (
	"strings"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	categoriesPath = "/categories/"
	productsPath   = "/products/"
)

type CatalogHandler struct {
	service service.CatalogService
	view    *View
}

func NewCatalogHandler(s service.CatalogService, view *View) *CatalogHandler {
	return &CatalogHandler{service: s, view: view}
}

type CategoryForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Status      string `form:"status"`
}

func (f *CategoryForm) toModel() *model.Category {
	return &model.Category{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Status:      model.Status(f.Status),
	}
}

type ProductForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Status      string `form:"status"`
	CategoryID  string `form:"category"`
	Price       string `form:"price"`
	BuyingPrice string `form:"buying_price"`
	Quantity    int    `form:"quantity"`
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &service.ValidationError{Field: field, Tag: "decimal"}
	}
	return d, nil
}

func (f *ProductForm) toModel() (*model.Product, error) {
	categoryID, err := uuid.Parse(f.CategoryID)
	if err != nil {
		return nil, &service.ValidationError{Field: "Product.Category", Tag: "required"}
	}
	price, err := parseMoney("Product.Price", f.Price)
	if err != nil {
		return nil, err
	}
	buying, err := parseMoney("Product.BuyingPrice", f.BuyingPrice)
	if err != nil {
		return nil, err
	}
	return &model.Product{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Status:      model.Status(f.Status),
		CategoryID:  categoryID,
		Price:       price,
		BuyingPrice: buying,
		Quantity:    f.Quantity,
	}, nil
}

// ListCategories GET /categories/
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories()
	if err != nil {
		return err
	}
	return h.view.Render(c, "categories/list", "categories", fiber.Map{
		"Title":      "Categories",
		"Categories": categories,
	})
}

// CategoryForm GET /categories/add/ and /categories/:id/edit/
func (h *CatalogHandler) CategoryForm(c *fiber.Ctx) error {
	data := fiber.Map{"Title": "New category", "Category": &model.Category{Status: model.StatusActive}}
	if c.Params("id") != "" {
		id, err := parseUUID(c.Params("id"))
		if err != nil {
			return h.view.Redirect(c, categoriesPath, "danger", "Category not found")
		}
		category, err := h.service.GetCategory(id)
		if err != nil {
			return h.view.Fail(c, categoriesPath, err)
		}
		data["Title"] = "Edit category"
		data["Category"] = category
	}
	return h.view.Render(c, "categories/form", "categories", data)
}

// SaveCategory POST /categories/add/ and /categories/:id/edit/
func (h *CatalogHandler) SaveCategory(c *fiber.Ctx) error {
	var form CategoryForm
	if err := c.BodyParser(&form); err != nil {
		return h.view.Redirect(c, categoriesPath, "danger", "Invalid form submission")
	}
	category := form.toModel()

	if c.Params("id") == "" {
		if err := h.service.CreateCategory(category, getUserID(c)); err != nil {
			return h.view.Fail(c, categoriesPath+"add/", err)
		}
		return h.view.Redirect(c, categoriesPath, "success", "Category: "+category.Name+" created successfully!")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return h.view.Redirect(c, categoriesPath, "danger", "Category not found")
	}
	if _, err := h.service.UpdateCategory(id, category, getUserID(c)); err != nil {
		return h.view.Fail(c, categoriesPath+id.String()+"/edit/", err)
	}
	return h.view.Redirect(c, categoriesPath, "success", "Category: "+category.Name+" updated successfully!")
}

// DeleteCategory POST /categories/:id/delete/
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return h.view.Redirect(c, categoriesPath, "danger", "Category not found")
	}
	if err := h.service.DeleteCategory(id, getUserID(c)); err != nil {
		return h.view.Fail(c, categoriesPath, err)
	}
	return h.view.Redirect(c, categoriesPath, "success", "Category deleted!")
}

// ListProducts GET /products/
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts()
	if err != nil {
		return err
	}
	return h.view.Render(c, "products/list", "products", fiber.Map{
		"Title":    "Products",
		"Products": products,
	})
}

// ProductForm GET /products/add/ and /products/:id/edit/
func (h *CatalogHandler) ProductForm(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories()
	if err != nil {
		return err
	}
	data := fiber.Map{
		"Title":      "New product",
		"Product":    &model.Product{Status: model.StatusActive},
		"Categories": categories,
	}
	if c.Params("id") != "" {
		id, err := parseUUID(c.Params("id"))
		if err != nil {
			return h.view.Redirect(c, productsPath, "danger", "Product not found")
		}
		product, err := h.service.GetProduct(id)
		if err != nil {
			return h.view.Fail(c, productsPath, err)
		}
		data["Title"] = "Edit product"
		data["Product"] = product
	}
	return h.view.Render(c, "products/form", "products", data)
}

// SaveProduct POST /products/add/ and /products/:id/edit/
func (h *CatalogHandler) SaveProduct(c *fiber.Ctx) error {
	var form ProductForm
	if err := c.BodyParser(&form); err != nil {
		return h.view.Redirect(c, productsPath, "danger", "Invalid form submission")
	}

	back := productsPath + "add/"
	if c.Params("id") != "" {
		back = productsPath + c.Params("id") + "/edit/"
	}
	product, err := form.toModel()
	if err != nil {
		return h.view.Fail(c, back, err)
	}

	if c.Params("id") == "" {
		if err := h.service.CreateProduct(product, getUserID(c)); err != nil {
			return h.view.Fail(c, back, err)
		}
		return h.view.Redirect(c, productsPath, "success", "Product: "+product.Name+" created successfully!")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return h.view.Redirect(c, productsPath, "danger", "Product not found")
	}
	if _, err := h.service.UpdateProduct(id, product, getUserID(c)); err != nil {
		return h.view.Fail(c, back, err)
	}
	return h.view.Redirect(c, productsPath, "success", "Product: "+product.Name+" updated successfully!")
}

// DeleteProduct POST /products/:id/delete/
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return h.view.Redirect(c, productsPath, "danger", "Product not found")
	}
	if err := h.service.DeleteProduct(id, getUserID(c)); err != nil {
		return h.view.Fail(c, productsPath, err)
	}
	return h.view.Redirect(c, productsPath, "success", "Product deleted!")
}
