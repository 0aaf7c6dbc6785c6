package handler

import (
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

const customersPath = "/customers/"

type CustomerHandler struct {
	service service.CustomerService
	view    *View
}

func NewCustomerHandler(s service.CustomerService, view *View) *CustomerHandler {
	return &CustomerHandler{service: s, view: view}
}

type CustomerForm struct {
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Address   string `form:"address"`
	Email     string `form:"email"`
	Phone     string `form:"phone"`
}

// List GET /customers/
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	customers, err := h.service.ListCustomers()
	if err != nil {
		return err
	}
	return h.view.Render(c, "customers/list", "customers", fiber.Map{
		"Title":     "Customers",
		"Customers": customers,
	})
}

// Form GET /customers/add/ and /customers/:id/edit/
func (h *CustomerHandler) Form(c *fiber.Ctx) error {
	data := fiber.Map{"Title": "New customer", "Customer": &model.Customer{}}
	if c.Params("id") != "" {
		id, err := parseUUID(c.Params("id"))
		if err != nil {
			return h.view.Redirect(c, customersPath, "danger", "Customer not found")
		}
		customer, err := h.service.GetCustomer(id)
		if err != nil {
			return h.view.Fail(c, customersPath, err)
		}
		data["Title"] = "Edit customer"
		data["Customer"] = customer
	}
	return h.view.Render(c, "customers/form", "customers", data)
}

// Save POST /customers/add/ and /customers/:id/edit/
func (h *CustomerHandler) Save(c *fiber.Ctx) error {
	var form CustomerForm
	if err := c.BodyParser(&form); err != nil {
		return h.view.Redirect(c, customersPath, "danger", "Invalid form submission")
	}
	customer := &model.Customer{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Address:   form.Address,
		Email:     form.Email,
		Phone:     form.Phone,
	}

	if c.Params("id") == "" {
		if err := h.service.CreateCustomer(customer, getUserID(c)); err != nil {
			return h.view.Fail(c, customersPath+"add/", err)
		}
		return h.view.Redirect(c, customersPath, "success", "Customer: "+customer.FullName()+" created successfully!")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return h.view.Redirect(c, customersPath, "danger", "Customer not found")
	}
	updated, err := h.service.UpdateCustomer(id, customer, getUserID(c))
	if err != nil {
		return h.view.Fail(c, customersPath+id.String()+"/edit/", err)
	}
	return h.view.Redirect(c, customersPath, "success", "Customer: "+updated.FullName()+" updated successfully!")
}

// Delete POST /customers/:id/delete/
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return h.view.Redirect(c, customersPath, "danger", "Customer not found")
	}
	if err := h.service.DeleteCustomer(id, getUserID(c)); err != nil {
		return h.view.Fail(c, customersPath, err)
	}
	return h.view.Redirect(c, customersPath, "success", "Customer deleted!")
}

// Options GET /customers/options
func (h *CustomerHandler) Options(c *fiber.Ctx) error {
	options, err := h.service.Options()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch customers"})
	}
	return c.JSON(options)
}
