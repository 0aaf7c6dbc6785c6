package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/receipt"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/seed"
	"go-pos-backoffice/internal/service"
	"go-pos-backoffice/internal/testutil"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type testApp struct {
	app   *fiber.App
	db    *gorm.DB
	token string
	sales service.SaleService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	if err := seed.Run(db, seed.Admin{Email: "admin@example.com", Password: "admin123"}, log); err != nil {
		t.Fatalf("seed: %v", err)
	}

	saleRepo := repository.NewSaleRepo(db)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	counterRepo := repository.NewCounterRepo(db)
	userRepo := repository.NewUserRepo(db)
	hub := ws.NewHub(log)

	auth := service.NewAuthService(userRepo, jwt.NewSigner("test-secret", time.Hour))
	sales := service.NewSaleService(db, saleRepo, productRepo, customerRepo, counterRepo, nil, hub, log)
	app := New(Deps{
		Location:  time.UTC,
		Log:       log,
		Auth:      auth,
		Users:     service.NewUserService(userRepo, repository.NewRoleRepo(db)),
		Sales:     sales,
		Dashboard: service.NewDashboardService(repository.NewReportRepo(db), productRepo, categoryRepo, counterRepo, nil, time.UTC, log),
		Catalog:   service.NewCatalogService(db, categoryRepo, productRepo, counterRepo, nil, log),
		Customers: service.NewCustomerService(customerRepo, ""),
		Receipts:  receipt.NewRenderer(receipt.Shop{Name: "Test Shop"}, receipt.DefaultStyle, time.UTC),
		Hub:       hub,
	})

	login, err := auth.Login("admin@example.com", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return &testApp{app: app, db: db, token: login.Token, sales: sales}
}

func (a *testApp) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	if a.token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: a.token})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	return resp
}

func cookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func saleBody(t *testing.T, customerID, productID string, qty int) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{
		"customer":       customerID,
		"sub_total":      "200.00",
		"tax_percentage": "10",
		"amount_payed":   "250",
		"grand_total":    "220.00",
		"products": []map[string]interface{}{
			{"id": productID, "price": "100.00", "quantity": qty, "total_product": "200.00"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	a := newTestApp(t)
	a.token = ""

	for _, path := range []string{"/", "/sales/", "/sales/add/"} {
		resp := a.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != fiber.StatusFound {
			t.Fatalf("%s: expected 302, got %d", path, resp.StatusCode)
		}
		want := middleware.LoginPath + "?next=" + url.QueryEscape(path)
		if got := resp.Header.Get("Location"); got != want {
			t.Fatalf("%s: expected redirect to %q, got %q", path, want, got)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if resp := a.do(t, req); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for XHR, got %d", resp.StatusCode)
	}
}

func TestLoginFlow(t *testing.T) {
	a := newTestApp(t)
	a.token = ""

	resp := a.do(t, httptest.NewRequest(http.MethodGet, middleware.LoginPath, nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login page: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, `name="password"`) {
		t.Fatalf("login page should render the form")
	}

	form := url.Values{"email": {"admin@example.com"}, "password": {"admin123"}, "next": {"/sales/"}}
	req := httptest.NewRequest(http.MethodPost, middleware.LoginPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	resp = a.do(t, req)
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/sales/" {
		t.Fatalf("expected redirect to /sales/, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	session := cookie(resp, middleware.SessionCookie)
	if session == nil || session.Value == "" {
		t.Fatalf("expected session cookie")
	}

	a.token = session.Value
	if resp := a.do(t, httptest.NewRequest(http.MethodGet, "/sales/", nil)); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("sales list with new session: expected 200, got %d", resp.StatusCode)
	}

	bad := url.Values{"email": {"admin@example.com"}, "password": {"nope"}}
	req = httptest.NewRequest(http.MethodPost, middleware.LoginPath, strings.NewReader(bad.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	a.token = ""
	resp = a.do(t, req)
	if resp.Header.Get("Location") != middleware.LoginPath {
		t.Fatalf("failed login should return to the form, got %q", resp.Header.Get("Location"))
	}
}

func TestPagesRender(t *testing.T) {
	a := newTestApp(t)
	cat := testutil.CreateCategory(t, a.db, "Food")
	testutil.CreateProduct(t, a.db, cat.ID, "Rice", "100", "70", 10)
	testutil.CreateCustomer(t, a.db, "Ana", "Lim")

	for _, path := range []string{
		"/", "/sales/", "/sales/add/", "/products/", "/products/add/", "/categories/",
		"/categories/add/", "/customers/", "/customers/add/", "/users/",
	} {
		resp := a.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, resp.StatusCode, readBody(t, resp))
		}
	}
}

func TestCreateSaleOverXHR(t *testing.T) {
	a := newTestApp(t)
	cat := testutil.CreateCategory(t, a.db, "Food")
	product := testutil.CreateProduct(t, a.db, cat.ID, "Rice", "100", "70", 10)
	customer := testutil.CreateCustomer(t, a.db, "Ana", "Lim")

	req := httptest.NewRequest(http.MethodPost, "/sales/add/", bytes.NewReader(saleBody(t, customer.ID.String(), product.ID.String(), 2)))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp := a.do(t, req)

	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/sales/" {
		t.Fatalf("expected 302 to /sales/, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if n := testutil.CountRows(t, a.db, &model.Sale{}); n != 1 {
		t.Fatalf("expected 1 sale, got %d", n)
	}
	if got := testutil.ReloadProduct(t, a.db, product.ID).Quantity; got != 8 {
		t.Fatalf("expected stock 8, got %d", got)
	}

	flash := cookie(resp, "pos_flash")
	if flash == nil {
		t.Fatalf("expected flash session cookie")
	}
	page := a.do(t, httptest.NewRequest(http.MethodGet, "/sales/", nil), flash)
	if body := readBody(t, page); !strings.Contains(body, "Sale created successfully!") {
		t.Fatalf("sales list should show the success flash")
	}
}

func TestCreateSaleRejected(t *testing.T) {
	tests := []struct {
		name string
		xhr  bool
		qty  int
	}{
		{name: "plain form post", xhr: false, qty: 1},
		{name: "insufficient stock", xhr: true, qty: 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			cat := testutil.CreateCategory(t, a.db, "Food")
			product := testutil.CreateProduct(t, a.db, cat.ID, "Rice", "100", "70", 10)
			customer := testutil.CreateCustomer(t, a.db, "Ana", "Lim")

			req := httptest.NewRequest(http.MethodPost, "/sales/add/", bytes.NewReader(saleBody(t, customer.ID.String(), product.ID.String(), tt.qty)))
			req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
			if tt.xhr {
				req.Header.Set("X-Requested-With", "XMLHttpRequest")
			}
			resp := a.do(t, req)
			if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/sales/" {
				t.Fatalf("expected 302 to /sales/, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
			}
			if n := testutil.CountRows(t, a.db, &model.Sale{}); n != 0 {
				t.Fatalf("expected no sale, got %d", n)
			}
			if got := testutil.ReloadProduct(t, a.db, product.ID).Quantity; got != 10 {
				t.Fatalf("stock should be untouched, got %d", got)
			}
		})
	}
}

func TestSaleDetailAndReceipt(t *testing.T) {
	a := newTestApp(t)
	cat := testutil.CreateCategory(t, a.db, "Food")
	product := testutil.CreateProduct(t, a.db, cat.ID, "Rice", "100", "70", 10)
	customer := testutil.CreateCustomer(t, a.db, "Ana", "Lim")
	sale, err := a.sales.CreateSale(&service.CreateSaleRequest{
		Customer:      customer.ID,
		TaxPercentage: testutil.Dec("10"),
		AmountPayed:   testutil.Dec("250"),
		Products:      []service.CartLine{{ID: product.ID, Quantity: 2}},
	}, "admin", "Admin")
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	resp := a.do(t, httptest.NewRequest(http.MethodGet, "/sales/"+sale.ID.String()+"/", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("detail: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Rice") || !strings.Contains(body, "220.00") {
		t.Fatalf("detail should list the product and grand total")
	}

	resp = a.do(t, httptest.NewRequest(http.MethodGet, "/sales/"+sale.ID.String()+"/receipt/", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("receipt: expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != receipt.ContentType {
		t.Fatalf("expected %s, got %q", receipt.ContentType, ct)
	}
	if body := readBody(t, resp); !strings.HasPrefix(body, "%PDF-") {
		t.Fatalf("receipt body is not a PDF")
	}

	resp = a.do(t, httptest.NewRequest(http.MethodGet, "/sales/00000000-0000-0000-0000-000000000001/receipt/", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("missing sale receipt: expected 404, got %d", resp.StatusCode)
	}
}

func TestCashierCannotManageUsers(t *testing.T) {
	a := newTestApp(t)
	form := url.Values{
		"email": {"cashier@example.com"}, "password": {"secret1"}, "full_name": {"Cashier"},
	}
	var role model.Role
	if err := a.db.Where("code = ?", model.RoleCashier).First(&role).Error; err != nil {
		t.Fatalf("cashier role: %v", err)
	}
	form.Set("role_id", strconv.FormatUint(uint64(role.ID), 10))

	req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	if resp := a.do(t, req); resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/users/" {
		t.Fatalf("create user: expected redirect to /users/, got %d", resp.StatusCode)
	}

	auth := service.NewAuthService(repository.NewUserRepo(a.db), jwt.NewSigner("test-secret", time.Hour))
	login, err := auth.Login("cashier@example.com", "secret1")
	if err != nil {
		t.Fatalf("cashier login: %v", err)
	}
	a.token = login.Token

	if resp := a.do(t, httptest.NewRequest(http.MethodGet, "/users/", nil)); resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for cashier on /users/, got %d", resp.StatusCode)
	}
	if resp := a.do(t, httptest.NewRequest(http.MethodGet, "/sales/add/", nil)); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("cashier should reach the sales form, got %d", resp.StatusCode)
	}
}
