// Package server assembles the fiber application: views, middleware and routes.
package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go-pos-backoffice/internal/handler"
	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/service"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/web"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Deps is everything the HTTP layer needs from the rest of the program.
type Deps struct {
	AppName      string
	Location     *time.Location
	SecureCookie bool
	AccessLog    bool
	Log          *logrus.Logger

	Auth      service.AuthService
	Users     service.UserService
	Sales     service.SaleService
	Dashboard service.DashboardService
	Catalog   service.CatalogService
	Customers service.CustomerService
	Receipts  handler.ReceiptRenderer
	Hub       *ws.Hub
}

// NewEngine loads the embedded templates and registers the view helpers.
func NewEngine(loc *time.Location) *html.Engine {
	if loc == nil {
		loc = time.Local
	}
	engine := html.NewFileSystem(http.FS(web.Templates()), ".html")

	engine.AddFunc("money", func(d decimal.Decimal) string {
		return d.StringFixed(2)
	})
	engine.AddFunc("formatDate", func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.In(loc).Format("02/01/2006 15:04")
	})
	engine.AddFunc("json", func(v interface{}) template.JS {
		b, err := json.Marshal(v)
		if err != nil {
			return "{}"
		}
		return template.JS(b)
	})
	engine.AddFunc("hasPriv", func(u *model.User, code string) bool {
		return u != nil && u.HasPrivilege(code)
	})
	engine.AddFunc("add", func(a, b int) int {
		return a + b
	})
	return engine
}

// New builds the application with every route registered.
func New(d Deps) *fiber.App {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.AppName == "" {
		d.AppName = "POS Back Office"
	}

	app := fiber.New(fiber.Config{
		AppName:      d.AppName,
		Views:        NewEngine(d.Location),
		ErrorHandler: errorHandler(d.Log),
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if d.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
		}))
	}
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(web.Static()),
		MaxAge: 3600,
	}))

	store := session.New(session.Config{
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:pos_flash",
		CookieHTTPOnly: true,
		CookieSecure:   d.SecureCookie,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})
	view := handler.NewView(store, d.Log)

	authHandler := handler.NewAuthHandler(d.Auth, view, d.SecureCookie)
	dashHandler := handler.NewDashboardHandler(d.Dashboard, d.Sales, view)
	saleHandler := handler.NewSaleHandler(d.Sales, d.Customers, d.Catalog, d.Receipts, view, d.Location)
	catalogHandler := handler.NewCatalogHandler(d.Catalog, view)
	customerHandler := handler.NewCustomerHandler(d.Customers, view)
	userHandler := handler.NewUserHandler(d.Users, view)

	// ============ PUBLIC ROUTES ============
	accounts := app.Group("/accounts")
	accounts.Get("/login/", authHandler.LoginPage)
	accounts.Post("/login/", authHandler.Login)

	// ============ PROTECTED ROUTES ============
	protected := app.Group("", middleware.RequireAuth(d.Auth))
	protected.Get("/accounts/logout/", authHandler.Logout)

	dashboard := middleware.RequirePrivilege(model.PrivDashboardView)
	protected.Get("/", dashboard, dashHandler.Index)
	protected.Get("/dashboard/stats", dashboard, dashHandler.Stats)
	protected.Get("/dashboard/counters", dashboard, dashHandler.Counters)

	sales := protected.Group("/sales")
	sales.Get("/", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.List)
	sales.Get("/export.xlsx", middleware.RequirePrivilege(model.PrivSaleExport), saleHandler.Export)
	sales.Get("/add/", middleware.RequirePrivilege(model.PrivSaleCreate), saleHandler.AddPage)
	sales.Post("/add/", middleware.RequirePrivilege(model.PrivSaleCreate), saleHandler.Add)
	sales.Get("/products/search", middleware.RequirePrivilege(model.PrivSaleCreate), saleHandler.SearchProducts)
	sales.Get("/:id/", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.Detail)
	sales.Get("/:id/receipt/", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.Receipt)

	categories := protected.Group("/categories", middleware.RequirePrivilege(model.PrivProductManage))
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/add/", catalogHandler.CategoryForm)
	categories.Post("/add/", catalogHandler.SaveCategory)
	categories.Get("/:id/edit/", catalogHandler.CategoryForm)
	categories.Post("/:id/edit/", catalogHandler.SaveCategory)
	categories.Post("/:id/delete/", catalogHandler.DeleteCategory)

	products := protected.Group("/products", middleware.RequirePrivilege(model.PrivProductManage))
	products.Get("/", catalogHandler.ListProducts)
	products.Get("/add/", catalogHandler.ProductForm)
	products.Post("/add/", catalogHandler.SaveProduct)
	products.Get("/:id/edit/", catalogHandler.ProductForm)
	products.Post("/:id/edit/", catalogHandler.SaveProduct)
	products.Post("/:id/delete/", catalogHandler.DeleteProduct)

	protected.Get("/customers/options",
		middleware.RequireAnyPrivilege(model.PrivSaleCreate, model.PrivCustomerManage), customerHandler.Options)
	customers := protected.Group("/customers", middleware.RequirePrivilege(model.PrivCustomerManage))
	customers.Get("/", customerHandler.List)
	customers.Get("/add/", customerHandler.Form)
	customers.Post("/add/", customerHandler.Save)
	customers.Get("/:id/edit/", customerHandler.Form)
	customers.Post("/:id/edit/", customerHandler.Save)
	customers.Post("/:id/delete/", customerHandler.Delete)

	users := protected.Group("/users", middleware.RequirePrivilege(model.PrivUserManage))
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.CreateUser)
	users.Post("/:id/active/", userHandler.SetActive)

	// WebSocket Route
	protected.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	protected.Get("/ws", dashboard, websocket.New(d.Hub.Serve))

	return app
}

func errorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Something went wrong"
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("request failed")
		}

		if c.Get("X-Requested-With") == "XMLHttpRequest" || strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) {
			return c.Status(code).JSON(fiber.Map{"error": message})
		}
		return c.Status(code).Render("errors/error", fiber.Map{
			"Title":   "Error",
			"Code":    code,
			"Message": message,
			"Active":  "",
			"User":    middleware.CurrentUser(c),
		}, "layouts/base")
	}
}
