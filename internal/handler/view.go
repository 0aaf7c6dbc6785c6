package handler

import (
	"encoding/gob"
	"errors"
	"net/url"
	"strings"

	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	layout   = "layouts/base"
	flashKey = "flash"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"` // success | danger | warning
	Message string `json:"message"`
}

func init() {
	// Session values are gob-encoded by the storage.
	gob.Register([]Flash{})
}

// View renders pages inside the base layout and carries flash messages between requests.
type View struct {
	store *session.Store
	log   *logrus.Logger
}

func NewView(store *session.Store, log *logrus.Logger) *View {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &View{store: store, log: log}
}

func (v *View) Flash(c *fiber.Ctx, kind, message string) {
	sess, err := v.store.Get(c)
	if err != nil {
		v.log.WithError(err).Warn("flash: load session")
		return
	}
	flashes, _ := sess.Get(flashKey).([]Flash)
	sess.Set(flashKey, append(flashes, Flash{Kind: kind, Message: message}))
	if err := sess.Save(); err != nil {
		v.log.WithError(err).Warn("flash: save session")
	}
}

func (v *View) popFlashes(c *fiber.Ctx) []Flash {
	sess, err := v.store.Get(c)
	if err != nil {
		return nil
	}
	flashes, _ := sess.Get(flashKey).([]Flash)
	if len(flashes) == 0 {
		return nil
	}
	sess.Delete(flashKey)
	if err := sess.Save(); err != nil {
		v.log.WithError(err).Warn("flash: save session")
	}
	return flashes
}

// Render draws the named page with the current user, flashes and active menu filled in.
func (v *View) Render(c *fiber.Ctx, name, active string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["User"] = middleware.CurrentUser(c)
	data["Flashes"] = v.popFlashes(c)
	data["Active"] = active
	if _, ok := data["Title"]; !ok {
		data["Title"] = "POS"
	}
	return c.Render(name, data, layout)
}

// Redirect flashes message (when not empty) and sends the browser to path.
func (v *View) Redirect(c *fiber.Ctx, path, kind, message string) error {
	if message != "" {
		v.Flash(c, kind, message)
	}
	return c.Redirect(path, fiber.StatusFound)
}

// Fail logs err and redirects back with a message safe to show to the user.
func (v *View) Fail(c *fiber.Ctx, path string, err error) error {
	if !service.IsValidation(err) && !service.IsNotFound(err) {
		v.log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return v.Redirect(c, path, "danger", userMessage(err))
}

func userMessage(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return "Please check the " + fieldLabel(verr.Field) + " field."
	case service.IsValidation(err), service.IsNotFound(err):
		return capitalise(err.Error())
	default:
		return "There was an error while saving. Please try again."
	}
}

func fieldLabel(namespace string) string {
	if i := strings.LastIndex(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return strings.ToLower(namespace)
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// getUserID and getUserName read what RequireAuth stored in the context.
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok {
		return "system"
	}
	return userID
}

func getUserName(c *fiber.Ctx) string {
	userName, ok := c.Locals("user_name").(string)
	if !ok {
		return "Unknown"
	}
	return userName
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

func isAjax(c *fiber.Ctx) bool {
	return c.Get("X-Requested-With") == "XMLHttpRequest"
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	u, err := url.Parse(next)
	if next == "" || err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
