package handlers

import (
	"errors"
	"net/http"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/middlewares"
	"ktuligonine.lt/pkg/flashmessages"
	"ktuligonine.lt/pkg/renderer"
	"ktuligonine.lt/services"
	"ktuligonine.lt/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// RegisterPath is the public registration page.
	RegisterPath = "/registracija"

	msgRegistered = "Registracija sėkminga. Galite prisijungti."
	msgLoggedOut  = "Sėkmingai atsijungta."
	msgBadForm    = "Neteisingi formos duomenys."
)

// AuthHandler serves login, registration and logout.
type AuthHandler struct {
	auth services.IAuthService
}

// NewAuthHandler creates an AuthHandler on top of the auth service.
func NewAuthHandler(auth services.IAuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	return renderer.Render(c, "login", "", fiber.Map{
		"Title":    "Prisijungimas",
		"FormData": flashmessages.GetFlashFormData(c),
	})
}

// Login checks the credentials and starts the user session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form services.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return h.renderLogin(c, form, msgBadForm, http.StatusBadRequest)
	}

	// Unknown account and wrong password carry their own messages
	user, err := h.auth.Login(c.UserContext(), form)
	if err != nil {
		if errors.Is(err, services.ErrStorage) {
			return h.renderLogin(c, form, services.ErrStorage.Error(), http.StatusInternalServerError)
		}
		return h.renderLogin(c, form, err.Error(), http.StatusOK)
	}

	// New session id, the anonymous CSRF token is dropped
	if err := utils.SetUserSession(c, user); err != nil {
		configslog.Log.Error("Login: session save failed", zap.String("user_id", user.UniqueID), zap.Error(err))
		return h.renderLogin(c, form, services.ErrStorage.Error(), http.StatusInternalServerError)
	}
	configslog.Log.Info("user logged in", zap.String("user_id", user.UniqueID))
	return c.Redirect(middlewares.AccountPath, fiber.StatusFound)
}

func (h *AuthHandler) renderLogin(c *fiber.Ctx, form services.LoginForm, message string, status int) error {
	return renderer.Render(c, "login", "", fiber.Map{
		"Title":                    "Prisijungimas",
		"FormData":                 map[string]string{"email": form.Email},
		renderer.FlashErrorKeyView: message,
	}, status)
}

// ShowRegister renders the registration form.
func (h *AuthHandler) ShowRegister(c *fiber.Ctx) error {
	return renderer.Render(c, "register", "", fiber.Map{
		"Title":    "Registracija",
		"FormData": flashmessages.GetFlashFormData(c),
	})
}

// Register creates a patient account and sends the user to the login page.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form services.RegistrationForm
	if err := c.BodyParser(&form); err != nil {
		return h.renderRegister(c, form, []string{msgBadForm}, http.StatusBadRequest)
	}

	_, err := h.auth.Register(c.UserContext(), form)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			return h.renderRegister(c, form, verr.Messages(), http.StatusOK)
		case errors.Is(err, services.ErrStorage):
			return h.renderRegister(c, form, []string{services.ErrStorage.Error()}, http.StatusInternalServerError)
		}
		return h.renderRegister(c, form, []string{err.Error()}, http.StatusOK)
	}

	// PRG: the success message survives the redirect in the session
	_ = flashmessages.SetFlashMessage(c, flashmessages.FlashSuccessKey, msgRegistered)
	return c.Redirect(middlewares.LoginPath, fiber.StatusSeeOther)
}

// renderRegister refills everything but the password.
func (h *AuthHandler) renderRegister(c *fiber.Ctx, form services.RegistrationForm, errs []string, status int) error {
	data := fiber.Map{
		"Title": "Registracija",
		"FormData": map[string]string{
			"first_name":    form.FirstName,
			"last_name":     form.LastName,
			"personal_code": form.PersonalCode,
			"email":         form.Email,
			"phone":         form.Phone,
		},
		"Errors": errs,
	}
	if len(errs) > 0 {
		data[renderer.FlashErrorKeyView] = errs[0]
	}
	return renderer.Render(c, "register", "", data, status)
}

// Logout ends the session and shows the login page with a goodbye message.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)
	sess, err := utils.ResetSession(c)
	if err != nil {
		configslog.Log.Error("Logout: session reset failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	// The flash goes into the fresh session, saved once
	flashmessages.Put(sess, flashmessages.FlashSuccessKey, msgLoggedOut)
	if err := sess.Save(); err != nil {
		configslog.Log.Warn("Logout: session save failed", zap.Error(err))
	}
	configslog.Log.Info("user logged out", zap.String("user_id", userID))
	return c.Redirect(middlewares.LoginPath, fiber.StatusFound)
}
