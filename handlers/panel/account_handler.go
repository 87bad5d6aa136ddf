package handlers

import (
	"errors"
	"io"
	"mime/multipart"
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

// Values of the hidden "form" field on the account page.
const (
	FormContact  = "contact"
	FormPhoto    = "photo"
	FormPassword = "password"
)

var errUnknownForm = errors.New("unknown account form")

// PanelHandler serves the pages of a logged in user.
type PanelHandler struct {
	account services.IAccountService
	history services.IHistoryService
}

// NewPanelHandler creates a PanelHandler.
func NewPanelHandler(account services.IAccountService, history services.IHistoryService) *PanelHandler {
	return &PanelHandler{account: account, history: history}
}

// Account renders the account page and applies at most one posted form.
func (h *PanelHandler) Account(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c) // set by the router from the session

	// GET shows the page, POST carries exactly one form
	var submission services.AccountSubmission
	if c.Method() == fiber.MethodPost {
		sub, closer, err := decodeAccountSubmission(c)
		if closer != nil {
			defer closer.Close()
		}
		if err != nil {
			configslog.Log.Warn("Account: undecodable form", zap.String("user_id", userID), zap.Error(err))
			_ = flashmessages.SetFlashMessage(c, flashmessages.FlashErrorKey, "Neteisingi formos duomenys.")
			return c.Redirect(middlewares.AccountPath, fiber.StatusSeeOther)
		}
		submission = sub
	}

	// The service always returns a view unless the principal is gone
	view, err := h.account.HandleAccountRequest(c.UserContext(), userID, submission)
	if errors.Is(err, services.ErrUnauthorized) {
		return dropStaleSession(c, userID)
	}
	status := http.StatusOK
	if err != nil { // storage failure: render the page with the generic message
		if view == nil {
			return err
		}
		status = http.StatusInternalServerError
	}

	return renderer.Render(c, view.Template, "", fiber.Map{
		"Title":    "Paskyra",
		"User":     view.User,
		"Visits":   view.Visits,
		"Message":  view.Message,
		"Severity": string(view.Severity),
	}, status)
}

// decodeAccountSubmission maps the request body to one submission kind. The
// hidden "form" field names it; older clients without the field get the kind
// inferred from which fields were sent, contact first, then photo, then
// password. The returned closer, when non-nil, releases the uploaded file.
func decodeAccountSubmission(c *fiber.Ctx) (services.AccountSubmission, io.Closer, error) {
	kind := c.FormValue("form")
	if kind == "" {
		kind = inferFormKind(c)
	}
	switch kind {
	case "":
		return nil, nil, nil
	case FormContact:
		var form services.ContactUpdate
		if err := c.BodyParser(&form); err != nil {
			return nil, nil, err
		}
		return form, nil, nil
	case FormPassword:
		var form services.PasswordChange
		if err := c.BodyParser(&form); err != nil {
			return nil, nil, err
		}
		return form, nil, nil
	case FormPhoto:
		return decodePhoto(c)
	}
	return nil, nil, errUnknownForm
}

// inferFormKind picks the kind from the fields present in the request.
func inferFormKind(c *fiber.Ctx) string {
	switch {
	case c.FormValue("email") != "" || c.FormValue("phone") != "":
		return FormContact
	case hasUpload(c):
		return FormPhoto
	case c.FormValue("old_password") != "" || c.FormValue("new_password") != "" || c.FormValue("repeat_password") != "":
		return FormPassword
	}
	return ""
}

func hasUpload(c *fiber.Ctx) bool {
	fh, err := c.FormFile("image")
	return err == nil && (fh.Filename != "" || fh.Size > 0)
}

// decodePhoto opens the uploaded file; a missing file yields an empty
// PhotoUpdate so the service can report it.
func decodePhoto(c *fiber.Ctx) (services.AccountSubmission, io.Closer, error) {
	fh, err := c.FormFile("image")
	if err != nil || (fh.Filename == "" && fh.Size == 0) {
		// browsers send an empty part when no file was chosen
		return services.PhotoUpdate{}, nil, nil
	}
	var file multipart.File
	if file, err = fh.Open(); err != nil {
		return nil, nil, err
	}
	return services.PhotoUpdate{FileName: fh.Filename, Content: file}, file, nil
}

// History lists the principal's own medical history.
func (h *PanelHandler) History(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)
	view, err := h.history.ListHistory(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			return dropStaleSession(c, userID)
		}
		return err
	}
	return renderer.Render(c, "patient_history", "", fiber.Map{
		"Title":   "Ligų istorija",
		"User":    view.User,
		"Entries": view.Entries,
		"Count":   len(view.Entries),
	})
}

// dropStaleSession handles a session whose user no longer exists.
func dropStaleSession(c *fiber.Ctx, userID string) error {
	configslog.Log.Warn("session user not found", zap.String("user_id", userID))
	sess, err := utils.ResetSession(c)
	if err == nil {
		flashmessages.Put(sess, flashmessages.FlashErrorKey, services.ErrUnauthorized.Error())
		_ = sess.Save()
	}
	return c.Redirect(middlewares.LoginPath, fiber.StatusFound)
}
