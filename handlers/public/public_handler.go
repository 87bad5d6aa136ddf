package handlers

import (
	"errors"
	"net/http"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/pkg/renderer"
	"ktuligonine.lt/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PublicHandler serves pages that need no login.
type PublicHandler struct {
	meeting services.IMeetingService
}

// NewPublicHandler creates a PublicHandler.
func NewPublicHandler(meeting services.IMeetingService) *PublicHandler {
	return &PublicHandler{meeting: meeting}
}

// Home renders the landing page.
func (h *PublicHandler) Home(c *fiber.Ctx) error {
	return renderer.Render(c, "index", "", fiber.Map{"Title": "Kauno technologijos universiteto ligoninė"})
}

// Info renders the general information page.
func (h *PublicHandler) Info(c *fiber.Ctx) error {
	return renderer.Render(c, "info", "", fiber.Map{"Title": "Informacija"})
}

// Contacts renders the contacts page.
func (h *PublicHandler) Contacts(c *fiber.Ctx) error {
	return renderer.Render(c, "contacts", "", fiber.Map{"Title": "Kontaktai"})
}

// ShowMeet renders the meeting form.
func (h *PublicHandler) ShowMeet(c *fiber.Ctx) error {
	return renderer.Render(c, "meet", "", fiber.Map{
		"Title":    "E. susitikimas",
		"FormData": map[string]string{}, // the template indexes it
	})
}

// JoinMeet redirects to the video meeting of the given patient.
func (h *PublicHandler) JoinMeet(c *fiber.Ctx) error {
	var form services.MeetingForm
	if err := c.BodyParser(&form); err != nil {
		return h.renderMeet(c, form, "Neteisingi formos duomenys.", http.StatusBadRequest)
	}

	// Validation errors re-render the form with the message
	target, err := h.meeting.ResolveMeeting(c.UserContext(), form.PatientID)
	if err != nil {
		if errors.Is(err, services.ErrStorage) {
			configslog.Log.Error("JoinMeet failed", zap.Error(err))
			return h.renderMeet(c, form, services.ErrStorage.Error(), http.StatusInternalServerError)
		}
		return h.renderMeet(c, form, err.Error(), http.StatusOK)
	}
	return c.Redirect(target, fiber.StatusFound)
}

func (h *PublicHandler) renderMeet(c *fiber.Ctx, form services.MeetingForm, message string, status int) error {
	return renderer.Render(c, "meet", "", fiber.Map{
		"Title":                    "E. susitikimas",
		"FormData":                 map[string]string{"patient_id": form.PatientID},
		renderer.FlashErrorKeyView: message,
	}, status)
}
