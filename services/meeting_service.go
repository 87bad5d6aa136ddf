package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"ktuligonine.lt/models"
	"ktuligonine.lt/repositories"
)

// MeetingServiceError is a rejected meeting request.
type MeetingServiceError string

func (e MeetingServiceError) Error() string { return string(e) }

const (
	ErrMissingPatientID MeetingServiceError = "Įveskite paciento ID"
	ErrUnknownPatient   MeetingServiceError = "Pacientas nerastas."
)

// IMeetingService resolves the video meeting room of a patient.
type IMeetingService interface {
	ResolveMeeting(ctx context.Context, patientID string) (string, error)
}

// MeetingService turns a patient id into a video meeting URL.
type MeetingService struct {
	baseURL      string
	users        repositories.IUserRepository
	requireKnown bool
}

// NewMeetingService builds the resolver. With requireKnown set the id must
// belong to an existing patient account.
func NewMeetingService(baseURL string, users repositories.IUserRepository, requireKnown bool) IMeetingService {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &MeetingService{baseURL: baseURL, users: users, requireKnown: requireKnown}
}

// ResolveMeeting returns the room URL for patientID. The id is trimmed and
// path escaped before it is appended to the base URL.
func (s *MeetingService) ResolveMeeting(ctx context.Context, patientID string) (string, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return "", ErrMissingPatientID
	}
	if s.requireKnown {
		user, err := s.users.FindByID(ctx, patientID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return "", ErrUnknownPatient
		case err != nil:
			return "", fmt.Errorf("%w: %v", ErrStorage, err)
		case user.Role != models.RolePatient:
			return "", ErrUnknownPatient
		}
	}
	return s.baseURL + url.PathEscape(patientID), nil
}
