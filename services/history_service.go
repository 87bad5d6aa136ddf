package services

import (
	"context"
	"fmt"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/models"
	"ktuligonine.lt/repositories"

	"go.uber.org/zap"
)

// HistoryView is the patient history page.
type HistoryView struct {
	User    *models.User
	Entries []models.PatientHistory
}

// IHistoryService serves the patient history page.
type IHistoryService interface {
	ListHistory(ctx context.Context, principalID string) (*HistoryView, error)
}

// HistoryService reads history entries for the logged in principal only.
type HistoryService struct {
	auth    IAuthService
	history repositories.IPatientHistoryRepository
}

// NewHistoryService resolves principals through auth.
func NewHistoryService(auth IAuthService, history repositories.IPatientHistoryRepository) IHistoryService {
	return &HistoryService{auth: auth, history: history}
}

// ListHistory returns the principal's own entries, newest date first. The
// filter is always the principal id; there is no way to ask for another
// patient's rows.
func (s *HistoryService) ListHistory(ctx context.Context, principalID string) (*HistoryView, error) {
	// a stale session id surfaces as ErrUnauthorized from auth
	user, err := s.auth.GetUserByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.FindAllByPatientID(ctx, user.UniqueID)
	if err != nil {
		configslog.Log.Error("ListHistory failed", zap.String("user_id", user.UniqueID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &HistoryView{User: user, Entries: entries}, nil
}
