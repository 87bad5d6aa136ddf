package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/models"
	"ktuligonine.lt/pkg/imagestore"
	"ktuligonine.lt/repositories"

	"go.uber.org/zap"
)

// AccountServiceError is a refused account page submission. Its text is shown
// to the user as is.
type AccountServiceError string

func (e AccountServiceError) Error() string { return string(e) }

const (
	ErrPhotoNotAllowed     AccountServiceError = "Nuotraukos keitimas jūsų paskyrai negalimas."
	ErrPhotoMissing        AccountServiceError = "Neįkeltas nuotraukos failas."
	ErrPhotoFormat         AccountServiceError = "Netinkamas nuotraukos formatas (ne .png)."
	ErrPhotoTooLarge       AccountServiceError = "Nuotraukos failas per didelis."
	ErrOldPasswordMismatch AccountServiceError = "Senas slaptažodis įvestas neteisingai."
	ErrNewPasswordMismatch AccountServiceError = "Naujas slaptažodis nesutampa."
)

const (
	MsgContactUpdated  = "Duomenys atnaujinti."
	MsgPhotoUpdated    = "Nuotrauka atnaujinta."
	MsgPasswordChanged = "Slaptažodis pakeistas."
)

// photoExtension is the only accepted upload suffix.
const photoExtension = ".png"

// Severity tells the template how to style the status message.
type Severity string

const (
	SeverityNeutral Severity = "neutral"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Account page templates, one per role.
const (
	TemplateAccountPatient = "account_patient"
	TemplateAccountDoctor  = "account_doctor"
	TemplateAccountAdmin   = "account_admin"
)

// AccountView is what the account page renders.
type AccountView struct {
	User     *models.User
	Template string
	Message  string
	Severity Severity
	Visits   []models.Visit
}

// IAccountService handles the account page.
type IAccountService interface {
	HandleAccountRequest(ctx context.Context, principalID string, submission AccountSubmission) (*AccountView, error)
}

// AccountService implements IAccountService.
type AccountService struct {
	users  repositories.IUserRepository
	visits repositories.IVisitRepository
	hasher PasswordHasher
	images imagestore.Store
}

// NewAccountService wires the account page to its repositories, the password
// hasher and the photo store.
func NewAccountService(users repositories.IUserRepository, visits repositories.IVisitRepository, hasher PasswordHasher, images imagestore.Store) IAccountService {
	return &AccountService{users: users, visits: visits, hasher: hasher, images: images}
}

// HandleAccountRequest applies at most one submission for the principal and
// returns the page state afterwards. Refused submissions are reported through
// the view with SeverityError and a nil error. A non-nil error is either
// ErrUnauthorized or wraps ErrStorage; in the ErrStorage case the view is
// still returned, carrying the generic failure message.
func (s *AccountService) HandleAccountRequest(ctx context.Context, principalID string, submission AccountSubmission) (*AccountView, error) {
	user, err := s.loadPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	view := &AccountView{Severity: SeverityNeutral}
	var success string
	switch form := submission.(type) {
	case nil:
	case ContactUpdate:
		success, err = MsgContactUpdated, s.updateContact(ctx, user.UniqueID, form)
	case PhotoUpdate:
		success, err = MsgPhotoUpdated, s.updatePhoto(ctx, user, form)
	case PasswordChange:
		success, err = MsgPasswordChanged, s.changePassword(ctx, user.UniqueID, form)
	default:
		return nil, fmt.Errorf("unsupported account submission %T", submission)
	}

	var storageErr error
	switch {
	case submission == nil:
	case err == nil:
		view.Message, view.Severity = success, SeveritySuccess
	case errors.Is(err, ErrStorage):
		configslog.Log.Error("account update failed",
			zap.String("user_id", user.UniqueID), zap.String("form", fmt.Sprintf("%T", submission)), zap.Error(err))
		view.Message, view.Severity = ErrStorage.Error(), SeverityError
		storageErr = err
	default:
		view.Message, view.Severity = err.Error(), SeverityError
	}

	if submission != nil && err == nil {
		// snapshot after the write
		if fresh, ferr := s.users.FindByID(ctx, user.UniqueID); ferr == nil {
			user = fresh
		}
	}
	view.User = user
	view.Template = accountTemplate(user.Role)
	view.Visits = s.loadVisits(ctx, user)
	return view, storageErr
}

func (s *AccountService) loadPrincipal(ctx context.Context, principalID string) (*models.User, error) {
	if principalID == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return user, nil
}

func accountTemplate(role models.Role) string {
	switch role {
	case models.RolePatient:
		return TemplateAccountPatient
	case models.RoleDoctor:
		return TemplateAccountDoctor
	case models.RoleAdministrator:
		return TemplateAccountAdmin
	}
	return TemplateAccountPatient
}

func (s *AccountService) loadVisits(ctx context.Context, user *models.User) []models.Visit {
	var (
		visits []models.Visit
		err    error
	)
	switch user.Role {
	case models.RolePatient:
		visits, err = s.visits.FindByPatientID(ctx, user.UniqueID)
	case models.RoleDoctor:
		visits, err = s.visits.FindByDoctorID(ctx, user.UniqueID)
	case models.RoleAdministrator:
		return nil
	}
	if err != nil {
		configslog.Log.Warn("account visits unavailable", zap.String("user_id", user.UniqueID), zap.Error(err))
		return nil
	}
	return visits
}

func (s *AccountService) updateContact(ctx context.Context, userID string, form ContactUpdate) error {
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	if err := validateForm(form); err != nil {
		return err
	}

	err := s.users.Transaction(ctx, func(tx repositories.IUserRepository) error {
		if _, err := tx.FindByIDForUpdate(ctx, userID); err != nil {
			return err
		}
		owner, err := tx.FindByEmail(ctx, form.Email)
		switch {
		case err == nil && owner.UniqueID != userID:
			return ErrEmailTaken
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return err
		}
		return tx.UpdateContact(ctx, userID, form.Email, form.Phone)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEmailTaken), errors.Is(err, repositories.ErrDuplicateEmail):
		return ErrEmailTaken
	}
	return fmt.Errorf("%w: contact update: %v", ErrStorage, err)
}

// updatePhoto stages the upload first and renames it into place from inside
// the transaction, after the reference update succeeded. Any failure leaves
// both the old file and the old reference untouched.
func (s *AccountService) updatePhoto(ctx context.Context, user *models.User, form PhotoUpdate) error {
	if !user.Role.CanUploadPhoto() {
		return ErrPhotoNotAllowed
	}
	if form.Content == nil {
		return ErrPhotoMissing
	}
	if !strings.HasSuffix(form.FileName, photoExtension) {
		return ErrPhotoFormat
	}

	fileName := user.PhotoFileName()
	staged, err := s.images.Stage(fileName, form.Content)
	if err != nil {
		if errors.Is(err, imagestore.ErrFileTooLarge) {
			return ErrPhotoTooLarge
		}
		return fmt.Errorf("%w: stage photo: %v", ErrStorage, err)
	}
	defer func() {
		if derr := staged.Discard(); derr != nil {
			configslog.Log.Warn("staged photo cleanup failed", zap.String("user_id", user.UniqueID), zap.Error(derr))
		}
	}()

	err = s.users.Transaction(ctx, func(tx repositories.IUserRepository) error {
		if _, err := tx.FindByIDForUpdate(ctx, user.UniqueID); err != nil {
			return err
		}
		if err := tx.UpdateImage(ctx, user.UniqueID, fileName); err != nil {
			return err
		}
		return staged.Commit()
	})
	if err != nil {
		return fmt.Errorf("%w: photo update: %v", ErrStorage, err)
	}
	return nil
}

func (s *AccountService) changePassword(ctx context.Context, userID string, form PasswordChange) error {
	if err := validateForm(form); err != nil {
		return err
	}

	err := s.users.Transaction(ctx, func(tx repositories.IUserRepository) error {
		user, err := tx.FindByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		ok, err := s.hasher.Verify(form.Old, user.PasswordHash)
		if err != nil || !ok {
			return ErrOldPasswordMismatch
		}
		if form.New != form.Confirm {
			return ErrNewPasswordMismatch
		}
		hash, err := s.hasher.Hash(form.New)
		if err != nil {
			return err
		}
		return tx.UpdatePasswordHash(ctx, userID, hash)
	})
	var refused AccountServiceError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &refused):
		return refused
	}
	return fmt.Errorf("%w: password change: %v", ErrStorage, err)
}
