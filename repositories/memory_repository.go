package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"ktuligonine.lt/models"
)

// In-memory repositories back DB_DRIVER=memory and the test suites. They keep
// the same contracts as the gorm implementations: unique emails, ErrNotFound
// on misses, serialized transactions with rollback on error.

// MemoryUserRepository stores users in a map. Transactions run one at a time
// against a private copy that replaces the map only when fn succeeds.
type MemoryUserRepository struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	users map[string]models.User
	inTx  bool
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

func (r *MemoryUserRepository) Transaction(ctx context.Context, fn func(tx IUserRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	snapshot := make(map[string]models.User, len(r.users))
	for id, u := range r.users {
		snapshot[id] = u
	}
	r.mu.RUnlock()

	tx := &MemoryUserRepository{users: snapshot, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	r.users = tx.users
	r.mu.Unlock()
	return nil
}

// write funnels top-level mutations through Transaction so they never race
// with an open transaction's copy.
func (r *MemoryUserRepository) write(ctx context.Context, fn func(tx *MemoryUserRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.Transaction(ctx, func(tx IUserRepository) error {
		return fn(tx.(*MemoryUserRepository))
	})
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil || user.UniqueID == "" {
		return errors.New("user without unique id cannot be created")
	}
	return r.write(ctx, func(tx *MemoryUserRepository) error {
		if _, exists := tx.users[user.UniqueID]; exists {
			return errors.New("duplicate user id")
		}
		for _, u := range tx.users {
			if u.Email == user.Email {
				return ErrDuplicateEmail
			}
		}
		now := time.Now().UTC()
		user.CreatedAt, user.UpdatedAt = now, now
		tx.users[user.UniqueID] = ownedUser(*user)
		return nil
	})
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.FindByID(ctx, id)
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *MemoryUserRepository) UpdateContact(ctx context.Context, id, email, phone string) error {
	return r.update(ctx, id, func(tx *MemoryUserRepository, u *models.User) error {
		for otherID, other := range tx.users {
			if otherID != id && other.Email == email {
				return ErrDuplicateEmail
			}
		}
		u.Email = strings.Clone(email)
		u.Phone = strings.Clone(phone)
		return nil
	})
}

func (r *MemoryUserRepository) UpdateImage(ctx context.Context, id, imageURL string) error {
	return r.update(ctx, id, func(_ *MemoryUserRepository, u *models.User) error {
		u.ImageURL = strings.Clone(imageURL)
		return nil
	})
}

func (r *MemoryUserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.update(ctx, id, func(_ *MemoryUserRepository, u *models.User) error {
		u.PasswordHash = strings.Clone(hash)
		return nil
	})
}

func (r *MemoryUserRepository) update(ctx context.Context, id string, apply func(tx *MemoryUserRepository, u *models.User) error) error {
	return r.write(ctx, func(tx *MemoryUserRepository) error {
		u, ok := tx.users[id]
		if !ok {
			return ErrNotFound
		}
		if err := apply(tx, &u); err != nil {
			return err
		}
		u.UpdatedAt = time.Now().UTC()
		tx.users[id] = u
		return nil
	})
}

// ownedUser copies every string so the map never aliases request buffers
// that fiber recycles when the app is not Immutable.
func ownedUser(u models.User) models.User {
	u.UniqueID = strings.Clone(u.UniqueID)
	u.FirstName = strings.Clone(u.FirstName)
	u.LastName = strings.Clone(u.LastName)
	u.PersonalCode = strings.Clone(u.PersonalCode)
	u.Email = strings.Clone(u.Email)
	u.Phone = strings.Clone(u.Phone)
	u.Role = models.Role(strings.Clone(string(u.Role)))
	u.WorkingHours = strings.Clone(u.WorkingHours)
	u.PasswordHash = strings.Clone(u.PasswordHash)
	u.ImageURL = strings.Clone(u.ImageURL)
	return u
}

var _ IUserRepository = (*MemoryUserRepository)(nil)

// MemoryVisitRepository keeps visits in a slice and resolves the related
// users from a MemoryUserRepository like the gorm preloads do.
type MemoryVisitRepository struct {
	mu     sync.RWMutex
	users  *MemoryUserRepository
	visits []models.Visit
	nextID uint
}

func NewMemoryVisitRepository(users *MemoryUserRepository) *MemoryVisitRepository {
	return &MemoryVisitRepository{users: users, nextID: 1}
}

func (r *MemoryVisitRepository) Create(ctx context.Context, visit *models.Visit) error {
	if visit == nil || visit.PatientID == "" || visit.DoctorID == "" {
		return errors.New("visit needs both a patient and a doctor")
	}
	for _, id := range []string{visit.PatientID, visit.DoctorID} {
		if _, err := r.users.FindByID(ctx, id); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.visits {
		if v.MeetingURL == visit.MeetingURL {
			return errors.New("duplicate meeting url")
		}
	}
	visit.ID = r.nextID
	r.nextID++
	visit.CreatedAt = time.Now().UTC()
	visit.UpdatedAt = visit.CreatedAt
	r.visits = append(r.visits, *visit)
	return nil
}

func (r *MemoryVisitRepository) FindByPatientID(ctx context.Context, patientID string) ([]models.Visit, error) {
	return r.filter(ctx, func(v models.Visit) bool { return v.PatientID == patientID })
}

func (r *MemoryVisitRepository) FindByDoctorID(ctx context.Context, doctorID string) ([]models.Visit, error) {
	return r.filter(ctx, func(v models.Visit) bool { return v.DoctorID == doctorID })
}

func (r *MemoryVisitRepository) filter(ctx context.Context, keep func(models.Visit) bool) ([]models.Visit, error) {
	r.mu.RLock()
	out := make([]models.Visit, 0)
	for _, v := range r.visits {
		if keep(v) {
			out = append(out, v)
		}
	}
	r.mu.RUnlock()

	for i := range out {
		if p, err := r.users.FindByID(ctx, out[i].PatientID); err == nil {
			out[i].Patient = *p
		}
		if d, err := r.users.FindByID(ctx, out[i].DoctorID); err == nil {
			out[i].Doctor = *d
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ IVisitRepository = (*MemoryVisitRepository)(nil)

// MemoryPatientHistoryRepository keeps history entries in a slice.
type MemoryPatientHistoryRepository struct {
	mu      sync.RWMutex
	entries []models.PatientHistory
	nextID  uint
}

func NewMemoryPatientHistoryRepository() *MemoryPatientHistoryRepository {
	return &MemoryPatientHistoryRepository{nextID: 1}
}

func (r *MemoryPatientHistoryRepository) Create(ctx context.Context, entry *models.PatientHistory) error {
	if entry == nil || entry.PatientID == "" {
		return errors.New("history entry needs a patient")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = r.nextID
	r.nextID++
	entry.CreatedAt = time.Now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemoryPatientHistoryRepository) FindAllByPatientID(ctx context.Context, patientID string) ([]models.PatientHistory, error) {
	r.mu.RLock()
	out := make([]models.PatientHistory, 0)
	for _, e := range r.entries {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

var _ IPatientHistoryRepository = (*MemoryPatientHistoryRepository)(nil)
