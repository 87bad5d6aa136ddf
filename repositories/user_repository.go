package repositories

import (
	"context"
	"errors"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IUserRepository is the credential store.
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	UpdateContact(ctx context.Context, id, email, phone string) error
	UpdateImage(ctx context.Context, id, imageURL string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	// Transaction runs fn against a repository bound to one transaction.
	// A non-nil error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx IUserRepository) error) error
}

// UserRepository implements IUserRepository on gorm.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a repository on the shared pool.
func NewUserRepository(db *gorm.DB) IUserRepository {
	return &UserRepository{db: db}
}

// NewUserRepositoryTx returns a repository bound to an open transaction.
func NewUserRepositoryTx(tx *gorm.DB) IUserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) getDB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil || user.UniqueID == "" {
		return errors.New("user without unique id cannot be created")
	}
	err := r.getDB(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, r.getDB(ctx), "unique_id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, r.getDB(ctx), "email = ?", email)
}

func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "unique_id = ?", id)
}

func (r *UserRepository) first(ctx context.Context, db *gorm.DB, query string, arg string) (*models.User, error) {
	if arg == "" {
		return nil, ErrNotFound
	}
	var user models.User
	err := db.Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("UserRepository: DB error", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.getDB(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// UpdateContact writes email and phone in a single statement.
func (r *UserRepository) UpdateContact(ctx context.Context, id, email, phone string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"email": email, "phone": phone})
}

func (r *UserRepository) UpdateImage(ctx context.Context, id, imageURL string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"image_url": imageURL})
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"password_hash": hash})
}

func (r *UserRepository) updateColumns(ctx context.Context, id string, columns map[string]interface{}) error {
	result := r.getDB(ctx).Model(&models.User{}).Where("unique_id = ?", id).Updates(columns)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Transaction(ctx context.Context, fn func(tx IUserRepository) error) error {
	return r.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUserRepositoryTx(tx))
	})
}

var _ IUserRepository = (*UserRepository)(nil)
