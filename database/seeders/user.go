package seeders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/models"
	"ktuligonine.lt/repositories"

	"go.uber.org/zap"
)

// Hasher produces the stored password hash.
type Hasher interface {
	Hash(password string) (string, error)
}

// SeedAdministrator creates the administrator account unless the email is
// already registered. Registration only ever creates patients, so this is the
// way the first administrator appears.
func SeedAdministrator(ctx context.Context, users repositories.IUserRepository, hasher Hasher, email, password string) error {
	if email == "" || password == "" {
		configslog.SLog.Info("ADMIN_EMAIL not set, administrator seeding skipped.")
		return nil
	}

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdministrator {
			configslog.Log.Warn("administrator email belongs to another role",
				zap.String("email", email), zap.String("role", existing.Role.String()))
		} else {
			configslog.SLog.Infof("Administrator %s already exists, skipping.", email)
		}
		return nil
	case !errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("look up administrator: %w", err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash administrator password: %w", err)
	}
	idBytes := make([]byte, 20)
	if _, err := rand.Read(idBytes); err != nil {
		return fmt.Errorf("generate administrator id: %w", err)
	}

	admin := &models.User{
		UniqueID:     hex.EncodeToString(idBytes),
		FirstName:    "Sistemos",
		LastName:     "Administratorius",
		PersonalCode: "00000000000",
		Email:        email,
		Phone:        "-",
		Role:         models.RoleAdministrator,
		PasswordHash: hash,
		ImageURL:     models.DefaultImage,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}
	configslog.Log.Info("administrator created", zap.String("user_id", admin.UniqueID), zap.String("email", email))
	return nil
}
