package services

import (
	"context"
	"testing"

	"ktuligonine.lt/models"
	"ktuligonine.lt/pkg/imagestore"
	"ktuligonine.lt/pkg/passwordhash"
	"ktuligonine.lt/repositories"
)

var cheapParams = passwordhash.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

const testMaxImage = 64

type fixture struct {
	users   *repositories.MemoryUserRepository
	visits  *repositories.MemoryVisitRepository
	history *repositories.MemoryPatientHistoryRepository
	hasher  *passwordhash.Hasher
	images  *imagestore.DiskStore
	auth    IAuthService
	account IAccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	images, err := imagestore.NewDiskStore(t.TempDir(), testMaxImage)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	f := &fixture{
		users:   repositories.NewMemoryUserRepository(),
		history: repositories.NewMemoryPatientHistoryRepository(),
		hasher:  passwordhash.New(cheapParams),
		images:  images,
	}
	f.visits = repositories.NewMemoryVisitRepository(f.users)
	f.auth = NewAuthService(f.users, f.hasher)
	f.account = NewAccountService(f.users, f.visits, f.hasher, f.images)
	return f
}

func (f *fixture) addUser(t *testing.T, id, email string, role models.Role, password string) *models.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := &models.User{
		UniqueID:     id,
		FirstName:    "Vardenis",
		LastName:     "Pavardenis",
		PersonalCode: "39001010000",
		Email:        email,
		Phone:        "+37061111111",
		Role:         role,
		PasswordHash: hash,
		ImageURL:     models.DefaultImage,
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("Create %s: %v", id, err)
	}
	return u
}

func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.users.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID %s: %v", id, err)
	}
	return u
}
