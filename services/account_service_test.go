package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ktuligonine.lt/models"
	"ktuligonine.lt/pkg/imagestore"
	"ktuligonine.lt/repositories"
)

func TestAccountRequiresPrincipal(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"", "ghost"} {
		view, err := f.account.HandleAccountRequest(context.Background(), id, nil)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("HandleAccountRequest(%q) = %v, want ErrUnauthorized", id, err)
		}
		if view != nil {
			t.Errorf("HandleAccountRequest(%q) returned a view", id)
		}
	}
}

func TestAccountViewPerRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "p1", "p@x.lt", models.RolePatient, "secret123")
	f.addUser(t, "d1", "d@x.lt", models.RoleDoctor, "secret123")
	f.addUser(t, "a1", "a@x.lt", models.RoleAdministrator, "secret123")

	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	if err := f.visits.Create(ctx, &models.Visit{PatientID: "p1", DoctorID: "d1", ScheduledAt: at, MeetingURL: "https://meet.ktuligonine.lt/v1"}); err != nil {
		t.Fatalf("visit: %v", err)
	}

	tests := []struct {
		id       string
		template string
		visits   int
	}{
		{"p1", TemplateAccountPatient, 1},
		{"d1", TemplateAccountDoctor, 1},
		{"a1", TemplateAccountAdmin, 0},
	}
	for _, tt := range tests {
		view, err := f.account.HandleAccountRequest(ctx, tt.id, nil)
		if err != nil {
			t.Fatalf("%s: %v", tt.id, err)
		}
		if view.Template != tt.template {
			t.Errorf("%s: Template = %q, want %q", tt.id, view.Template, tt.template)
		}
		if view.Severity != SeverityNeutral || view.Message != "" {
			t.Errorf("%s: GET produced message %q (%s)", tt.id, view.Message, view.Severity)
		}
		if len(view.Visits) != tt.visits {
			t.Errorf("%s: %d visits, want %d", tt.id, len(view.Visits), tt.visits)
		}
		if view.User.UniqueID != tt.id {
			t.Errorf("%s: view user %q", tt.id, view.User.UniqueID)
		}
	}
}

func TestContactUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "p1", "p@x.lt", models.RolePatient, "secret123")
	f.addUser(t, "p2", "taken@x.lt", models.RolePatient, "secret123")

	view, err := f.account.HandleAccountRequest(ctx, "p1", ContactUpdate{Email: "new@x.lt", Phone: "+37069999999"})
	if err != nil {
		t.Fatalf("HandleAccountRequest: %v", err)
	}
	if view.Message != MsgContactUpdated || view.Severity != SeveritySuccess {
		t.Errorf("message = %q (%s)", view.Message, view.Severity)
	}
	if view.User.Email != "new@x.lt" {
		t.Errorf("view snapshot not refreshed: %q", view.User.Email)
	}
	u := f.user(t, "p1")
	if u.Email != "new@x.lt" || u.Phone != "+37069999999" {
		t.Errorf("stored contact = %q / %q", u.Email, u.Phone)
	}

	// also keeping the own email is fine
	if view, _ := f.account.HandleAccountRequest(ctx, "p1", ContactUpdate{Email: "new@x.lt", Phone: "123456"}); view.Severity != SeveritySuccess {
		t.Errorf("re-saving own email refused: %q", view.Message)
	}
}

func TestContactUpdateRefused(t *testing.T) {
	tests := []struct {
		name string
		form ContactUpdate
		msg  string
	}{
		{"malformed email", ContactUpdate{Email: "nope", Phone: "+37069999999"}, "Neteisingas el. pašto adresas"},
		{"short phone", ContactUpdate{Email: "ok@x.lt", Phone: "123"}, ""},
		{"email of another account", ContactUpdate{Email: "taken@x.lt", Phone: "+37069999999"}, string(ErrEmailTaken)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addUser(t, "p1", "p@x.lt", models.RolePatient, "secret123")
			f.addUser(t, "p2", "taken@x.lt", models.RolePatient, "secret123")

			view, err := f.account.HandleAccountRequest(context.Background(), "p1", tt.form)
			if err != nil {
				t.Fatalf("HandleAccountRequest: %v", err)
			}
			if view.Severity != SeverityError {
				t.Errorf("Severity = %s, want error", view.Severity)
			}
			if tt.msg != "" && view.Message != tt.msg {
				t.Errorf("Message = %q, want %q", view.Message, tt.msg)
			}
			u := f.user(t, "p1")
			if u.Email != "p@x.lt" || u.Phone != "+37061111111" {
				t.Errorf("refused update changed contact to %q / %q", u.Email, u.Phone)
			}
		})
	}
}

func TestConcurrentContactUpdatesDoNotInterleave(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "p1", "p@x.lt", models.RolePatient, "secret123")

	pairs := map[string]string{"a@x.lt": "+37060000001", "b@x.lt": "+37060000002"}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for email, phone := range pairs {
			wg.Add(1)
			go func(email, phone string) {
				defer wg.Done()
				_, _ = f.account.HandleAccountRequest(context.Background(), "p1", ContactUpdate{Email: email, Phone: phone})
			}(email, phone)
		}
	}
	wg.Wait()

	u := f.user(t, "p1")
	if want, ok := pairs[u.Email]; !ok || u.Phone != want {
		t.Errorf("mixed contact state %q / %q", u.Email, u.Phone)
	}
}

func pngUpload(body string) PhotoUpdate {
	return PhotoUpdate{FileName: "me.png", Content: bytes.NewBufferString(body)}
}

func TestPhotoUpdate(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "d1", "d@x.lt", models.RoleDoctor, "secret123")

	view, err := f.account.HandleAccountRequest(context.Background(), "d1", pngUpload("png-bytes"))
	if err != nil {
		t.Fatalf("HandleAccountRequest: %v", err)
	}
	if view.Message != MsgPhotoUpdated || view.Severity != SeveritySuccess {
		t.Errorf("message = %q (%s)", view.Message, view.Severity)
	}
	if got := f.user(t, "d1").ImageURL; got != "d1.png" {
		t.Errorf("ImageURL = %q, want d1.png", got)
	}
	data, err := os.ReadFile(filepath.Join(f.images.Dir(), "d1.png"))
	if err != nil || string(data) != "png-bytes" {
		t.Errorf("stored photo = %q, %v", data, err)
	}
	assertNoTempFiles(t, f.images.Dir())
}

func TestPhotoUpdateRefused(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		form PhotoUpdate
		want error
	}{
		{"patient", models.RolePatient, pngUpload("x"), ErrPhotoNotAllowed},
		{"administrator", models.RoleAdministrator, pngUpload("x"), ErrPhotoNotAllowed},
		{"no file", models.RoleDoctor, PhotoUpdate{}, ErrPhotoMissing},
		{"jpeg", models.RoleDoctor, PhotoUpdate{FileName: "me.jpg", Content: bytes.NewBufferString("x")}, ErrPhotoFormat},
		{"upper case extension", models.RoleDoctor, PhotoUpdate{FileName: "me.PNG", Content: bytes.NewBufferString("x")}, ErrPhotoFormat},
		{"too large", models.RoleDoctor, pngUpload(string(make([]byte, testMaxImage+1))), ErrPhotoTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addUser(t, "u1", "u@x.lt", tt.role, "secret123")

			view, err := f.account.HandleAccountRequest(context.Background(), "u1", tt.form)
			if err != nil {
				t.Fatalf("HandleAccountRequest: %v", err)
			}
			if view.Severity != SeverityError || view.Message != tt.want.Error() {
				t.Errorf("message = %q (%s), want %q", view.Message, view.Severity, tt.want)
			}
			if got := f.user(t, "u1").ImageURL; got != models.DefaultImage {
				t.Errorf("ImageURL = %q after refusal", got)
			}
			if _, err := os.Stat(filepath.Join(f.images.Dir(), "u1.png")); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("photo file written on refusal: %v", err)
			}
			assertNoTempFiles(t, f.images.Dir())
		})
	}
}

// failingImageRepo fails every UpdateImage, including inside transactions.
type failingImageRepo struct {
	repositories.IUserRepository
}

func (r failingImageRepo) UpdateImage(ctx context.Context, id, imageURL string) error {
	return errors.New("disk full")
}

func (r failingImageRepo) Transaction(ctx context.Context, fn func(tx repositories.IUserRepository) error) error {
	return r.IUserRepository.Transaction(ctx, func(tx repositories.IUserRepository) error {
		return fn(failingImageRepo{tx})
	})
}

func TestPhotoUpdateRollsBackFileOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "d1", "d@x.lt", models.RoleDoctor, "secret123")
	if err := os.WriteFile(filepath.Join(f.images.Dir(), "d1.png"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	account := NewAccountService(failingImageRepo{f.users}, f.visits, f.hasher, f.images)

	view, err := account.HandleAccountRequest(context.Background(), "d1", pngUpload("new"))
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	if view == nil || view.Message != ErrStorage.Error() || view.Severity != SeverityError {
		t.Fatalf("view = %+v", view)
	}
	data, _ := os.ReadFile(filepath.Join(f.images.Dir(), "d1.png"))
	if string(data) != "old" {
		t.Errorf("photo replaced despite failed update: %q", data)
	}
	if got := f.user(t, "d1").ImageURL; got != models.DefaultImage {
		t.Errorf("ImageURL = %q", got)
	}
	assertNoTempFiles(t, f.images.Dir())
}

// brokenStore stages fine but cannot move the file into place.
type brokenStore struct{}

type brokenStaged struct{}

func (brokenStore) Stage(name string, content io.Reader) (imagestore.Staged, error) {
	return &brokenStaged{}, nil
}
func (s *brokenStaged) Commit() error  { return errors.New("rename failed") }
func (s *brokenStaged) Discard() error { return nil }

func TestPhotoUpdateFileFailureKeepsReference(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "d1", "d@x.lt", models.RoleDoctor, "secret123")
	account := NewAccountService(f.users, f.visits, f.hasher, brokenStore{})

	_, err := account.HandleAccountRequest(context.Background(), "d1", pngUpload("new"))
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	if got := f.user(t, "d1").ImageURL; got != models.DefaultImage {
		t.Errorf("ImageURL = %q, reference committed without file", got)
	}
}

func TestPasswordChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "p1", "p@x.lt", models.RolePatient, "secret123")

	view, err := f.account.HandleAccountRequest(ctx, "p1", PasswordChange{Old: "secret123", New: "newsecret1", Confirm: "newsecret1"})
	if err != nil {
		t.Fatalf("HandleAccountRequest: %v", err)
	}
	if view.Message != MsgPasswordChanged || view.Severity != SeveritySuccess {
		t.Errorf("message = %q (%s)", view.Message, view.Severity)
	}
	if _, err := f.auth.Login(ctx, LoginForm{Email: "p@x.lt", Password: "newsecret1"}); err != nil {
		t.Errorf("Login(new): %v", err)
	}
	if _, err := f.auth.Login(ctx, LoginForm{Email: "p@x.lt", Password: "secret123"}); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Login(old) = %v, want ErrWrongPassword", err)
	}
}

func TestPasswordChangeRefused(t *testing.T) {
	tests := []struct {
		name string
		form PasswordChange
		msg  string
	}{
		{"wrong old password", PasswordChange{Old: "wrongpass1", New: "newsecret1", Confirm: "newsecret1"}, string(ErrOldPasswordMismatch)},
		{"confirmation differs", PasswordChange{Old: "secret123", New: "newsecret1", Confirm: "newsecret2"}, string(ErrNewPasswordMismatch)},
		{"new too short", PasswordChange{Old: "secret123", New: "short", Confirm: "short"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.addUser(t, "p1", "p@x.lt", models.RolePatient, "secret123")
			before := f.user(t, "p1").PasswordHash

			view, err := f.account.HandleAccountRequest(ctx, "p1", tt.form)
			if err != nil {
				t.Fatalf("HandleAccountRequest: %v", err)
			}
			if view.Severity != SeverityError {
				t.Errorf("Severity = %s", view.Severity)
			}
			if tt.msg != "" && view.Message != tt.msg {
				t.Errorf("Message = %q, want %q", view.Message, tt.msg)
			}
			if f.user(t, "p1").PasswordHash != before {
				t.Error("refused change replaced the hash")
			}
		})
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func ExampleAccountService_HandleAccountRequest() {
	users := repositories.NewMemoryUserRepository()
	_ = users.Create(context.Background(), &models.User{UniqueID: "p1", Email: "p@x.lt", Role: models.RolePatient})
	svc := NewAccountService(users, repositories.NewMemoryVisitRepository(users), nil, nil)

	view, _ := svc.HandleAccountRequest(context.Background(), "p1", ContactUpdate{Email: "n@x.lt", Phone: "+37060000000"})
	fmt.Println(view.Template, view.Severity, view.Message)
	// Output: account_patient success Duomenys atnaujinti.
}
