package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ktuligonine.lt/models"
)

func TestListHistoryOnlyOwnEntriesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "p1", "p1@x.lt", models.RolePatient, "secret123")
	f.addUser(t, "p2", "p2@x.lt", models.RolePatient, "secret123")

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, e := range []models.PatientHistory{
		{PatientID: "p1", Date: day, Diagnosis: "Gripas"},
		{PatientID: "p2", Date: day, Diagnosis: "Svetimas"},
		{PatientID: "p1", Date: day.AddDate(0, 2, 0), Diagnosis: "Angina"},
	} {
		e := e
		if err := f.history.Create(ctx, &e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	svc := NewHistoryService(f.auth, f.history)
	view, err := svc.ListHistory(ctx, "p1")
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if view.User.UniqueID != "p1" {
		t.Errorf("User = %q", view.User.UniqueID)
	}
	if len(view.Entries) != 2 {
		t.Fatalf("%d entries, want 2", len(view.Entries))
	}
	if view.Entries[0].Diagnosis != "Angina" || view.Entries[1].Diagnosis != "Gripas" {
		t.Errorf("order = %q, %q", view.Entries[0].Diagnosis, view.Entries[1].Diagnosis)
	}
	for _, e := range view.Entries {
		if e.PatientID != "p1" {
			t.Errorf("foreign entry %+v", e)
		}
	}
}

func TestListHistoryEmptyAndUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "d1", "d@x.lt", models.RoleDoctor, "secret123")
	svc := NewHistoryService(f.auth, f.history)

	view, err := svc.ListHistory(context.Background(), "d1")
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(view.Entries) != 0 {
		t.Errorf("%d entries, want none", len(view.Entries))
	}
	if _, err := svc.ListHistory(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ListHistory(\"\") = %v, want ErrUnauthorized", err)
	}
}
