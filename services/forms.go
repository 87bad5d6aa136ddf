package services

import "io"

// RegistrationForm is the /registracija payload.
type RegistrationForm struct {
	FirstName    string `form:"first_name" validate:"required,min=3,max=50"`
	LastName     string `form:"last_name" validate:"required,min=3,max=20"`
	PersonalCode string `form:"personal_code" validate:"required,len=11"`
	Email        string `form:"email" validate:"required,email,max=50"`
	Phone        string `form:"phone" validate:"required,min=5,max=30"`
	Password     string `form:"password" validate:"required,min=8,max=50"`
}

// LoginForm is the /prisijungimas payload.
type LoginForm struct {
	Email    string `form:"email" validate:"required,max=50"`
	Password string `form:"password" validate:"required,max=50"`
}

// MeetingForm is the /e-susitikimas payload.
type MeetingForm struct {
	PatientID string `form:"patient_id"`
}

// AccountSubmission is one of the three account page forms. Handlers decode
// the request into exactly one of ContactUpdate, PhotoUpdate or
// PasswordChange; a nil submission means the page was only viewed.
type AccountSubmission interface {
	accountSubmission()
}

// ContactUpdate replaces email and phone together.
type ContactUpdate struct {
	Email string `form:"email" validate:"required,email,max=50"`
	Phone string `form:"phone" validate:"min=5,max=30"`
}

// PhotoUpdate carries the uploaded file. Content is nil when no file was
// chosen.
type PhotoUpdate struct {
	FileName string
	Content  io.Reader
}

// PasswordChange verifies Old and stores New when it equals Confirm.
type PasswordChange struct {
	Old     string `form:"old_password" validate:"min=8,max=50"`
	New     string `form:"new_password" validate:"min=8,max=50"`
	Confirm string `form:"repeat_password" validate:"min=8,max=50"`
}

func (ContactUpdate) accountSubmission()  {}
func (PhotoUpdate) accountSubmission()    {}
func (PasswordChange) accountSubmission() {}
