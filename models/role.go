package models

import "fmt"

// Role is the closed set of account kinds. Values are the Lithuanian labels
// stored in users.role.
type Role string

const (
	RolePatient       Role = "Pacientas"
	RoleDoctor        Role = "Gydytojas"
	RoleAdministrator Role = "Administratorius"
)

// Roles lists every valid role.
var Roles = []Role{RolePatient, RoleDoctor, RoleAdministrator}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdministrator:
		return true
	}
	return false
}

// ParseRole converts a stored or submitted value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// CanUploadPhoto reports whether the role may replace its profile photo.
// Only clinical staff have public profile photos.
func (r Role) CanUploadPhoto() bool {
	switch r {
	case RoleDoctor:
		return true
	case RolePatient, RoleAdministrator:
		return false
	}
	return false
}

func (r Role) String() string { return string(r) }
