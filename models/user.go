package models

import "time"

// DefaultImage marks a user without an uploaded profile photo.
const DefaultImage = "default"

// UserImagesPath is the public URL prefix of uploaded profile photos.
const UserImagesPath = "/static/user_images/"

// User is the credential and profile record. UniqueID never changes after
// registration and PasswordHash never holds plaintext.
type User struct {
	UniqueID     string     `gorm:"primaryKey;type:varchar(40)"`
	FirstName    string     `gorm:"type:varchar(50);not null"`
	LastName     string     `gorm:"type:varchar(20);not null"`
	PersonalCode string     `gorm:"type:varchar(11);not null"`
	Birthday     *time.Time `gorm:"type:date"`
	Email        string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	Phone        string     `gorm:"type:varchar(30);not null"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'Pacientas';index;check:chk_users_role,role IN ('Pacientas','Gydytojas','Administratorius')"`
	WorkingHours string     `gorm:"type:varchar(300)"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	ImageURL     string     `gorm:"type:varchar(100);not null;default:'default'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}

// FullName joins first and last name for page headers.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ImagePath returns the public URL of the profile photo.
func (u *User) ImagePath() string {
	if u.ImageURL == "" || u.ImageURL == DefaultImage {
		return UserImagesPath + DefaultImage + ".png"
	}
	return UserImagesPath + u.ImageURL
}

// PhotoFileName is the stored file name of the user's uploaded photo.
func (u *User) PhotoFileName() string {
	return u.UniqueID + ".png"
}
