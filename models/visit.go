package models

import "time"

// Visit is a scheduled remote consultation between a patient and a doctor.
type Visit struct {
	BaseModel
	PatientID   string    `gorm:"type:varchar(40);not null;index"`
	DoctorID    string    `gorm:"type:varchar(40);not null;index"`
	ScheduledAt time.Time `gorm:"not null;index"`
	MeetingURL  string    `gorm:"type:varchar(200);uniqueIndex;not null"`

	Patient User `gorm:"foreignKey:PatientID;references:UniqueID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	Doctor  User `gorm:"foreignKey:DoctorID;references:UniqueID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
}

func (Visit) TableName() string {
	return "user_visits"
}
