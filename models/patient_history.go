package models

import "time"

// PatientHistory is one entry of a patient's diagnosis history.
type PatientHistory struct {
	BaseModel
	Date         time.Time `gorm:"not null;index"`
	PatientID    string    `gorm:"type:varchar(40);not null;index"`
	Prescription string    `gorm:"type:varchar(200)"`
	Comments     string    `gorm:"type:text"`
	Diagnosis    string    `gorm:"type:varchar(100)"`

	Patient User `gorm:"foreignKey:PatientID;references:UniqueID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
}

func (PatientHistory) TableName() string {
	return "patients_history"
}
