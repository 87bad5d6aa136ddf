package models

import "time"

// BaseModel carries the surrogate key and timestamps of clinical records.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
