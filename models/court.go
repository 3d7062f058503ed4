package models

import "time"

type Court struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Location    *string   `json:"location,omitempty" db:"location"`
	IsIndoor    bool      `json:"is_indoor" db:"is_indoor"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
