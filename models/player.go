package models

import "time"

type Player struct {
	ID            int       `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Rank          int       `json:"rank" db:"rank"`
	LicenseNumber *string   `json:"license_number,omitempty" db:"license_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
