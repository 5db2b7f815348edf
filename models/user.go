package models

import "gorm.io/gorm"

// User is an admin account for the protected surface. Donors do not have
// accounts; they only appear as contact details on donations.
type User struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
}
