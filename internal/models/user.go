package models

import "time"

// User represents a registered account. Password holds the bcrypt hash
// of the user's password, never the plaintext; the json:"-" tag keeps it
// out of every serialized response.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	FullName  string    `json:"fullName" gorm:"type:varchar(255);not null" validate:"required"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" validate:"required,email"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
