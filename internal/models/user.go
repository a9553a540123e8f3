package models

import "time"

// User is an author. Email and password hash never leave the server.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FirstName     string    `gorm:"size:255;not null" json:"firstName"`
	LastName      string    `gorm:"size:255;not null" json:"lastName"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"-"`
	Password      string    `gorm:"not null" json:"-"`
	ProfileImgURL string    `json:"profileImgUrl"`
	ProfileImgID  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
