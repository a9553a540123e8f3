package models

// Topic is a unique tag shared between posts. A topic with no posts is removed.
type Topic struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}
