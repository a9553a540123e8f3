package models

import "time"

// Comment belongs to exactly one post. Likes mirrors the CommentLike row count.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Likes     int       `gorm:"not null;default:0;index" json:"likes"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Liked     bool      `gorm:"-" json:"commentLiked"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
