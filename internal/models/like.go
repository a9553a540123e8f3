package models

import "time"

// LikeKind selects which kind of target a like points at.
type LikeKind string

const (
	LikeKindPost    LikeKind = "post"
	LikeKindComment LikeKind = "comment"
)

// PostLike records that a user likes a post. The composite primary key is the
// storage-level guarantee of at most one like per (user, post).
type PostLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"postId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentLike records that a user likes a comment.
type CommentLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	CommentID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"commentId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Comment   *Comment  `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
