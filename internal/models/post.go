// Package models contains data structures for the application's domain models.
package models

import "time"

// Post is an article written by a user. Likes is a denormalized counter that
// always equals the number of PostLike rows for the post.
type Post struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Title     string `gorm:"size:255;not null" json:"title"`
	Content   string `gorm:"type:text;not null" json:"content"`
	Published bool   `gorm:"not null;index" json:"published"`
	Likes     int    `gorm:"not null;default:0;index" json:"likes"`
	ImgURL    string `json:"imgUrl"`
	// ImgID is the image store asset id backing ImgURL.
	ImgID     string    `json:"-"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Topics    []Topic   `gorm:"many2many:post_topics;constraint:OnDelete:CASCADE" json:"topics"`
	Liked     bool      `gorm:"-" json:"liked"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostDetail is a single post with its viewer annotation and top comments.
type PostDetail struct {
	*Post
	PostLiked bool       `json:"postLiked"`
	Comments  []*Comment `json:"comments"`
}

// TopicNames returns the names of the post's topics in stored order.
func (p *Post) TopicNames() []string {
	names := make([]string, 0, len(p.Topics))
	for _, t := range p.Topics {
		names = append(names, t.Name)
	}
	return names
}
