package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is an update shared with exactly one cohort. Only the author
// (or an admin) may edit or delete it.
type Post struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CohortID string `json:"cohort_id" gorm:"index;type:varchar(36)" validate:"required"`
	AuthorID string `json:"author_id" gorm:"index;type:varchar(36)"`
	Content  string `json:"content" gorm:"type:text" validate:"required"`
	PhotoURL string `json:"photo_url" gorm:"type:varchar(500)" validate:"omitempty,url"`
	Author   *User  `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	gorm.Model
}

// Comment is attached to exactly one post; same author-only rule as Post.
type Comment struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID   string `json:"post_id" gorm:"index;type:varchar(36)" validate:"required"`
	AuthorID string `json:"author_id" gorm:"index;type:varchar(36)"`
	Content  string `json:"content" gorm:"type:text" validate:"required"`
	Author   *User  `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	gorm.Model
}

// Upvote records at most one vote per (post, user) pair. The composite
// unique index makes the pair constraint hold under concurrent requests,
// which an application-level existence check alone cannot. Removal is a
// hard delete so a vote can be toggled back on.
type Upvote struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `json:"post_id" gorm:"type:varchar(36);uniqueIndex:idx_upvote_pair"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);uniqueIndex:idx_upvote_pair"`
	CreatedAt time.Time `json:"created_at"`
}
