package models

import (
	"time"

	"gorm.io/gorm"
)

// Global user roles. Admin is a superuser flag that bypasses all
// cohort-scoped permission checks.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered parent account.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	FullName   string `json:"full_name" gorm:"type:varchar(255)" validate:"required,max=255"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role       string `json:"role" gorm:"type:varchar(20);default:user" validate:"omitempty,oneof=user admin"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// IsAdmin reports whether the user carries the global admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PasswordResetToken is a single-use opaque token bound to a user.
// Redemption is an atomic update-if-unused, so a token consumed once
// cannot be consumed again even under concurrent requests.
type PasswordResetToken struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Token     string    `json:"-" gorm:"uniqueIndex;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"index;type:varchar(36)"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	gorm.Model
}

// Baby is an optional profile attribute of a user. Adding one runs the
// legacy birth-week bucketing and joins the parent to the bucket cohort.
type Baby struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"index;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,max=100"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	PhotoURL  string    `json:"photo_url" gorm:"type:varchar(500)" validate:"omitempty,url"`
	gorm.Model
}
