package models

import (
	"time"

	"gorm.io/gorm"
)

// Cohort-scoped membership roles.
const (
	MembershipRoleMember    = "member"
	MembershipRoleModerator = "moderator"
)

// Cohort is a named group of users who share posts and comments.
// StartDate/EndDate are only set on cohorts created by the legacy
// birth-week bucketing path; the composite unique index on the range
// guarantees that concurrent bucketing for the same month cannot
// create two cohorts.
type Cohort struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string     `json:"name" gorm:"type:varchar(100)" validate:"required,min=1,max=100"`
	Description string     `json:"description" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	StartDate   *time.Time `json:"start_date,omitempty" gorm:"uniqueIndex:idx_cohort_range"`
	EndDate     *time.Time `json:"end_date,omitempty" gorm:"uniqueIndex:idx_cohort_range"`
	CreatorID   string     `json:"creator_id" gorm:"index;type:varchar(36)"`
	gorm.Model
}

// CohortMembership is the (user, cohort, role) relationship record.
// The composite unique index rejects duplicate memberships for the
// same pair at the storage layer. Removal is a hard delete (no
// gorm.Model soft delete) so a removed member can be re-added without
// tripping the unique index.
type CohortMembership struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);uniqueIndex:idx_membership_pair"`
	CohortID  string    `json:"cohort_id" gorm:"type:varchar(36);uniqueIndex:idx_membership_pair"`
	Role      string    `json:"role" gorm:"type:varchar(20)" validate:"omitempty,oneof=member moderator"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
