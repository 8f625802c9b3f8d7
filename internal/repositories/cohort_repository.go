package repositories

import (
	"parently/internal/models"
)

// CohortRepository defines the interface for cohort and membership data
// access.
type CohortRepository interface {
	// Create stores the cohort and the creator's moderator membership in
	// one transaction; partial creation leaving a cohort without any
	// moderator must be impossible.
	Create(cohort *models.Cohort, creatorMembership *models.CohortMembership) error
	GetAll() ([]models.Cohort, error)
	GetByID(id string) (*models.Cohort, error)
	GetForUser(userID string) ([]models.Cohort, error)
	// FindOrCreateByRange resolves the cohort whose (start, end) range
	// exactly matches the given cohort's, creating it when absent. Backed
	// by the unique range index so concurrent calls collapse to one row.
	FindOrCreateByRange(cohort *models.Cohort) (*models.Cohort, error)

	AddMembership(membership *models.CohortMembership) error
	GetMembershipByID(id string) (*models.CohortMembership, error)
	ListMemberships(cohortID string) ([]models.CohortMembership, error)
	ListModerators(cohortID string) ([]models.CohortMembership, error)
	CountModerators(cohortID string) (int64, error)
	UpdateMembershipRole(id string, role string) error
	DeleteMembership(id string) error
	IsModerator(userID, cohortID string) (bool, error)
}
