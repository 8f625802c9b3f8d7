package repositories

import (
	"errors"
	"fmt"

	"parently/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCohortRepository is a GORM implementation of CohortRepository.
type GORMCohortRepository struct {
	db *gorm.DB
}

// NewGORMCohortRepository creates a new instance of GORMCohortRepository.
func NewGORMCohortRepository(db *gorm.DB) *GORMCohortRepository {
	return &GORMCohortRepository{
		db: db,
	}
}

// Create stores the cohort and the creator's moderator membership in a
// single transaction; either both rows exist afterwards or neither does.
func (r *GORMCohortRepository) Create(cohort *models.Cohort, creatorMembership *models.CohortMembership) error {
	if cohort.ID == "" {
		cohort.ID = uuid.New().String()
	}
	if creatorMembership.ID == "" {
		creatorMembership.ID = uuid.New().String()
	}
	creatorMembership.CohortID = cohort.ID

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cohort).Error; err != nil {
			return fmt.Errorf("failed to create cohort: %w", err)
		}
		if err := tx.Create(creatorMembership).Error; err != nil {
			return fmt.Errorf("failed to create creator membership: %w", err)
		}
		return nil
	})
}

// GetAll retrieves all cohorts.
func (r *GORMCohortRepository) GetAll() ([]models.Cohort, error) {
	var cohorts []models.Cohort
	if err := r.db.Find(&cohorts).Error; err != nil {
		return nil, fmt.Errorf("failed to get all cohorts: %w", err)
	}
	return cohorts, nil
}

// GetByID retrieves a single cohort by its ID.
func (r *GORMCohortRepository) GetByID(id string) (*models.Cohort, error) {
	var cohort models.Cohort
	if err := r.db.First(&cohort, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cohort by ID %s: %w", id, err)
	}
	return &cohort, nil
}

// GetForUser retrieves the cohorts the user holds a membership in.
func (r *GORMCohortRepository) GetForUser(userID string) ([]models.Cohort, error) {
	var cohorts []models.Cohort
	err := r.db.
		Joins("JOIN cohort_memberships ON cohort_memberships.cohort_id = cohorts.id").
		Where("cohort_memberships.user_id = ?", userID).
		Find(&cohorts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get cohorts for user %s: %w", userID, err)
	}
	return cohorts, nil
}

// FindOrCreateByRange resolves the bucket cohort whose date range
// exactly matches the given cohort's, creating it when absent. A
// concurrent create losing the race on the unique range index falls
// back to reading the winner's row.
func (r *GORMCohortRepository) FindOrCreateByRange(cohort *models.Cohort) (*models.Cohort, error) {
	var existing models.Cohort
	err := r.db.
		Where("start_date = ? AND end_date = ?", cohort.StartDate, cohort.EndDate).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up cohort by range: %w", err)
	}

	if cohort.ID == "" {
		cohort.ID = uuid.New().String()
	}
	if err := r.db.Create(cohort).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race; the winning row is the bucket.
			if err := r.db.
				Where("start_date = ? AND end_date = ?", cohort.StartDate, cohort.EndDate).
				First(&existing).Error; err != nil {
				return nil, fmt.Errorf("failed to re-read bucket cohort: %w", err)
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create bucket cohort: %w", err)
	}
	return cohort, nil
}

// AddMembership creates a membership row; the unique (user, cohort)
// index turns duplicates into ErrDuplicate.
func (r *GORMCohortRepository) AddMembership(membership *models.CohortMembership) error {
	if membership.ID == "" {
		membership.ID = uuid.New().String()
	}
	if err := r.db.Create(membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// GetMembershipByID retrieves a membership row by its ID.
func (r *GORMCohortRepository) GetMembershipByID(id string) (*models.CohortMembership, error) {
	var membership models.CohortMembership
	if err := r.db.First(&membership, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership by ID %s: %w", id, err)
	}
	return &membership, nil
}

// ListMemberships retrieves all memberships of a cohort with the member
// users preloaded.
func (r *GORMCohortRepository) ListMemberships(cohortID string) ([]models.CohortMembership, error) {
	var memberships []models.CohortMembership
	err := r.db.Preload("User").
		Where("cohort_id = ?", cohortID).
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for cohort %s: %w", cohortID, err)
	}
	return memberships, nil
}

// ListModerators retrieves the moderator memberships of a cohort.
func (r *GORMCohortRepository) ListModerators(cohortID string) ([]models.CohortMembership, error) {
	var memberships []models.CohortMembership
	err := r.db.Preload("User").
		Where("cohort_id = ? AND role = ?", cohortID, models.MembershipRoleModerator).
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list moderators for cohort %s: %w", cohortID, err)
	}
	return memberships, nil
}

// CountModerators counts the moderator memberships of a cohort.
func (r *GORMCohortRepository) CountModerators(cohortID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.CohortMembership{}).
		Where("cohort_id = ? AND role = ?", cohortID, models.MembershipRoleModerator).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count moderators for cohort %s: %w", cohortID, err)
	}
	return count, nil
}

// UpdateMembershipRole changes the role of a membership row.
func (r *GORMCohortRepository) UpdateMembershipRole(id string, role string) error {
	res := r.db.Model(&models.CohortMembership{}).
		Where("id = ?", id).
		Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("failed to update membership role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMembership removes a membership row by its ID.
func (r *GORMCohortRepository) DeleteMembership(id string) error {
	res := r.db.Delete(&models.CohortMembership{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete membership: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsModerator reports whether a moderator membership row exists for the
// pair. This is the authorization primitive; creator status confers
// nothing by itself.
func (r *GORMCohortRepository) IsModerator(userID, cohortID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.CohortMembership{}).
		Where("user_id = ? AND cohort_id = ? AND role = ?", userID, cohortID, models.MembershipRoleModerator).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check moderator status: %w", err)
	}
	return count > 0, nil
}
