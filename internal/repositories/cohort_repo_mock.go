package repositories

import (
	"sync"
	"time"

	"parently/internal/models"

	"github.com/google/uuid"
)

// MockCohortRepository is an in-memory implementation of CohortRepository.
type MockCohortRepository struct {
	cohorts     map[string]models.Cohort
	memberships map[string]models.CohortMembership
	users       *MockUserRepository // for preloading members, may be nil
	mu          sync.RWMutex
}

// NewMockCohortRepository creates a new instance of MockCohortRepository.
// The user repository is used to attach member profiles in listings and
// may be nil when listings are not exercised.
func NewMockCohortRepository(users *MockUserRepository) *MockCohortRepository {
	return &MockCohortRepository{
		cohorts:     make(map[string]models.Cohort),
		memberships: make(map[string]models.CohortMembership),
		users:       users,
	}
}

// Create stores the cohort and the creator's moderator membership
// atomically under one lock.
func (r *MockCohortRepository) Create(cohort *models.Cohort, creatorMembership *models.CohortMembership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cohort.ID == "" {
		cohort.ID = uuid.New().String()
	}
	if creatorMembership.ID == "" {
		creatorMembership.ID = uuid.New().String()
	}
	creatorMembership.CohortID = cohort.ID
	cohort.CreatedAt = time.Now()
	cohort.UpdatedAt = time.Now()
	creatorMembership.CreatedAt = time.Now()
	creatorMembership.UpdatedAt = time.Now()

	r.cohorts[cohort.ID] = *cohort
	r.memberships[creatorMembership.ID] = *creatorMembership
	return nil
}

// GetAll returns all cohorts.
func (r *MockCohortRepository) GetAll() ([]models.Cohort, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cohorts := make([]models.Cohort, 0, len(r.cohorts))
	for _, c := range r.cohorts {
		cohorts = append(cohorts, c)
	}
	return cohorts, nil
}

// GetByID returns a cohort by its ID.
func (r *MockCohortRepository) GetByID(id string) (*models.Cohort, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cohort, ok := r.cohorts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &cohort, nil
}

// GetForUser returns the cohorts the user holds a membership in.
func (r *MockCohortRepository) GetForUser(userID string) ([]models.Cohort, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cohorts := make([]models.Cohort, 0)
	for _, m := range r.memberships {
		if m.UserID == userID {
			if c, ok := r.cohorts[m.CohortID]; ok {
				cohorts = append(cohorts, c)
			}
		}
	}
	return cohorts, nil
}

// FindOrCreateByRange resolves or creates the bucket cohort whose date
// range exactly matches.
func (r *MockCohortRepository) FindOrCreateByRange(cohort *models.Cohort) (*models.Cohort, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.cohorts {
		if c.StartDate != nil && c.EndDate != nil &&
			cohort.StartDate != nil && cohort.EndDate != nil &&
			c.StartDate.Equal(*cohort.StartDate) && c.EndDate.Equal(*cohort.EndDate) {
			existing := c
			return &existing, nil
		}
	}

	if cohort.ID == "" {
		cohort.ID = uuid.New().String()
	}
	cohort.CreatedAt = time.Now()
	cohort.UpdatedAt = time.Now()
	r.cohorts[cohort.ID] = *cohort
	return cohort, nil
}

// AddMembership adds a membership row, rejecting duplicate pairs.
func (r *MockCohortRepository) AddMembership(membership *models.CohortMembership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.memberships {
		if m.UserID == membership.UserID && m.CohortID == membership.CohortID {
			return ErrDuplicate
		}
	}
	if membership.ID == "" {
		membership.ID = uuid.New().String()
	}
	membership.CreatedAt = time.Now()
	membership.UpdatedAt = time.Now()
	r.memberships[membership.ID] = *membership
	return nil
}

// GetMembershipByID returns a membership row by its ID.
func (r *MockCohortRepository) GetMembershipByID(id string) (*models.CohortMembership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	membership, ok := r.memberships[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &membership, nil
}

// ListMemberships returns all memberships of a cohort.
func (r *MockCohortRepository) ListMemberships(cohortID string) ([]models.CohortMembership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberships := make([]models.CohortMembership, 0)
	for _, m := range r.memberships {
		if m.CohortID == cohortID {
			r.attachUser(&m)
			memberships = append(memberships, m)
		}
	}
	return memberships, nil
}

// ListModerators returns the moderator memberships of a cohort.
func (r *MockCohortRepository) ListModerators(cohortID string) ([]models.CohortMembership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberships := make([]models.CohortMembership, 0)
	for _, m := range r.memberships {
		if m.CohortID == cohortID && m.Role == models.MembershipRoleModerator {
			r.attachUser(&m)
			memberships = append(memberships, m)
		}
	}
	return memberships, nil
}

// CountModerators counts the moderator memberships of a cohort.
func (r *MockCohortRepository) CountModerators(cohortID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, m := range r.memberships {
		if m.CohortID == cohortID && m.Role == models.MembershipRoleModerator {
			count++
		}
	}
	return count, nil
}

// UpdateMembershipRole changes the role of a membership row.
func (r *MockCohortRepository) UpdateMembershipRole(id string, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership, ok := r.memberships[id]
	if !ok {
		return ErrNotFound
	}
	membership.Role = role
	membership.UpdatedAt = time.Now()
	r.memberships[id] = membership
	return nil
}

// DeleteMembership removes a membership row.
func (r *MockCohortRepository) DeleteMembership(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memberships[id]; !ok {
		return ErrNotFound
	}
	delete(r.memberships, id)
	return nil
}

// IsModerator reports whether a moderator membership exists for the pair.
func (r *MockCohortRepository) IsModerator(userID, cohortID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.memberships {
		if m.UserID == userID && m.CohortID == cohortID && m.Role == models.MembershipRoleModerator {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockCohortRepository) attachUser(m *models.CohortMembership) {
	if r.users == nil {
		return
	}
	if user, err := r.users.GetByID(m.UserID); err == nil {
		m.User = user
	}
}
