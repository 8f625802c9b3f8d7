package services

import (
	"errors"
	"fmt"
	"time"

	"parently/internal/models"
	"parently/internal/policy"
	"parently/internal/repositories"
)

// CohortService handles business logic for cohorts, memberships, and
// the legacy birth-week bucketing path.
type CohortService struct {
	cohortRepo repositories.CohortRepository
	userRepo   repositories.UserRepository
	publisher  EventPublisher
}

// NewCohortService creates a new CohortService.
func NewCohortService(cohortRepo repositories.CohortRepository, userRepo repositories.UserRepository, publisher EventPublisher) *CohortService {
	return &CohortService{
		cohortRepo: cohortRepo,
		userRepo:   userRepo,
		publisher:  publisher,
	}
}

// CreateCohort creates a cohort together with a moderator membership
// for the creator. The repository runs both inserts in one transaction;
// a cohort can never exist without its initial moderator.
func (s *CohortService) CreateCohort(name, description string, creator *models.User) (*models.Cohort, error) {
	cohort := &models.Cohort{
		Name:        name,
		Description: description,
		CreatorID:   creator.ID,
	}
	membership := &models.CohortMembership{
		UserID: creator.ID,
		Role:   models.MembershipRoleModerator,
	}
	if err := s.cohortRepo.Create(cohort, membership); err != nil {
		return nil, fmt.Errorf("failed to create cohort: %w", err)
	}

	publishEvent(s.publisher, "cohort.created", map[string]interface{}{
		"cohortID":  cohort.ID,
		"name":      cohort.Name,
		"creatorID": creator.ID,
	})
	return cohort, nil
}

// GetAllCohorts retrieves all cohorts.
func (s *CohortService) GetAllCohorts() ([]models.Cohort, error) {
	return s.cohortRepo.GetAll()
}

// GetCohortByID retrieves a single cohort by its ID.
func (s *CohortService) GetCohortByID(id string) (*models.Cohort, error) {
	cohort, err := s.cohortRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cohort, nil
}

// GetUserCohorts retrieves the cohorts the user belongs to.
func (s *CohortService) GetUserCohorts(userID string) ([]models.Cohort, error) {
	return s.cohortRepo.GetForUser(userID)
}

// ListMembers retrieves a cohort's memberships with member profiles.
func (s *CohortService) ListMembers(cohortID string) ([]models.CohortMembership, error) {
	if _, err := s.GetCohortByID(cohortID); err != nil {
		return nil, err
	}
	return s.cohortRepo.ListMemberships(cohortID)
}

// ListModerators retrieves a cohort's moderator memberships.
func (s *CohortService) ListModerators(cohortID string) ([]models.CohortMembership, error) {
	if _, err := s.GetCohortByID(cohortID); err != nil {
		return nil, err
	}
	return s.cohortRepo.ListModerators(cohortID)
}

// IsModerator reports whether the user holds a moderator membership in
// the cohort. Creator status confers nothing by itself; a creator who
// has been removed as moderator loses management rights.
func (s *CohortService) IsModerator(userID, cohortID string) (bool, error) {
	return s.cohortRepo.IsModerator(userID, cohortID)
}

// AddMember adds a user to a cohort. The target may be given by ID or,
// when the ID is empty, resolved by email. The actor must be a
// moderator of the cohort or a global admin.
func (s *CohortService) AddMember(actor *models.User, cohortID, userID, email, role string) (*models.CohortMembership, error) {
	if role == "" {
		role = models.MembershipRoleMember
	}
	if role != models.MembershipRoleMember && role != models.MembershipRoleModerator {
		return nil, ErrInvalidRole
	}

	if _, err := s.GetCohortByID(cohortID); err != nil {
		return nil, err
	}
	if err := s.authorizeMemberManagement(actor, cohortID); err != nil {
		return nil, err
	}

	target, err := s.resolveTarget(userID, email)
	if err != nil {
		return nil, err
	}

	membership := &models.CohortMembership{
		UserID:   target.ID,
		CohortID: cohortID,
		Role:     role,
	}
	if err := s.cohortRepo.AddMembership(membership); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateMembership
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	publishEvent(s.publisher, "cohort.member_added", map[string]interface{}{
		"cohortID": cohortID,
		"userID":   target.ID,
		"role":     role,
		"actorID":  actor.ID,
	})
	return membership, nil
}

// UpdateMembershipRole changes a membership's role. Demoting a cohort's
// only moderator is refused; a cohort must always keep at least one.
func (s *CohortService) UpdateMembershipRole(actor *models.User, membershipID, role string) (*models.CohortMembership, error) {
	if role != models.MembershipRoleMember && role != models.MembershipRoleModerator {
		return nil, ErrInvalidRole
	}

	membership, err := s.cohortRepo.GetMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.authorizeMemberManagement(actor, membership.CohortID); err != nil {
		return nil, err
	}

	if membership.Role == models.MembershipRoleModerator && role == models.MembershipRoleMember {
		if err := s.ensureNotLastModerator(membership.CohortID); err != nil {
			return nil, err
		}
	}

	if err := s.cohortRepo.UpdateMembershipRole(membershipID, role); err != nil {
		return nil, fmt.Errorf("failed to update membership role: %w", err)
	}
	membership.Role = role
	return membership, nil
}

// RemoveMember deletes a membership. Removing a cohort's only moderator
// is refused.
func (s *CohortService) RemoveMember(actor *models.User, membershipID string) error {
	membership, err := s.cohortRepo.GetMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.authorizeMemberManagement(actor, membership.CohortID); err != nil {
		return err
	}

	if membership.Role == models.MembershipRoleModerator {
		if err := s.ensureNotLastModerator(membership.CohortID); err != nil {
			return err
		}
	}

	if err := s.cohortRepo.DeleteMembership(membershipID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// AddBaby stores a baby profile and runs the legacy birth-week
// bucketing: the parent is joined as member to the auto-created monthly
// cohort for the baby's birth date. Joining is a no-op when the parent
// already belongs to the bucket.
func (s *CohortService) AddBaby(parent *models.User, name string, birthDate time.Time, photoURL string) (*models.Baby, *models.Cohort, error) {
	baby := &models.Baby{
		UserID:    parent.ID,
		Name:      name,
		BirthDate: birthDate,
		PhotoURL:  photoURL,
	}
	if err := s.userRepo.CreateBaby(baby); err != nil {
		return nil, nil, fmt.Errorf("failed to create baby: %w", err)
	}

	cohort, err := s.bucketCohortFor(parent, birthDate)
	if err != nil {
		return nil, nil, err
	}

	membership := &models.CohortMembership{
		UserID:   parent.ID,
		CohortID: cohort.ID,
		Role:     models.MembershipRoleMember,
	}
	if err := s.cohortRepo.AddMembership(membership); err != nil && !errors.Is(err, repositories.ErrDuplicate) {
		return nil, nil, fmt.Errorf("failed to join bucket cohort: %w", err)
	}
	return baby, cohort, nil
}

// ListBabies retrieves the babies belonging to a user.
func (s *CohortService) ListBabies(userID string) ([]models.Baby, error) {
	return s.userRepo.ListBabiesByUser(userID)
}

// BucketWindow computes the birth-week bucketing range for a birth
// date: the first day of the birth month through the last day of the
// following month, at midnight UTC. Every code path that touches bucket
// cohorts must go through this one function — the lookup keys on exact
// range equality, so any drift in the computation silently creates
// duplicate cohorts.
func BucketWindow(birthDate time.Time) (start, end time.Time) {
	start = time.Date(birthDate.Year(), birthDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 2, -1)
	return start, end
}

func (s *CohortService) bucketCohortFor(parent *models.User, birthDate time.Time) (*models.Cohort, error) {
	start, end := BucketWindow(birthDate)
	candidate := &models.Cohort{
		Name:      fmt.Sprintf("%s Babies", start.Format("January 2006")),
		StartDate: &start,
		EndDate:   &end,
		CreatorID: parent.ID,
	}
	cohort, err := s.cohortRepo.FindOrCreateByRange(candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bucket cohort: %w", err)
	}
	return cohort, nil
}

// authorizeMemberManagement resolves the actor's standing for the
// cohort and applies the shared authorization predicate.
func (s *CohortService) authorizeMemberManagement(actor *models.User, cohortID string) error {
	moderator, err := s.cohortRepo.IsModerator(actor.ID, cohortID)
	if err != nil {
		return err
	}
	if !policy.Can(policy.ActorFor(actor, moderator), policy.ManageMembers, policy.Resource{CohortID: cohortID}) {
		return ErrForbidden
	}
	return nil
}

func (s *CohortService) ensureNotLastModerator(cohortID string) error {
	count, err := s.cohortRepo.CountModerators(cohortID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastModerator
	}
	return nil
}

func (s *CohortService) resolveTarget(userID, email string) (*models.User, error) {
	var (
		target *models.User
		err    error
	)
	if userID != "" {
		target, err = s.userRepo.GetByID(userID)
	} else {
		target, err = s.userRepo.GetByEmail(email)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return target, nil
}
