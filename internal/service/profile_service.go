package service

import (
	"context"
	"errors"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrProfileExists = errors.New("profile already exists for user")
)

// ProfileService manages user profiles and the embedded sub-documents the
// generator reads: equipment holdings, injuries, standard variables and
// baseline assessment answers.
type ProfileService interface {
	Create(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error)
	Update(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error)
	SetEquipment(ctx context.Context, profileID primitive.ObjectID, holding domain.EquipmentHolding) error
	SetInjury(ctx context.Context, profileID primitive.ObjectID, injury domain.InjurySelection) error
	SetVariable(ctx context.Context, profileID primitive.ObjectID, variable domain.StandardVariableValue) error
	SetBaseline(ctx context.Context, profileID primitive.ObjectID, answers []domain.AssessmentAnswer) error
	Delete(ctx context.Context, profileID primitive.ObjectID) error
}

// profileService implements ProfileService.
type profileService struct {
	profileRepo repository.ProfileRepository
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

// Create stores a new profile; each account gets at most one.
func (s *profileService) Create(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	if profile.UserID == primitive.NilObjectID {
		return nil, errors.New("profile user ID is required")
	}

	_, err := s.profileRepo.GetByUserID(ctx, profile.UserID)
	if err == nil {
		return nil, ErrProfileExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	id, err := s.profileRepo.Create(ctx, profile)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProfileExists
		}
		return nil, err
	}
	profile.ID = id
	return profile, nil
}

// GetByUserID fetches the profile belonging to an account.
func (s *profileService) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// Update replaces the profile's mutable fields.
func (s *profileService) Update(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// SetEquipment upserts one holding, keyed by equipment, type and option.
func (s *profileService) SetEquipment(ctx context.Context, profileID primitive.ObjectID, holding domain.EquipmentHolding) error {
	return s.patch(ctx, profileID, func(profile *domain.UserProfile) {
		for i := range profile.Equipment {
			h := &profile.Equipment[i]
			if h.EquipmentID == holding.EquipmentID &&
				h.OptionID == holding.OptionID &&
				equalTypeID(h.EquipmentTypeID, holding.EquipmentTypeID) {
				*h = holding
				return
			}
		}
		profile.Equipment = append(profile.Equipment, holding)
	})
}

// SetInjury upserts one injury selection, keyed by injury and type.
func (s *profileService) SetInjury(ctx context.Context, profileID primitive.ObjectID, injury domain.InjurySelection) error {
	return s.patch(ctx, profileID, func(profile *domain.UserProfile) {
		for i := range profile.Injuries {
			existing := &profile.Injuries[i]
			if existing.InjuryID == injury.InjuryID && existing.InjuryTypeID == injury.InjuryTypeID {
				*existing = injury
				return
			}
		}
		profile.Injuries = append(profile.Injuries, injury)
	})
}

// SetVariable upserts one standard variable, keyed by name.
func (s *profileService) SetVariable(ctx context.Context, profileID primitive.ObjectID, variable domain.StandardVariableValue) error {
	return s.patch(ctx, profileID, func(profile *domain.UserProfile) {
		for i := range profile.Variables {
			if profile.Variables[i].Name == variable.Name {
				profile.Variables[i] = variable
				return
			}
		}
		profile.Variables = append(profile.Variables, variable)
	})
}

// SetBaseline replaces the whole baseline assessment.
func (s *profileService) SetBaseline(ctx context.Context, profileID primitive.ObjectID, answers []domain.AssessmentAnswer) error {
	return s.patch(ctx, profileID, func(profile *domain.UserProfile) {
		profile.Baseline = answers
	})
}

// Delete removes the profile. Program rows are kept; they become unreachable
// once the profile is gone.
func (s *profileService) Delete(ctx context.Context, profileID primitive.ObjectID) error {
	if err := s.profileRepo.Delete(ctx, profileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	return nil
}

// patch loads, mutates and writes back one profile.
func (s *profileService) patch(ctx context.Context, profileID primitive.ObjectID, mutate func(*domain.UserProfile)) error {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	mutate(profile)
	return s.profileRepo.Update(ctx, profile)
}

func equalTypeID(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
