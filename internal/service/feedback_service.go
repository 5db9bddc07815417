package service

import (
	"context"
	"errors"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedbackService stores questionnaire answers tied to program rows.
type FeedbackService interface {
	Save(ctx context.Context, profileID primitive.ObjectID, answers []domain.UserFeedback) error
	ListByProfile(ctx context.Context, profileID primitive.ObjectID) ([]domain.UserFeedback, error)
}

// feedbackService implements FeedbackService.
type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
}

// NewFeedbackService creates a new instance of feedbackService.
func NewFeedbackService(feedbackRepo repository.FeedbackRepository) FeedbackService {
	return &feedbackService{feedbackRepo: feedbackRepo}
}

// Save upserts each answer; resubmitting an answer for the same program row
// overwrites the earlier value.
func (s *feedbackService) Save(ctx context.Context, profileID primitive.ObjectID, answers []domain.UserFeedback) error {
	if len(answers) == 0 {
		return errors.New("at least one feedback answer is required")
	}
	for i := range answers {
		answers[i].UserProfileID = profileID
		if answers[i].FeedbackID == primitive.NilObjectID || answers[i].ProgramDesignID == primitive.NilObjectID {
			return errors.New("feedback and program design IDs are required")
		}
		if err := s.feedbackRepo.Upsert(ctx, &answers[i]); err != nil {
			return err
		}
	}
	return nil
}

// ListByProfile returns all of a profile's questionnaire answers.
func (s *feedbackService) ListByProfile(ctx context.Context, profileID primitive.ObjectID) ([]domain.UserFeedback, error) {
	return s.feedbackRepo.ListByProfile(ctx, profileID)
}
