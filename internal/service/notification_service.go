package service

import (
	"context"
	"errors"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Push notification copy. The bucket fires on the exact missed-session count,
// so a user is nudged on days 1, 2, 4, 7, 14 and 28 of a lapse rather than
// every day.
const notificationTitle = "Joompa - AI Trainer"

var missedSessionMessages = map[int]string{
	1:  "Hey, you missed your workout yesterday - not to worry, we've moved it to today!",
	2:  "Hey, you missed your workout again, so we've delayed it by another day!",
	4:  "Hey, everything ok? Your muscles miss you!",
	7:  "Hey, you haven't managed to work out this week - that's fine, tomorrow is a new week!",
	14: "Hey, it's been 2 weeks without training. We'll be in touch to check how we can assist!",
	28: "Hey stranger, it's time to get back on the horse! We've rescheduled your program to restart.",
}

const dailyWorkoutMessage = "Hey, you've a workout session today!"

// PushSender delivers one message to a batch of registration tokens.
type PushSender interface {
	Notify(ctx context.Context, tokens []string, title, body string) error
}

// NotificationService keeps the device registry and runs the daily
// missed-session sweep.
type NotificationService interface {
	RegisterDevice(ctx context.Context, profileID primitive.ObjectID, token string) error
	SweepMissedSessions(ctx context.Context) error
}

// notificationService implements NotificationService.
type notificationService struct {
	deviceRepo repository.DeviceRepository
	programs   ProgramService
	sender     PushSender
}

// NewNotificationService creates a new instance of notificationService.
func NewNotificationService(deviceRepo repository.DeviceRepository, programs ProgramService, sender PushSender) NotificationService {
	return &notificationService{
		deviceRepo: deviceRepo,
		programs:   programs,
		sender:     sender,
	}
}

// RegisterDevice stores a push registration token for a profile.
func (s *notificationService) RegisterDevice(ctx context.Context, profileID primitive.ObjectID, token string) error {
	if token == "" {
		return errors.New("registration token is required")
	}
	return s.deviceRepo.Upsert(ctx, &domain.DeviceRegistration{
		UserProfileID: profileID,
		Token:         token,
	})
}

// SweepMissedSessions classifies every registered device by its profile's
// missed-session count and sends one batch per bucket. Per-profile failures
// are logged and skipped so one bad profile cannot stall the sweep.
func (s *notificationService) SweepMissedSessions(ctx context.Context) error {
	devices, err := s.deviceRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	var daily []string
	buckets := make(map[int][]string)

	for _, device := range devices {
		today, err := s.programs.HasWorkoutToday(ctx, device.UserProfileID)
		if err != nil {
			logrus.WithError(err).WithField("profile", device.UserProfileID.Hex()).
				Warn("skipping device in notification sweep")
			continue
		}
		if today {
			daily = append(daily, device.Token)
		}

		missed, _, err := s.programs.MissedSessions(ctx, device.UserProfileID)
		if err != nil {
			logrus.WithError(err).WithField("profile", device.UserProfileID.Hex()).
				Warn("skipping device in notification sweep")
			continue
		}
		if _, nudge := missedSessionMessages[missed]; nudge {
			buckets[missed] = append(buckets[missed], device.Token)
		}
	}

	s.send(ctx, daily, dailyWorkoutMessage)
	for missed, tokens := range buckets {
		s.send(ctx, tokens, missedSessionMessages[missed])
	}
	return nil
}

func (s *notificationService) send(ctx context.Context, tokens []string, body string) {
	if len(tokens) == 0 {
		return
	}
	if err := s.sender.Notify(ctx, tokens, notificationTitle, body); err != nil {
		logrus.WithError(err).WithField("recipients", len(tokens)).Error("push batch failed")
		return
	}
	logrus.WithField("recipients", len(tokens)).Info("push batch sent")
}
