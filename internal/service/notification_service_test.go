package service

import (
	"context"
	"testing"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeDevices struct {
	devices []domain.DeviceRegistration
}

func (f *fakeDevices) Upsert(_ context.Context, registration *domain.DeviceRegistration) error {
	for i := range f.devices {
		if f.devices[i].UserProfileID == registration.UserProfileID &&
			f.devices[i].Token == registration.Token {
			f.devices[i] = *registration
			return nil
		}
	}
	registration.ID = primitive.NewObjectID()
	f.devices = append(f.devices, *registration)
	return nil
}

func (f *fakeDevices) ListAll(_ context.Context) ([]domain.DeviceRegistration, error) {
	return f.devices, nil
}

func (f *fakeDevices) DeleteByToken(_ context.Context, token string) error {
	for i := range f.devices {
		if f.devices[i].Token == token {
			f.devices = append(f.devices[:i], f.devices[i+1:]...)
			return nil
		}
	}
	return nil
}

type pushCall struct {
	tokens []string
	title  string
	body   string
}

type captureSender struct {
	sent []pushCall
}

func (c *captureSender) Notify(_ context.Context, tokens []string, title, body string) error {
	c.sent = append(c.sent, pushCall{tokens: tokens, title: title, body: body})
	return nil
}

func (c *captureSender) bodyFor(token string) (string, bool) {
	for _, call := range c.sent {
		for _, t := range call.tokens {
			if t == token {
				return call.body, true
			}
		}
	}
	return "", false
}

func TestRegisterDeviceRequiresToken(t *testing.T) {
	svc := NewNotificationService(&fakeDevices{}, nil, &captureSender{})

	err := svc.RegisterDevice(context.Background(), primitive.NewObjectID(), "")
	assert.Error(t, err)
}

func TestRegisterDeviceUpserts(t *testing.T) {
	devices := &fakeDevices{}
	svc := NewNotificationService(devices, nil, &captureSender{})
	ctx := context.Background()
	profileID := primitive.NewObjectID()

	require.NoError(t, svc.RegisterDevice(ctx, profileID, "tok-1"))
	require.NoError(t, svc.RegisterDevice(ctx, profileID, "tok-1"))
	assert.Len(t, devices.devices, 1)
}

// TestSweepBucketsByMissedCount runs the sweep against the full program
// service: one profile has a workout today, one missed yesterday's session and
// one has lapsed past every message bucket.
func TestSweepBucketsByMissedCount(t *testing.T) {
	f := newFixture(t)
	now := f.now

	addProfile := func() *domain.UserProfile {
		p := &domain.UserProfile{
			ID:             primitive.NewObjectID(),
			UserID:         primitive.NewObjectID(),
			IsPersonalized: true,
		}
		f.db.profiles[p.ID] = p
		return p
	}
	todayProfile := addProfile()
	missedProfile := addProfile()
	silentProfile := addProfile()

	f.addRow(domain.UserProgramDesign{UserProfileID: todayProfile.ID, Week: 1, Day: 1,
		WorkoutDate: now, StartDate: now})
	f.addRow(domain.UserProgramDesign{UserProfileID: missedProfile.ID, Week: 1, Day: 1,
		WorkoutDate: now.AddDate(0, 0, -1), StartDate: now.AddDate(0, 0, -1)})
	for i := 0; i < 3; i++ {
		f.addRow(domain.UserProgramDesign{UserProfileID: silentProfile.ID, Week: 1, Day: i + 1,
			WorkoutDate: now.AddDate(0, 0, -3+i), StartDate: now.AddDate(0, 0, -3)})
	}

	devices := &fakeDevices{}
	sender := &captureSender{}
	svc := NewNotificationService(devices, f.svc, sender)
	ctx := context.Background()

	require.NoError(t, svc.RegisterDevice(ctx, todayProfile.ID, "tok-today"))
	require.NoError(t, svc.RegisterDevice(ctx, missedProfile.ID, "tok-missed"))
	require.NoError(t, svc.RegisterDevice(ctx, silentProfile.ID, "tok-silent"))

	require.NoError(t, svc.SweepMissedSessions(ctx))

	body, ok := sender.bodyFor("tok-today")
	require.True(t, ok)
	assert.Equal(t, dailyWorkoutMessage, body)

	body, ok = sender.bodyFor("tok-missed")
	require.True(t, ok)
	assert.Equal(t, missedSessionMessages[1], body)

	// Three missed sessions is not a message bucket; no nudge goes out.
	_, ok = sender.bodyFor("tok-silent")
	assert.False(t, ok)

	for _, call := range sender.sent {
		assert.Equal(t, notificationTitle, call.title)
	}
}
