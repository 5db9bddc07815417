package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/config"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository/mongo"
	"github.com/Ali3911/Joompa-Gym-App/internal/service"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// The notifier runs the daily missed-session sweep on a cron schedule and
// pushes the results through FCM. It shares the database with the API server
// but never touches S3, so the program service is wired without storage.
func main() {
	logrus.Info("Starting Joompa notifier...")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logrus.WithError(err).Fatal("could not connect to MongoDB")
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logrus.WithError(err).Error("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	profileRepo := mongo.NewMongoProfileRepository(appDB)
	catalogRepo := mongo.NewMongoCatalogRepository(appDB)
	repsRepo := mongo.NewMongoRepsRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	configRepo := mongo.NewMongoConfigRepository(appDB)
	deviceRepo := mongo.NewMongoDeviceRepository(appDB)
	txRunner := mongo.NewTransactionRunner(dbClient)

	programService := service.NewProgramService(profileRepo, catalogRepo, repsRepo, programRepo, configRepo, txRunner, nil)
	pushSender := service.NewFCMSender(cfg.FCM.Endpoint, cfg.FCM.APIKey)
	notificationService := service.NewNotificationService(deviceRepo, programService, pushSender)

	sweep := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := notificationService.SweepMissedSessions(ctx); err != nil {
			logrus.WithError(err).Error("missed-session sweep failed")
			return
		}
		logrus.Info("missed-session sweep completed")
	}

	c := cron.New()
	if err := c.AddFunc(cfg.Notifier.Schedule, sweep); err != nil {
		logrus.WithError(err).WithField("schedule", cfg.Notifier.Schedule).
			Fatal("invalid notifier schedule")
	}
	c.Start()
	defer c.Stop()

	logrus.WithField("schedule", cfg.Notifier.Schedule).Info("Notifier scheduled.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Notifier exiting.")
}
