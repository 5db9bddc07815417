package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/api"
	"github.com/Ali3911/Joompa-Gym-App/internal/config"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository/mongo"
	"github.com/Ali3911/Joompa-Gym-App/internal/service"
	"github.com/Ali3911/Joompa-Gym-App/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("Starting Joompa API server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}
	logrus.Info("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logrus.WithError(err).Fatal("could not connect to MongoDB")
	}
	defer func() {
		logrus.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logrus.WithError(err).Error("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logrus.Info("Database connection established.")

	// --- Ensure Indexes ---
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureProfileIndexes(ctx, appDB.Collection("user_profiles"))
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("user_program_designs"))
		mongo.EnsureFeedbackIndexes(ctx, appDB.Collection("user_feedbacks"))
		mongo.EnsureDeviceIndexes(ctx, appDB.Collection("device_registrations"))
		mongo.EnsureCatalogIndexes(ctx, appDB)
		mongo.EnsureRepsIndexes(ctx, appDB)
		logrus.Info("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize S3 storage")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	profileRepo := mongo.NewMongoProfileRepository(appDB)
	catalogRepo := mongo.NewMongoCatalogRepository(appDB)
	repsRepo := mongo.NewMongoRepsRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	configRepo := mongo.NewMongoConfigRepository(appDB)
	feedbackRepo := mongo.NewMongoFeedbackRepository(appDB)
	deviceRepo := mongo.NewMongoDeviceRepository(appDB)
	txRunner := mongo.NewTransactionRunner(dbClient)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	profileService := service.NewProfileService(profileRepo)
	programService := service.NewProgramService(profileRepo, catalogRepo, repsRepo, programRepo, configRepo, txRunner, fileStorage)
	feedbackService := service.NewFeedbackService(feedbackRepo)
	pushSender := service.NewFCMSender(cfg.FCM.Endpoint, cfg.FCM.APIKey)
	notificationService := service.NewNotificationService(deviceRepo, programService, pushSender)
	videoService := service.NewVideoService(fileStorage)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, profileService, programService, feedbackService, notificationService, videoService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logrus.WithField("address", cfg.Server.Address).Info("Server starting")

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("ListenAndServe error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}

	logrus.Info("Server exiting.")
}
