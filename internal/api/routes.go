package api

import (
	"net/http"

	"github.com/Ali3911/Joompa-Gym-App/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	profileService service.ProfileService,
	programService service.ProgramService,
	feedbackService service.FeedbackService,
	notificationService service.NotificationService,
	videoService service.VideoService,
) {

	authHandler := NewAuthHandler(authService)
	profileHandler := NewProfileHandler(profileService, notificationService)
	programHandler := NewProgramHandler(programService, profileService, feedbackService)
	videoHandler := NewVideoHandler(videoService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex()})
		})

		// --- Profile Routes ---
		profileGroup := protected.Group("/profile")
		{
			profileGroup.POST("", profileHandler.CreateProfile)
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PUT("", profileHandler.UpdateProfile)
			profileGroup.DELETE("", profileHandler.DeleteProfile)
			profileGroup.PUT("/equipment", profileHandler.SetEquipment)
			profileGroup.PUT("/injuries", profileHandler.SetInjury)
			profileGroup.PUT("/variables", profileHandler.SetVariable)
			profileGroup.PUT("/baseline", profileHandler.SetBaseline)
			profileGroup.POST("/devices", profileHandler.RegisterDevice)
		}

		// --- Program Routes ---
		programGroup := protected.Group("/programs")
		{
			programGroup.POST("", programHandler.GenerateProgram)
			programGroup.GET("", programHandler.ListPrograms)
			// One endpoint dispatches reschedule, RIR feedback and
			// completion, matching the mobile client's single edit call.
			programGroup.PATCH("", programHandler.EditProgram)
		}

		// --- Questionnaire Feedback Routes ---
		feedbackGroup := protected.Group("/feedback")
		{
			feedbackGroup.POST("", programHandler.SaveFeedback)
			feedbackGroup.GET("", programHandler.ListFeedback)
		}

		// --- Demonstration Video Routes ---
		videoGroup := protected.Group("/videos")
		{
			videoGroup.POST("/upload-url", videoHandler.RequestUpload)
			videoGroup.DELETE("", videoHandler.DeleteVideo)
		}
	}
}
