package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/service"

	"github.com/gin-gonic/gin"
)

// ProfileHandler holds the profile and notification service dependencies.
type ProfileHandler struct {
	profileService      service.ProfileService
	notificationService service.NotificationService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService, notificationService service.NotificationService) *ProfileHandler {
	return &ProfileHandler{
		profileService:      profileService,
		notificationService: notificationService,
	}
}

// --- Request Structs ---

type ProfileRequest struct {
	FitnessLevel     float64 `json:"fitnessLevel"`
	FitnessLevelID   string  `json:"fitnessLevelId"`
	GymType          string  `json:"gymType"`
	GoalID           string  `json:"goalId"`
	SessionsPerWeek  int     `json:"sessionsPerWeek"`
	MaxSessionLength float64 `json:"maxSessionLength"`
	IsPersonalized   bool    `json:"isPersonalized"`
}

type RegisterDeviceRequest struct {
	Token string `json:"registrationId" binding:"required"`
}

// --- Handler Methods ---

// CreateProfile creates the profile for the authenticated user.
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile := &domain.UserProfile{
		UserID:           userID,
		FitnessLevel:     req.FitnessLevel,
		GymType:          req.GymType,
		SessionsPerWeek:  req.SessionsPerWeek,
		MaxSessionLength: req.MaxSessionLength,
		IsPersonalized:   req.IsPersonalized,
	}
	if err := applyObjectIDs(profile, req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.profileService.Create(c.Request.Context(), profile)
	if err != nil {
		if errors.Is(err, service.ErrProfileExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create profile")
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetProfile returns the authenticated user's profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile replaces the mutable fields of the authenticated user's profile.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile.FitnessLevel = req.FitnessLevel
	profile.GymType = req.GymType
	profile.SessionsPerWeek = req.SessionsPerWeek
	profile.MaxSessionLength = req.MaxSessionLength
	profile.IsPersonalized = req.IsPersonalized
	if err := applyObjectIDs(profile, req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.profileService.Update(c.Request.Context(), profile)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// SetEquipment upserts one equipment holding on the profile.
func (h *ProfileHandler) SetEquipment(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var holding domain.EquipmentHolding
	if err := c.ShouldBindJSON(&holding); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.profileService.SetEquipment(c.Request.Context(), profile.ID, holding); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to save equipment")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetInjury upserts one injury selection on the profile.
func (h *ProfileHandler) SetInjury(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var injury domain.InjurySelection
	if err := c.ShouldBindJSON(&injury); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.profileService.SetInjury(c.Request.Context(), profile.ID, injury); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to save injury")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetVariable upserts one standard variable value on the profile.
func (h *ProfileHandler) SetVariable(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var variable domain.StandardVariableValue
	if err := c.ShouldBindJSON(&variable); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	if variable.Name == "" {
		abortWithError(c, http.StatusBadRequest, "Variable name is required")
		return
	}

	if err := h.profileService.SetVariable(c.Request.Context(), profile.ID, variable); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to save variable")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetBaseline replaces the profile's baseline assessment answers.
func (h *ProfileHandler) SetBaseline(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var answers []domain.AssessmentAnswer
	if err := c.ShouldBindJSON(&answers); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.profileService.SetBaseline(c.Request.Context(), profile.ID, answers); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to save baseline assessment")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteProfile removes the authenticated user's profile.
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	if err := h.profileService.Delete(c.Request.Context(), profile.ID); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete profile")
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterDevice stores a push registration token for the profile.
func (h *ProfileHandler) RegisterDevice(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.notificationService.RegisterDevice(c.Request.Context(), profile.ID, req.Token); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to register device")
		return
	}
	c.Status(http.StatusNoContent)
}

// ownProfile resolves the authenticated user's profile or writes the error
// response and returns false.
func (h *ProfileHandler) ownProfile(c *gin.Context) (*domain.UserProfile, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return nil, false
	}

	profile, err := h.profileService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load profile")
		}
		return nil, false
	}
	return profile, true
}

// applyObjectIDs parses the hex id fields of a ProfileRequest onto the profile.
func applyObjectIDs(profile *domain.UserProfile, req ProfileRequest) error {
	if req.GoalID != "" {
		id, err := parseObjectID(req.GoalID, "goalId")
		if err != nil {
			return err
		}
		profile.GoalID = id
	}
	if req.FitnessLevelID != "" {
		id, err := parseObjectID(req.FitnessLevelID, "fitnessLevelId")
		if err != nil {
			return err
		}
		profile.FitnessLevelID = id
	}
	return nil
}
