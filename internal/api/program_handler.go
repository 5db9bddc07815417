package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Query dates use plain calendar days.
const queryDateLayout = "2006-01-02"

// ProgramHandler holds the program and feedback service dependencies.
type ProgramHandler struct {
	programService  service.ProgramService
	profileService  service.ProfileService
	feedbackService service.FeedbackService
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService service.ProgramService, profileService service.ProfileService, feedbackService service.FeedbackService) *ProgramHandler {
	return &ProgramHandler{
		programService:  programService,
		profileService:  profileService,
		feedbackService: feedbackService,
	}
}

// --- Request Structs ---

type GenerateProgramRequest struct {
	Personalized       bool     `json:"personalized"`
	GoalID             string   `json:"goalId"`
	SessionsPerWeek    *int     `json:"sessionsPerWeek"`
	TotalSessionLength *float64 `json:"totalSessionLength"`
}

type RIRRequest struct {
	ProgramDesignID string  `json:"userProgramDesignId" binding:"required"`
	ExercisePos     int     `json:"exerciseId" binding:"required"`
	UserRIR         int     `json:"userRir"`
	SystemRIR       int     `json:"systemRir"`
	SystemReps      int     `json:"systemCalculatedReps"`
	SystemWeight    float64 `json:"systemCalculatedWeight"`
}

type CompleteRequest struct {
	ProgramDesignID string `json:"userProgramDesignId" binding:"required"`
}

// EditProgramRequest is a dispatch envelope: exactly one of the fields
// selects the maintenance operation to run.
type EditProgramRequest struct {
	Session  string           `json:"session"`
	UserRIR  *RIRRequest      `json:"userRir"`
	Complete *CompleteRequest `json:"complete"`
}

type FeedbackAnswerRequest struct {
	FeedbackID      string `json:"feedbackId" binding:"required"`
	ProgramDesignID string `json:"programDesignId" binding:"required"`
	Value           int    `json:"value"`
}

// --- Handler Methods ---

// GenerateProgram builds and commits a fresh program for the caller's profile.
func (h *ProgramHandler) GenerateProgram(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var req GenerateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	opts := service.GenerationOptions{
		Personalized:       req.Personalized,
		SessionsPerWeek:    req.SessionsPerWeek,
		TotalSessionLength: req.TotalSessionLength,
	}
	if req.GoalID != "" {
		goalID, err := parseObjectID(req.GoalID, "goalId")
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		opts.GoalID = &goalID
	}

	result, err := h.programService.Generate(c.Request.Context(), profile.ID, opts)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFrequency),
			errors.Is(err, service.ErrEquipmentOptionMissing):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRepsRangeMissing),
			errors.Is(err, service.ErrRIRNotConfigured):
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate program")
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListPrograms returns the caller's program rows, optionally filtered by
// week, date window, goal name or session length, plus the missed-session
// banner fields.
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var filter service.ListFilter
	if raw := c.Query("week"); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid week parameter")
			return
		}
		filter.Week = &week
	}
	if raw := c.Query("startdate"); raw != "" {
		start, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid startdate parameter, expected YYYY-MM-DD")
			return
		}
		filter.StartDate = &start
	}
	if raw := c.Query("endate"); raw != "" {
		end, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid endate parameter, expected YYYY-MM-DD")
			return
		}
		filter.EndDate = &end
	}
	if raw := c.Query("goal"); raw != "" {
		filter.Goal = &raw
	}
	if raw := c.Query("total_session_length"); raw != "" {
		length, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid total_session_length parameter")
			return
		}
		filter.TotalSessionLength = &length
	}

	list, err := h.programService.List(c.Request.Context(), profile.ID, filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list programs")
		return
	}
	c.JSON(http.StatusOK, list)
}

// EditProgram dispatches one maintenance operation: a calendar reschedule, an
// RIR report or a workout completion.
func (h *ProgramHandler) EditProgram(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var req EditProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	switch {
	case req.Session != "":
		h.reschedule(c, profile, service.RescheduleOp(req.Session))
	case req.UserRIR != nil:
		h.recordRIR(c, profile, *req.UserRIR)
	case req.Complete != nil:
		h.complete(c, profile, *req.Complete)
	default:
		abortWithError(c, http.StatusBadRequest, "One of session, userRir or complete is required")
	}
}

func (h *ProgramHandler) reschedule(c *gin.Context, profile *domain.UserProfile, op service.RescheduleOp) {
	if err := h.programService.Reschedule(c.Request.Context(), profile.ID, op); err != nil {
		if errors.Is(err, service.ErrInvalidRescheduleOp) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to reschedule program")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Program rescheduled"})
}

func (h *ProgramHandler) recordRIR(c *gin.Context, profile *domain.UserProfile, req RIRRequest) {
	designID, err := parseObjectID(req.ProgramDesignID, "userProgramDesignId")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	feedback := service.RIRFeedback{
		ProgramDesignID: designID,
		ExercisePos:     req.ExercisePos,
		UserRIR:         req.UserRIR,
		SystemRIR:       req.SystemRIR,
		SystemReps:      req.SystemReps,
		SystemWeight:    req.SystemWeight,
	}
	if err := h.programService.RecordRIR(c.Request.Context(), profile.ID, feedback); err != nil {
		switch {
		case errors.Is(err, service.ErrProgramNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrExercisePosition):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRatingNotConfigured):
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to record feedback")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback recorded"})
}

func (h *ProgramHandler) complete(c *gin.Context, profile *domain.UserProfile, req CompleteRequest) {
	designID, err := parseObjectID(req.ProgramDesignID, "userProgramDesignId")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.programService.Complete(c.Request.Context(), profile.ID, designID); err != nil {
		if errors.Is(err, service.ErrProgramNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to complete workout")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workout completed"})
}

// SaveFeedback stores questionnaire answers tied to program rows.
func (h *ProgramHandler) SaveFeedback(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	var reqs []FeedbackAnswerRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	answers := make([]domain.UserFeedback, 0, len(reqs))
	for _, req := range reqs {
		feedbackID, err := parseObjectID(req.FeedbackID, "feedbackId")
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		designID, err := parseObjectID(req.ProgramDesignID, "programDesignId")
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		answers = append(answers, domain.UserFeedback{
			FeedbackID:      feedbackID,
			ProgramDesignID: designID,
			Value:           req.Value,
		})
	}

	if err := h.feedbackService.Save(c.Request.Context(), profile.ID, answers); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFeedback returns the caller's questionnaire answers.
func (h *ProgramHandler) ListFeedback(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	answers, err := h.feedbackService.ListByProfile(c.Request.Context(), profile.ID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list feedback")
		return
	}
	c.JSON(http.StatusOK, answers)
}

// ownProfile resolves the authenticated user's profile or writes the error
// response and returns false.
func (h *ProgramHandler) ownProfile(c *gin.Context) (*domain.UserProfile, bool) {
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

// parseObjectID converts a hex string into an ObjectID with a field-specific
// error message.
func parseObjectID(hex, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s: %s", field, hex)
	}
	return id, nil
}
