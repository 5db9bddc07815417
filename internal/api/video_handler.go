package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Ali3911/Joompa-Gym-App/internal/service"

	"github.com/gin-gonic/gin"
)

// VideoHandler holds the video service dependency.
type VideoHandler struct {
	videoService service.VideoService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videoService service.VideoService) *VideoHandler {
	return &VideoHandler{videoService: videoService}
}

type VideoUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// RequestUpload issues a presigned PUT URL for a new demonstration video.
func (h *VideoHandler) RequestUpload(c *gin.Context) {
	var req VideoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ticket, err := h.videoService.RequestUpload(c.Request.Context(), req.FileName, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidContentType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		}
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// DeleteVideo removes a demonstration video object.
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	objectKey := c.Query("objectKey")
	if objectKey == "" {
		abortWithError(c, http.StatusBadRequest, "objectKey query parameter is required")
		return
	}

	if err := h.videoService.Delete(c.Request.Context(), objectKey); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete video")
		return
	}
	c.Status(http.StatusNoContent)
}
