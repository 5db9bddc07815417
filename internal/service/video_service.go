package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/Ali3911/Joompa-Gym-App/internal/storage"

	"github.com/google/uuid"
)

// ErrInvalidContentType rejects non-video uploads.
var ErrInvalidContentType = errors.New("content type must be a video format")

// VideoUploadTicket is a presigned PUT URL plus the object key the client
// must reference when attaching the video to a catalog entry.
type VideoUploadTicket struct {
	ObjectKey string `json:"objectKey"`
	UploadURL string `json:"uploadUrl"`
}

// VideoService manages demonstration-video objects in the S3 bucket.
type VideoService interface {
	RequestUpload(ctx context.Context, fileName, contentType string) (*VideoUploadTicket, error)
	Delete(ctx context.Context, objectKey string) error
}

// videoService implements VideoService.
type videoService struct {
	fileStorage storage.FileStorage
}

// NewVideoService creates a new instance of videoService.
func NewVideoService(fileStorage storage.FileStorage) VideoService {
	return &videoService{fileStorage: fileStorage}
}

// RequestUpload issues a presigned PUT URL under a fresh object key. The key
// keeps the original extension so players can sniff the container format.
func (s *videoService) RequestUpload(ctx context.Context, fileName, contentType string) (*VideoUploadTicket, error) {
	if !strings.HasPrefix(contentType, "video/") {
		return nil, ErrInvalidContentType
	}

	objectKey := fmt.Sprintf("videos/%s%s", uuid.New().String(), path.Ext(fileName))
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	return &VideoUploadTicket{
		ObjectKey: objectKey,
		UploadURL: uploadURL,
	}, nil
}

// Delete removes a video object from the bucket.
func (s *videoService) Delete(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return errors.New("object key is required")
	}
	return s.fileStorage.DeleteObject(ctx, objectKey)
}
