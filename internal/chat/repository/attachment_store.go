package repository

import (
	"context"
	"time"

	"portal_chat_service/pkg/database"
)

// AttachmentStore definition attachment object storage
type AttachmentStore interface {
	UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) error
	PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	RemoveObject(ctx context.Context, objectName string) error
}

var _ AttachmentStore = (*database.MinIOClient)(nil)
