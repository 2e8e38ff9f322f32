package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"milk2meat/internal/slug"
	"path"
	"strings"
)

// ErrStorageDisabled is returned by NullStorage for every operation that needs a backend.
var ErrStorageDisabled = errors.New("file storage is not configured")

// FileStorage stores note attachments. Keys are relative to the configured location.
type FileStorage interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// PresignedURL returns a short-lived URL granting read access to key.
	PresignedURL(ctx context.Context, key string) (string, error)
}

const maxUploadNameLength = 40

// NoteUploadPath builds the object key of an attachment:
// notes/{ownerId}/{noteId}/{slugified name}{extension}
func NoteUploadPath(ownerId uint, noteId, filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	extension := path.Ext(filename)

	name := slug.Slugify(strings.TrimSuffix(filename, extension))
	if len(name) > maxUploadNameLength {
		name = name[:maxUploadNameLength]
	}

	return fmt.Sprintf("notes/%d/%s/%s%s", ownerId, noteId, name, extension)
}

// UserCanAccessFile reports whether key lies under the notes prefix of userId.
func UserCanAccessFile(key string, userId uint) bool {
	if userId == 0 {
		return false
	}

	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0] != "notes" {
		return false
	}

	return parts[1] == fmt.Sprint(userId)
}

// NullStorage is used when no object storage is configured.
type NullStorage struct{}

var _ FileStorage = &NullStorage{}

func (n *NullStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return ErrStorageDisabled
}

// Delete succeeds so deleting a note never depends on storage being configured.
func (n *NullStorage) Delete(ctx context.Context, key string) error {
	return nil
}

func (n *NullStorage) PresignedURL(ctx context.Context, key string) (string, error) {
	return "", ErrStorageDisabled
}
