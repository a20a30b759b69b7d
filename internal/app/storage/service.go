/*
Package storage gives hosts access to the cloud recordings of their sessions
kept in S3-compatible object storage.

Recordings are stored under "<session name>/<file name>", so a host token's
tpc claim decides which objects it may reach.
*/
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

// PresignedURLDuration is how long a download link stays valid.
const PresignedURLDuration = 5 * time.Minute

// ErrNotFound means the requested recording does not exist.
var ErrNotFound = errors.New("recording not found")

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ObjectMetadata describes one stored recording.
type ObjectMetadata struct {
	Key          string    `json:"key"`
	ContentType  string    `json:"contentType,omitempty"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"lastModified,omitempty"`
}

// RecordingArchive is the recording store used by the HTTP layer.
type RecordingArchive interface {
	// PresignDownload generates a pre-signed URL for downloading a recording.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// GetObjectMetadata returns the metadata of a recording or ErrNotFound.
	GetObjectMetadata(ctx context.Context, key string) (ObjectMetadata, error)

	// Delete removes a recording.
	Delete(ctx context.Context, key string) error
}

// NewRecordingArchive returns the S3-backed archive for cfg.
func NewRecordingArchive(ctx context.Context, cfg ServiceConfig) (RecordingArchive, error) {
	return newS3Client(ctx, cfg)
}

// RecordingKey builds the object key of file inside session.
func RecordingKey(session, file string) string {
	return session + "/" + file
}

// KeyInSession reports whether key names an object directly usable by a host
// of session: it must sit under "<session>/" and must not escape it.
func KeyInSession(session, key string) bool {
	if session == "" || !strings.HasPrefix(key, session+"/") {
		return false
	}

	file := strings.TrimPrefix(key, session+"/")
	if file == "" || strings.HasSuffix(file, "/") {
		return false
	}

	for _, segment := range strings.Split(file, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return false
		}
	}

	return path.Clean(key) == key
}
