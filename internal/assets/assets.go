// Package assets hosts organization images on an S3-compatible bucket.
package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Outcome reports what a delete found.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
)

// Folder all uploaded images are stored under.
const DefaultFolder = "organization-logos"

// MaxUploadBytes bounds a single image upload.
const MaxUploadBytes = 5 << 20

var (
	// ErrUnrecognized is returned for URLs that do not belong to the store.
	ErrUnrecognized = errors.New("assets: url not hosted by this store")
	// ErrUnsupportedType is returned for content types outside AllowedContentTypes.
	ErrUnsupportedType = errors.New("assets: only jpg, jpeg, png, gif and webp images are allowed")
	// ErrTooLarge is returned for uploads over MaxUploadBytes.
	ErrTooLarge = errors.New("assets: image exceeds 5MB")
)

// AllowedContentTypes maps accepted image content types to file extensions.
var AllowedContentTypes = map[string]string{
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Uploaded describes a stored image.
type Uploaded struct {
	URL string `json:"url"`
	ID  string `json:"public_id"`
}

// Store is the asset host contract.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType string) (Uploaded, error)
	// Delete accepts either an id or a URL recognised by ExtractID.
	Delete(ctx context.Context, idOrURL string) (Outcome, error)
	// ExtractID returns the id behind a URL hosted by this store.
	ExtractID(rawURL string) (string, bool)
}

// ExtensionFor validates contentType and returns the file extension to store it under.
func ExtensionFor(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := AllowedContentTypes[ct]
	if !ok {
		return "", fmt.Errorf("%w: got %q", ErrUnsupportedType, contentType)
	}
	return ext, nil
}
