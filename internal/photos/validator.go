package photos

import (
	"fmt"
	"mime"
	"strings"

	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

// MaxPhotoBytes is the upload size ceiling applied before any network call.
const MaxPhotoBytes = 5 * 1024 * 1024

var allowedPhotoMimeTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// FileMeta describes a candidate upload. Validation reads metadata only; it
// never opens the file contents.
type FileMeta struct {
	FileName  string
	MimeType  string
	SizeBytes int64
}

// ValidateFile checks the mime type against the allow-list, then the size
// ceiling. First failure wins. A nil return means the file may be uploaded.
func ValidateFile(meta FileMeta) error {
	mimeType := strings.TrimSpace(meta.MimeType)
	if mimeType != "" {
		parsed, _, err := mime.ParseMediaType(mimeType)
		if err == nil {
			mimeType = parsed
		}
	}
	if !isAllowedPhotoMime(mimeType) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Only JPEG, PNG, and WebP images are allowed")
	}
	if meta.SizeBytes > MaxPhotoBytes {
		return pkgerrors.New(pkgerrors.CodeValidation, "Image must be less than 5MB")
	}
	return nil
}

func isAllowedPhotoMime(mimeType string) bool {
	for _, candidate := range allowedPhotoMimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

// MimeTypeForExtension maps a stored file extension back to a mime type for
// re-uploads and sweeps. Unknown extensions default to JPEG.
func MimeTypeForExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "image/jpeg"
	}
}

// ExtensionForMimeType returns the canonical storage extension for an
// allow-listed mime type.
func ExtensionForMimeType(mimeType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	default:
		return "", fmt.Errorf("no storage extension for mime type %q", mimeType)
	}
}
