package validation

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"github.com/itchan-dev/discussion/shared/domain"
)

// ImageRules is the allow-list and size ceiling applied to a single image attachment.
type ImageRules struct {
	AllowedMimeTypes []string
	MaxBytes         int64
}

// AttachmentError carries a reason suitable for showing to the user.
type AttachmentError struct {
	Reason string
	Err    error
}

func (e *AttachmentError) Error() string { return e.Reason }
func (e *AttachmentError) Unwrap() error { return e.Err }

// ValidateImage checks type and size of a file selected for upload.
func ValidateImage(meta domain.FileCommonMetadata, rules ImageRules) error {
	allowed := BuildAllowedMimeMap(rules.AllowedMimeTypes)
	if !allowed[meta.MimeType] {
		return &AttachmentError{
			Reason: fmt.Sprintf("Unsupported file type. Allowed: %s.", MimeTypeExtensions(rules.AllowedMimeTypes)),
			Err:    fmt.Errorf("%w: %s (file: %s)", ErrInvalidMimeType, meta.MimeType, meta.Filename),
		}
	}
	if rules.MaxBytes > 0 && meta.SizeBytes > rules.MaxBytes {
		return &AttachmentError{
			Reason: fmt.Sprintf("File is too large (max %s).", humanize.IBytes(uint64(rules.MaxBytes))),
			Err:    fmt.Errorf("%w: %d bytes (file: %s)", ErrFileTooLarge, meta.SizeBytes, meta.Filename),
		}
	}
	return nil
}

func BuildAllowedMimeMap(mimes []string) map[string]bool {
	allowedMimes := make(map[string]bool, len(mimes))
	for _, m := range mimes {
		allowedMimes[m] = true
	}
	return allowedMimes
}

// DetectMimeType prefers the declared type, then the extension, then the content itself.
func DetectMimeType(filename, declared string, head []byte) (string, error) {
	mimeType := declared

	// If no Content-Type or it's generic, detect from extension
	if mimeType == "" || mimeType == "application/octet-stream" {
		ext := filepath.Ext(filename)
		if detectedType := mime.TypeByExtension(ext); detectedType != "" {
			mimeType = detectedType
		}
	}

	if (mimeType == "" || mimeType == "application/octet-stream") && len(head) > 0 {
		mimeType = mimetype.Detect(head).String()
	}

	if mimeType == "" {
		return "", fmt.Errorf("could not detect MIME type for file: %s", filename)
	}

	// drop parameters such as "; charset=utf-8"
	if base, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = base
	}
	return mimeType, nil
}

// ExtractImageDimensions decodes only the image header; failures are not fatal.
func ExtractImageDimensions(r io.Reader, mimeType string) (*int, *int) {
	// Only process images
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, nil
	}

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, nil
	}

	width, height := cfg.Width, cfg.Height
	return &width, &height
}

// MimeTypeExtensions renders "image/jpeg, image/png" as "jpeg, png".
func MimeTypeExtensions(mimeTypes []string) string {
	var exts []string
	for _, m := range mimeTypes {
		if _, sub, ok := strings.Cut(m, "/"); ok {
			exts = append(exts, sub)
		}
	}
	return strings.Join(exts, ", ")
}
