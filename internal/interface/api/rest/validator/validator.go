package validator

import (
	"errors"
	"mime/multipart"
	"strings"
)

var (
	ErrFileRequired = errors.New("file is required")
	ErrFileEmpty    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file too large")
)

// ValidateUploadHeader checks what the multipart header already tells about
// the upload. The body is still bounded while reading.
func ValidateUploadHeader(fh *multipart.FileHeader, maxBytes int64) error {
	if fh == nil {
		return ErrFileRequired
	}
	if fh.Size == 0 {
		return ErrFileEmpty
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return ErrFileTooLarge
	}
	return nil
}

// IsIdentifier reports whether s can name a stored file.
func IsIdentifier(s string) bool {
	return s != "" && len(s) <= 255 && !strings.HasPrefix(s, ".") && !strings.ContainsAny(s, "/\\\x00")
}
