package util

import (
	"mime"
	"path/filepath"
	"strings"
)

// IsImageMIME reports whether a declared media type is image/*. Parameters
// such as charset are ignored.
func IsImageMIME(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(mimeType))
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

// IsImageExtension accepts the extension with or without its leading dot.
func IsImageExtension(extension string) bool {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(extension)), ".") {
	case "png", "jpg", "jpeg", "jpe", "jfif", "gif", "webp", "bmp", "dib", "tiff", "tif":
		return true
	default:
		return false
	}
}

// FileExtension returns the lowercased extension of name without the dot.
func FileExtension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(name))), ".")
}
