package util

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"lumiere/internal/model"
)

type ImageInfo struct {
	Format      string
	ContentType string
	Extension   string
	Width       int
	Height      int
}

var imageFormats = map[string]struct {
	contentType string
	extension   string
}{
	"jpeg": {"image/jpeg", "jpg"},
	"png":  {"image/png", "png"},
	"gif":  {"image/gif", "gif"},
	"webp": {"image/webp", "webp"},
	"bmp":  {"image/bmp", "bmp"},
	"tiff": {"image/tiff", "tiff"},
}

// InspectImage decodes only the image header of content. The returned
// content type and extension come from the decoded format, never from the
// client.
func InspectImage(content []byte) (ImageInfo, error) {
	if len(content) == 0 {
		return ImageInfo{}, model.ErrInvalidImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}

	meta, ok := imageFormats[format]
	if !ok {
		return ImageInfo{}, fmt.Errorf("%w: unsupported format %s", model.ErrInvalidImage, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, fmt.Errorf("%w: empty dimensions", model.ErrInvalidImage)
	}

	return ImageInfo{
		Format:      format,
		ContentType: meta.contentType,
		Extension:   meta.extension,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
