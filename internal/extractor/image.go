package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

const (
	// MaxImageSize caps uploads before any decoding happens.
	MaxImageSize = 5 * 1024 * 1024 // 5MB

	// maxSide is the longest edge sent to the model. Receipts stay
	// legible at this size and the upload shrinks considerably.
	maxSide = 600

	jpegQuality = 85
)

var (
	ErrImageTooLarge     = errors.New("image too large, maximum size is 5MB")
	ErrUnsupportedFormat = errors.New("unsupported image format, use JPEG or PNG")
	ErrInvalidImageData  = errors.New("invalid image data")
)

// allowedMIMEs are the upload formats the scan form accepts. An empty
// type is allowed through; decoding is the authoritative check anyway.
var allowedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// prepareImage decodes the upload, downscales it so the longest side is
// at most maxSide, and re-encodes as JPEG. All inputs leave as
// image/jpeg regardless of the uploaded format.
func prepareImage(data []byte, mimeType string) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", ErrInvalidImageData
	}
	if len(data) > MaxImageSize {
		return nil, "", ErrImageTooLarge
	}
	if mimeType != "" && !allowedMIMEs[mimeType] {
		return nil, "", fmt.Errorf("%w: got %s", ErrUnsupportedFormat, mimeType)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidImageData, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	switch {
	case width >= height && width > maxSide:
		img = imaging.Resize(img, maxSide, 0, imaging.Lanczos)
	case height > width && height > maxSide:
		img = imaging.Resize(img, 0, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}

	return buf.Bytes(), "image/jpeg", nil
}
