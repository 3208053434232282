package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"media-explorer/internal/history"
	"media-explorer/internal/logging"
	"media-explorer/internal/mediatypes"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height sent to the service.
	// Larger pasted images are downscaled first.
	MaxImageDimension = 1024

	// MaxImagePixels is the maximum total pixels (width * height) sent.
	MaxImagePixels = 1_000_000

	// MaxPastedBytes rejects pasted payloads that are unreasonably large
	// before decoding.
	MaxPastedBytes = 50 << 20

	jpegQuality = 90
)

// ErrEmptyImage is returned when there is nothing to prepare.
var ErrEmptyImage = errors.New("no image data")

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// Constrain returns dimensions that fit within maxDimension on both sides
// and maxPixels in total, preserving the aspect ratio. Dimensions already
// within limits are returned unchanged.
func Constrain(width, height, maxDimension, maxPixels int) ImageDimensions {
	targetWidth, targetHeight := width, height

	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	if pixels := targetWidth * targetHeight; pixels > maxPixels {
		scale := float64(maxPixels) / float64(pixels)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}
	return ImageDimensions{Width: targetWidth, Height: targetHeight}
}

// PreparePasted turns raw image bytes into the base64 JPEG payload used for
// similar-to-pasted searches. Any format with a registered decoder is
// accepted; EXIF orientation is applied and oversized images are downscaled.
func PreparePasted(data []byte) (history.EncodedImage, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if len(data) > MaxPastedBytes {
		return "", fmt.Errorf("pasted image is %d bytes, limit is %d", len(data), MaxPastedBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unrecognized image data: %w", err)
	}
	logging.Debug("Pasted %s image %dx%d (%d bytes)", format, cfg.Width, cfg.Height, len(data))

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode pasted image: %w", err)
	}

	bounds := img.Bounds()
	target := Constrain(bounds.Dx(), bounds.Dy(), MaxImageDimension, MaxImagePixels)
	if target.Width != bounds.Dx() || target.Height != bounds.Dy() {
		logging.Debug("Downscaling pasted image from %dx%d to %dx%d", bounds.Dx(), bounds.Dy(), target.Width, target.Height)
		img = imaging.Resize(img, target.Width, target.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode pasted image: %w", err)
	}
	return history.EncodedImage(base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// PreparePastedFile reads an image file and prepares it like PreparePasted.
// Files whose extension is not a known image type are rejected unread.
func PreparePastedFile(path string) (history.EncodedImage, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if mediatypes.GetFileType(ext) != mediatypes.FileTypeImage {
		return "", fmt.Errorf("%s is not an image file", filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxPastedBytes {
		return "", fmt.Errorf("%s is %d bytes, limit is %d", filepath.Base(path), info.Size(), MaxPastedBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return PreparePasted(data)
}
