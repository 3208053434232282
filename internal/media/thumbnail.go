package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"media-explorer/internal/history"
)

// ThumbnailInfo describes a thumbnail embedded in a file listing.
type ThumbnailInfo struct {
	Format string
	ImageDimensions
	Bytes int
}

func (t ThumbnailInfo) String() string {
	return fmt.Sprintf("%s %dx%d, %d bytes", t.Format, t.Width, t.Height, t.Bytes)
}

// decodeThumbnailData strips an optional data URL prefix and decodes the
// base64 payload.
func decodeThumbnailData(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid thumbnail encoding: %w", err)
	}
	return data, nil
}

// InspectThumbnail reports the format and size of a base64 thumbnail
// without fully decoding it.
func InspectThumbnail(encoded string) (ThumbnailInfo, error) {
	if encoded == "" {
		return ThumbnailInfo{}, ErrEmptyImage
	}
	data, err := decodeThumbnailData(encoded)
	if err != nil {
		return ThumbnailInfo{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ThumbnailInfo{}, fmt.Errorf("unrecognized thumbnail: %w", err)
	}
	return ThumbnailInfo{
		Format:          format,
		ImageDimensions: ImageDimensions{Width: cfg.Width, Height: cfg.Height},
		Bytes:           len(data),
	}, nil
}

// ThumbnailAsPasted re-encodes a listing thumbnail as a similarity payload,
// so a result can be used as a pasted image.
func ThumbnailAsPasted(encoded string) (history.EncodedImage, error) {
	data, err := decodeThumbnailData(encoded)
	if err != nil {
		return "", err
	}
	return PreparePasted(data)
}
