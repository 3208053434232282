package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"media-explorer/internal/history"
)

// encodeTestImage creates a gradient image and encodes it in format
func encodeTestImage(t *testing.T, width, height int, format string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, img)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}
	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// decodedSize decodes a prepared payload and returns its JPEG dimensions
func decodedSize(t *testing.T, encoded history.EncodedImage) ImageDimensions {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("payload is not an image: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("payload format = %s, want jpeg", format)
	}
	return ImageDimensions{Width: cfg.Width, Height: cfg.Height}
}

func TestConstrain(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          ImageDimensions
	}{
		{"within limits", 800, 600, ImageDimensions{800, 600}},
		{"wide", 3000, 1500, ImageDimensions{1024, 512}},
		{"tall", 1500, 3000, ImageDimensions{512, 1024}},
		{"too many pixels", 1024, 1024, ImageDimensions{976, 976}},
		{"degenerate", 10000, 5, ImageDimensions{1024, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Constrain(tt.width, tt.height, MaxImageDimension, MaxImagePixels)
			if got != tt.want {
				t.Errorf("Constrain(%d, %d) = %+v, want %+v", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestPreparePasted(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		format        string
		want          ImageDimensions
	}{
		{"small png kept", 64, 48, "png", ImageDimensions{64, 48}},
		{"jpeg kept", 200, 100, "jpeg", ImageDimensions{200, 100}},
		{"large png downscaled", 2048, 1024, "png", ImageDimensions{1024, 512}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := PreparePasted(encodeTestImage(t, tt.width, tt.height, tt.format))
			if err != nil {
				t.Fatalf("PreparePasted: %v", err)
			}
			if got := decodedSize(t, encoded); got != tt.want {
				t.Errorf("size = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPreparePastedErrors(t *testing.T) {
	if _, err := PreparePasted(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("nil data: got %v", err)
	}
	if _, err := PreparePasted([]byte("definitely not an image")); err == nil {
		t.Error("garbage data should fail")
	}
}

func TestPreparePastedFile(t *testing.T) {
	dir := t.TempDir()

	imgPath := filepath.Join(dir, "Shot.PNG")
	if err := os.WriteFile(imgPath, encodeTestImage(t, 32, 32, "png"), 0o600); err != nil {
		t.Fatal(err)
	}
	encoded, err := PreparePastedFile(imgPath)
	if err != nil {
		t.Fatalf("PreparePastedFile: %v", err)
	}
	if got := decodedSize(t, encoded); got != (ImageDimensions{32, 32}) {
		t.Errorf("size = %+v", got)
	}

	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txtPath, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := PreparePastedFile(txtPath); err == nil {
		t.Error("non-image extension should be rejected")
	}

	if _, err := PreparePastedFile(filepath.Join(dir, "missing.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}
