package media

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestInspectThumbnail(t *testing.T) {
	raw := encodeTestImage(t, 20, 10, "png")
	encoded := base64.StdEncoding.EncodeToString(raw)

	for _, in := range []string{encoded, "data:image/png;base64," + encoded} {
		info, err := InspectThumbnail(in)
		if err != nil {
			t.Fatalf("InspectThumbnail: %v", err)
		}
		if info.Format != "png" || info.Width != 20 || info.Height != 10 || info.Bytes != len(raw) {
			t.Errorf("info = %+v", info)
		}
		if info.String() == "" {
			t.Error("empty description")
		}
	}

	if _, err := InspectThumbnail(""); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty: got %v", err)
	}
	if _, err := InspectThumbnail("***"); err == nil {
		t.Error("invalid base64 should fail")
	}
}

func TestThumbnailAsPasted(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(encodeTestImage(t, 40, 30, "jpeg"))
	pasted, err := ThumbnailAsPasted(encoded)
	if err != nil {
		t.Fatalf("ThumbnailAsPasted: %v", err)
	}
	if got := decodedSize(t, pasted); got != (ImageDimensions{40, 30}) {
		t.Errorf("size = %+v", got)
	}
}
