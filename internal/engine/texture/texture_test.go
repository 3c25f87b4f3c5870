package texture

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func tgaHeader(imageType, bpp byte, w, h uint16) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12] = byte(w)
	hdr[13] = byte(w >> 8)
	hdr[14] = byte(h)
	hdr[15] = byte(h >> 8)
	hdr[16] = bpp
	return hdr
}

func TestProbePNG(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", 64, 32)

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if info.Format != "png" || info.Width != 64 || info.Height != 32 || info.Path != path {
		t.Errorf("Probe() = %+v", info)
	}
}

func TestProbeTGA(t *testing.T) {
	info, err := ProbeReader(bytes.NewReader(tgaHeader(2, 32, 300, 2)), ".TGA")
	if err != nil {
		t.Fatalf("ProbeReader() error: %v", err)
	}
	if info.Format != "tga" || info.Width != 300 || info.Height != 2 {
		t.Errorf("ProbeReader() = %+v", info)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"paletted", tgaHeader(1, 8, 4, 4)},
		{"16 bit", tgaHeader(2, 16, 4, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProbeReader(bytes.NewReader(tt.data), ".tga")
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("error = %v, want ErrUnsupportedFormat", err)
			}
		})
	}

	if _, err := ProbeReader(bytes.NewReader([]byte{1, 2}), ".tga"); err == nil {
		t.Error("expected error for truncated header")
	}
}

func TestProbeUnknown(t *testing.T) {
	_, err := ProbeReader(bytes.NewReader([]byte("not an image at all")), ".png")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestCubeTexture(t *testing.T) {
	dir := t.TempDir()
	var urls, paths [6]string
	for i, n := range FaceNames {
		urls[i] = "/skybox/" + n + ".png"
		paths[i] = writePNG(t, dir, n+".png", 16, 16)
	}

	cube, err := NewCubeTexture("sky", urls, paths)
	if err != nil {
		t.Fatalf("NewCubeTexture() error: %v", err)
	}
	if cube.Size() != 16 || cube.URLs[FaceNZ] != "/skybox/nz.png" {
		t.Errorf("cube = %+v", cube)
	}

	paths[FacePY] = writePNG(t, dir, "big.png", 32, 32)
	if _, err := NewCubeTexture("sky", urls, paths); !errors.Is(err, ErrCubeFaceMismatch) {
		t.Errorf("error = %v, want ErrCubeFaceMismatch", err)
	}

	paths[FacePY] = writePNG(t, dir, "wide.png", 32, 16)
	if _, err := NewCubeTexture("sky", urls, paths); !errors.Is(err, ErrCubeFaceNotSquare) {
		t.Errorf("error = %v, want ErrCubeFaceNotSquare", err)
	}
}
