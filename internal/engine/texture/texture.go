// Package texture describes image and cube textures and probes their
// source files.
package texture

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrCubeFaceMismatch  = errors.New("cube faces differ in size")
	ErrCubeFaceNotSquare = errors.New("cube face is not square")
)

// Info is the header information of an image file.
type Info struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Probe reads just enough of the file at path to report its format and
// dimensions. png, jpeg, gif, bmp, tiff, webp and tga are supported.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	info, err := ProbeReader(f, filepath.Ext(path))
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", path, err)
	}
	info.Path = path
	return info, nil
}

// ProbeReader is Probe for an open stream. ext selects the TGA reader,
// which has no magic number; other formats are sniffed.
func ProbeReader(r io.Reader, ext string) (Info, error) {
	if strings.EqualFold(ext, ".tga") {
		w, h, err := decodeTGAHeader(r)
		if err != nil {
			return Info{}, err
		}
		return Info{Format: "tga", Width: w, Height: h}, nil
	}

	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Info{}, ErrUnsupportedFormat
		}
		return Info{}, err
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// ImageTexture is a 2D texture backed by one image.
type ImageTexture struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Info Info   `json:"info"`
}

// NewImageTexture probes path and returns the texture.
func NewImageTexture(id, url, path string) (*ImageTexture, error) {
	info, err := Probe(path)
	if err != nil {
		return nil, err
	}
	return &ImageTexture{ID: id, URL: url, Info: info}, nil
}

// Cube face order.
const (
	FacePX = iota
	FaceNX
	FacePY
	FaceNY
	FacePZ
	FaceNZ
	faceCount
)

// FaceNames are the conventional names of the six cube faces.
var FaceNames = [faceCount]string{"px", "nx", "py", "ny", "pz", "nz"}

// CubeTexture is an environment map made of six square faces of equal size.
type CubeTexture struct {
	ID    string            `json:"id"`
	URLs  [faceCount]string `json:"urls"`
	Faces [faceCount]Info   `json:"faces"`
}

// Size returns the edge length of a face.
func (c *CubeTexture) Size() int {
	return c.Faces[FacePX].Width
}

// NewCubeTexture probes the six face files, given in FaceNames order.
func NewCubeTexture(id string, urls, paths [faceCount]string) (*CubeTexture, error) {
	c := &CubeTexture{ID: id, URLs: urls}
	for i, p := range paths {
		info, err := Probe(p)
		if err != nil {
			return nil, fmt.Errorf("cube %s face %s: %w", id, FaceNames[i], err)
		}
		if info.Width != info.Height {
			return nil, fmt.Errorf("cube %s face %s (%dx%d): %w",
				id, FaceNames[i], info.Width, info.Height, ErrCubeFaceNotSquare)
		}
		if i > 0 && info.Width != c.Faces[0].Width {
			return nil, fmt.Errorf("cube %s face %s is %d, px is %d: %w",
				id, FaceNames[i], info.Width, c.Faces[0].Width, ErrCubeFaceMismatch)
		}
		c.Faces[i] = info
	}
	return c, nil
}
