// Package color parses CSS color strings as they appear in scene documents.
package color

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned for strings that are not a recognized color.
var ErrInvalidColor = errors.New("invalid color")

// Color is a non-premultiplied sRGB color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

var (
	White = Color{1, 1, 1, 1}
	Black = Color{0, 0, 0, 1}
)

// Parse accepts named colors ("white"), hex ("#fff", "#ffffff"),
// "rgb(r, g, b)" and "rgba(r, g, b, a)". An empty string is an error.
func Parse(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	}
	low := strings.ToLower(s)

	switch {
	case low == "transparent":
		return Color{1, 1, 1, 0}, nil
	case strings.HasPrefix(low, "#"):
		c, err := colorful.Hex(low)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return Color{float32(c.R), float32(c.G), float32(c.B), 1}, nil
	case strings.HasPrefix(low, "rgba(") || strings.HasPrefix(low, "rgb("):
		return parseFunc(s, low)
	}

	nc, ok := colornames.Map[low]
	if !ok {
		return Color{}, fmt.Errorf("%w: unknown name %q", ErrInvalidColor, s)
	}
	return Color{
		R: float32(nc.R) / 255,
		G: float32(nc.G) / 255,
		B: float32(nc.B) / 255,
		A: float32(nc.A) / 255,
	}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Color {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseFunc(orig, low string) (Color, error) {
	open := strings.IndexByte(low, '(')
	if !strings.HasSuffix(low, ")") {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, orig)
	}
	args := strings.Split(low[open+1:len(low)-1], ",")
	alpha := strings.HasPrefix(low, "rgba")
	if (alpha && len(args) != 4) || (!alpha && len(args) != 3) {
		return Color{}, fmt.Errorf("%w: %q: wrong argument count", ErrInvalidColor, orig)
	}

	var ch [4]float32
	ch[3] = 1
	for i, a := range args {
		a = strings.TrimSpace(a)
		if i < 3 {
			v, err := parseChannel(a)
			if err != nil {
				return Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, orig, err)
			}
			ch[i] = v
			continue
		}
		v, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q: alpha: %v", ErrInvalidColor, orig, err)
		}
		ch[3] = clamp01(float32(v))
	}
	return Color{ch[0], ch[1], ch[2], ch[3]}, nil
}

// parseChannel reads "0".."255" or a percentage.
func parseChannel(s string) (float32, error) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return 0, err
		}
		return clamp01(float32(v) / 100), nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return clamp01(float32(v) / 255), nil
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

// Linear converts the RGB channels from sRGB to linear light. Alpha is kept.
func (c Color) Linear() Color {
	r, g, b := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.LinearRgb()
	return Color{float32(r), float32(g), float32(b), c.A}
}

// Scale multiplies RGB by k, typically a light intensity.
func (c Color) Scale(k float32) Color {
	return Color{c.R * k, c.G * k, c.B * k, c.A}
}

// Add sums RGB channels. Alpha is taken from c.
func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B, c.A}
}

// Hex formats the RGB channels as #rrggbb.
func (c Color) Hex() string {
	return colorful.Color{
		R: float64(clamp01(c.R)),
		G: float64(clamp01(c.G)),
		B: float64(clamp01(c.B)),
	}.Hex()
}

// Array returns the color as a 4-element array.
func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// RGB returns the first three channels.
func (c Color) RGB() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}
