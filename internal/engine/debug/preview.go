package debug

import (
	"image"
	stdcolor "image/color"
	"image/draw"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/anchorview/internal/engine/renderer"
)

// Preview draws the bounding box of every object in f as a wireframe over
// the frame's clear color. Lines use the object's shade, or white for
// unlit objects.
func Preview(f renderer.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(f.Width, 1), max(f.Height, 1)))
	bg := linearToRGBA(f.Clear[0], f.Clear[1], f.Clear[2])
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	for _, obj := range f.Objects {
		line := stdcolor.RGBA{R: 255, G: 255, B: 255, A: 255}
		if obj.Shade != [3]float32{} {
			line = linearToRGBA(obj.Shade[0], obj.Shade[1], obj.Shade[2])
		}

		edges := BBoxEdges(obj.BoundMin, obj.BoundMax)
		for i := 0; i < len(edges); i += 2 {
			x0, y0, ok0 := toScreen(obj, edges[i], f.Width, f.Height)
			x1, y1, ok1 := toScreen(obj, edges[i+1], f.Width, f.Height)
			if ok0 && ok1 {
				drawLine(img, x0, y0, x1, y1, line)
			}
		}
	}
	return img
}

func toScreen(obj renderer.ObjectFrame, p mgl32.Vec3, w, h int) (int, int, bool) {
	clip := obj.MVP.Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	x := (clip[0]/clip[3] + 1) / 2 * float32(w)
	y := (1 - clip[1]/clip[3]) / 2 * float32(h)
	return int(x), int(y), true
}

// drawLine rasterizes with Bresenham, clipping per pixel.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c stdcolor.RGBA) {
	// Keep runaway endpoints from near-plane projections bounded.
	const limit = 1 << 15
	if abs(x0) > limit || abs(y0) > limit || abs(x1) > limit || abs(y1) > limit {
		return
	}

	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	b := img.Bounds()
	e := dx + dy
	for {
		if image.Pt(x0, y0).In(b) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func linearToRGBA(r, g, b float32) stdcolor.RGBA {
	c := colorful.LinearRgb(float64(r), float64(g), float64(b)).Clamped()
	r8, g8, b8 := c.RGB255()
	return stdcolor.RGBA{R: r8, G: g8, B: b8, A: 255}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
