package renderer

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Frame is the output of one Render call.
type Frame struct {
	Index   uint64        `json:"index"`
	Time    time.Duration `json:"time"`
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Clear   [4]float32    `json:"clear"`
	Shadows bool          `json:"shadows"`
	Lights  int           `json:"lights"`
	Camera  CameraFrame   `json:"camera"`
	Objects []ObjectFrame `json:"objects"`

	// ShadowMatrices holds one light-space matrix per directional light
	// when shadow mapping is enabled.
	ShadowMatrices []mgl32.Mat4 `json:"shadowMatrices,omitempty"`
}

// CameraFrame is the camera state a frame was rendered with.
type CameraFrame struct {
	Position   mgl32.Vec3 `json:"position"`
	Target     mgl32.Vec3 `json:"target"`
	View       mgl32.Mat4 `json:"view"`
	Projection mgl32.Mat4 `json:"projection"`
}

// ObjectFrame is one drawable in draw order.
type ObjectFrame struct {
	ID        string     `json:"id"`
	MVP       mgl32.Mat4 `json:"mvp"`
	Depth     float32    `json:"depth"`
	InView    bool       `json:"inView"`
	Blended   bool       `json:"blended"`
	ScreenMin [2]float32 `json:"screenMin"`
	ScreenMax [2]float32 `json:"screenMax"`
	Shade     [3]float32 `json:"shade"`
	BoundMin  mgl32.Vec3 `json:"boundMin"`
	BoundMax  mgl32.Vec3 `json:"boundMax"`
}

// Object returns the entry for id.
func (f *Frame) Object(id string) (ObjectFrame, bool) {
	for _, o := range f.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return ObjectFrame{}, false
}
