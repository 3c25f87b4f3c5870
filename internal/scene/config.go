// Package scene builds and runs a 3D scene from a document of typed
// configuration records.
package scene

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/anchorview/internal/engine/animation"
	"github.com/Faultbox/anchorview/pkg/geometry"
	"github.com/Faultbox/anchorview/pkg/math"
)

var (
	ErrUnknownKind   = errors.New("unknown config kind")
	ErrUnresolvedRef = errors.New("unresolved reference")
	ErrDuplicateID   = errors.New("duplicate config id")
	ErrMissingID     = errors.New("config has no id")
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is one typed configuration record.
type Config interface {
	Kind() Kind
	ID() string
	meta() *Meta
}

// Meta is embedded in every record.
type Meta struct {
	Type Kind   `yaml:"type" json:"type"`
	VID  string `yaml:"vid" json:"vid"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

func (m *Meta) ID() string  { return m.VID }
func (m *Meta) meta() *Meta { return m }

// Vector3 is a fully specified vector.
type Vector3 struct {
	X float32 `yaml:"x" json:"x"`
	Y float32 `yaml:"y" json:"y"`
	Z float32 `yaml:"z" json:"z"`
}

func (v Vector3) vec() mgl32.Vec3 { return mgl32.Vec3{v.X, v.Y, v.Z} }

func vector3(v mgl32.Vec3) Vector3 { return Vector3{v[0], v[1], v[2]} }

// OptVector3 is a vector whose components may be omitted.
type OptVector3 struct {
	X *float32 `yaml:"x,omitempty" json:"x,omitempty"`
	Y *float32 `yaml:"y,omitempty" json:"y,omitempty"`
	Z *float32 `yaml:"z,omitempty" json:"z,omitempty"`
}

// Resolve fills omitted components with def.
func (v *OptVector3) Resolve(def float32) mgl32.Vec3 {
	out := mgl32.Vec3{def, def, def}
	if v == nil {
		return out
	}
	for i, p := range []*float32{v.X, v.Y, v.Z} {
		if p != nil {
			out[i] = *p
		}
	}
	return out
}

func optVector3(v mgl32.Vec3) *OptVector3 {
	x, y, z := v[0], v[1], v[2]
	return &OptVector3{X: &x, Y: &y, Z: &z}
}

// SceneConfig is the root container. Background and Environment name a
// texture id or a color string.
type SceneConfig struct {
	Meta        `yaml:",inline"`
	Background  string `yaml:"background,omitempty" json:"background,omitempty"`
	Environment string `yaml:"environment,omitempty" json:"environment,omitempty"`
}

func (*SceneConfig) Kind() Kind { return KindScene }

// PerspectiveCameraConfig configures a camera. Zero fov/near/far take the
// defaults 45, 0.1 and 2000.
type PerspectiveCameraConfig struct {
	Meta     `yaml:",inline"`
	FOV      float32  `yaml:"fov,omitempty" json:"fov,omitempty"`
	Near     float32  `yaml:"near,omitempty" json:"near,omitempty"`
	Far      float32  `yaml:"far,omitempty" json:"far,omitempty"`
	Position Vector3  `yaml:"position" json:"position"`
	Up       *Vector3 `yaml:"up,omitempty" json:"up,omitempty"`
	LookAt   *Vector3 `yaml:"lookAt,omitempty" json:"lookAt,omitempty"`
}

func (*PerspectiveCameraConfig) Kind() Kind { return KindPerspectiveCamera }

// RendererConfig holds renderer settings. ToneMapping accepts a name or
// the numeric constant.
type RendererConfig struct {
	Meta                    `yaml:",inline"`
	ClearColor              string  `yaml:"clearColor,omitempty" json:"clearColor,omitempty"`
	PhysicallyCorrectLights bool    `yaml:"physicallyCorrectLights,omitempty" json:"physicallyCorrectLights,omitempty"`
	ToneMapping             string  `yaml:"toneMapping,omitempty" json:"toneMapping,omitempty"`
	ToneMappingExposure     float32 `yaml:"toneMappingExposure,omitempty" json:"toneMappingExposure,omitempty"`
	ShadowMap               bool    `yaml:"shadowMap,omitempty" json:"shadowMap,omitempty"`
}

func (*RendererConfig) Kind() Kind { return KindWebGLRenderer }

// OrbitControlsConfig configures orbit controls on the active camera.
type OrbitControlsConfig struct {
	Meta            `yaml:",inline"`
	AutoRotate      bool     `yaml:"autoRotate,omitempty" json:"autoRotate,omitempty"`
	AutoRotateSpeed *float32 `yaml:"autoRotateSpeed,omitempty" json:"autoRotateSpeed,omitempty"`
	EnableDamping   bool     `yaml:"enableDamping,omitempty" json:"enableDamping,omitempty"`
	DampingFactor   *float32 `yaml:"dampingFactor,omitempty" json:"dampingFactor,omitempty"`
	MinDistance     *float32 `yaml:"minDistance,omitempty" json:"minDistance,omitempty"`
	MaxDistance     *float32 `yaml:"maxDistance,omitempty" json:"maxDistance,omitempty"`
	EnablePan       *bool    `yaml:"enablePan,omitempty" json:"enablePan,omitempty"`
	Target          *Vector3 `yaml:"target,omitempty" json:"target,omitempty"`
}

func (*OrbitControlsConfig) Kind() Kind { return KindOrbitControls }

// AmbientLightConfig configures an ambient light. Color defaults to white
// and intensity to 1.
type AmbientLightConfig struct {
	Meta      `yaml:",inline"`
	Color     string   `yaml:"color,omitempty" json:"color,omitempty"`
	Intensity *float32 `yaml:"intensity,omitempty" json:"intensity,omitempty"`
}

func (*AmbientLightConfig) Kind() Kind { return KindAmbientLight }

// DirectionalLightConfig configures a directional light aimed at Target
// (the origin when omitted).
type DirectionalLightConfig struct {
	Meta      `yaml:",inline"`
	Color     string   `yaml:"color,omitempty" json:"color,omitempty"`
	Intensity *float32 `yaml:"intensity,omitempty" json:"intensity,omitempty"`
	Position  Vector3  `yaml:"position" json:"position"`
	Target    *Vector3 `yaml:"target,omitempty" json:"target,omitempty"`
}

func (*DirectionalLightConfig) Kind() Kind { return KindDirectionalLight }

// ImageTextureConfig names an image file.
type ImageTextureConfig struct {
	Meta `yaml:",inline"`
	URL  string `yaml:"url" json:"url"`
}

func (*ImageTextureConfig) Kind() Kind { return KindImageTexture }

// CubeFaces names the six images of a cube texture.
type CubeFaces struct {
	PX string `yaml:"px" json:"px"`
	NX string `yaml:"nx" json:"nx"`
	PY string `yaml:"py" json:"py"`
	NY string `yaml:"ny" json:"ny"`
	PZ string `yaml:"pz" json:"pz"`
	NZ string `yaml:"nz" json:"nz"`
}

func (c CubeFaces) array() [6]string {
	return [6]string{c.PX, c.NX, c.PY, c.NY, c.PZ, c.NZ}
}

// CubeTextureConfig names the faces of an environment map.
type CubeTextureConfig struct {
	Meta `yaml:",inline"`
	Cube CubeFaces `yaml:"cube" json:"cube"`
}

func (*CubeTextureConfig) Kind() Kind { return KindCubeTexture }

// LoadGeometryConfig loads one part of a mesh file and anchors it.
// Omitted rotation and position components are 0, omitted scale
// components are 1.
type LoadGeometryConfig struct {
	Meta     `yaml:",inline"`
	URL      string      `yaml:"url" json:"url"`
	Part     string      `yaml:"part,omitempty" json:"part,omitempty"`
	Rotation *OptVector3 `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	Position *OptVector3 `yaml:"position,omitempty" json:"position,omitempty"`
	Scale    *OptVector3 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

func (*LoadGeometryConfig) Kind() Kind { return KindLoadGeometry }

// Anchor resolves the optional fields into a complete anchor config.
func (c *LoadGeometryConfig) Anchor() geometry.AnchorConfig {
	r := c.Rotation.Resolve(0)
	p := c.Position.Resolve(0)
	s := c.Scale.Resolve(1)
	return geometry.AnchorConfig{
		Rotation: math.Euler{X: r[0], Y: r[1], Z: r[2]},
		Position: math.V3(p[0], p[1], p[2]),
		Scale:    math.V3(s[0], s[1], s[2]),
	}
}

// MeshStandardMaterialConfig configures a standard material. Omitted
// factors keep the material defaults.
type MeshStandardMaterialConfig struct {
	Meta            `yaml:",inline"`
	Color           string   `yaml:"color,omitempty" json:"color,omitempty"`
	Metalness       *float32 `yaml:"metalness,omitempty" json:"metalness,omitempty"`
	Roughness       *float32 `yaml:"roughness,omitempty" json:"roughness,omitempty"`
	EnvMapIntensity *float32 `yaml:"envMapIntensity,omitempty" json:"envMapIntensity,omitempty"`
	Transparent     bool     `yaml:"transparent,omitempty" json:"transparent,omitempty"`
	Opacity         *float32 `yaml:"opacity,omitempty" json:"opacity,omitempty"`
	Map             string   `yaml:"map,omitempty" json:"map,omitempty"`
	EnvMap          string   `yaml:"envMap,omitempty" json:"envMap,omitempty"`
}

func (*MeshStandardMaterialConfig) Kind() Kind { return KindMeshStandardMaterial }

// MeshConfig pairs a geometry with a material and places it.
type MeshConfig struct {
	Meta     `yaml:",inline"`
	Geometry string      `yaml:"geometry" json:"geometry"`
	Material string      `yaml:"material" json:"material"`
	Position *OptVector3 `yaml:"position,omitempty" json:"position,omitempty"`
	Rotation *OptVector3 `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	Scale    *OptVector3 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Visible  *bool       `yaml:"visible,omitempty" json:"visible,omitempty"`
}

func (*MeshConfig) Kind() Kind { return KindMesh }

// ScriptAnimationConfig drives one attribute of a mesh.
type ScriptAnimationConfig struct {
	Meta      `yaml:",inline"`
	Target    string                 `yaml:"target" json:"target"`
	Attribute string                 `yaml:"attribute" json:"attribute"`
	Script    animation.ScriptConfig `yaml:"script" json:"script"`
	Play      *bool                  `yaml:"play,omitempty" json:"play,omitempty"`
}

func (*ScriptAnimationConfig) Kind() Kind { return KindScriptAnimation }
