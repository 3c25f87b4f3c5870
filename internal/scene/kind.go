package scene

import (
	"fmt"
	"sort"
)

// Kind tags a configuration record.
type Kind string

const (
	KindScene                Kind = "Scene"
	KindPerspectiveCamera    Kind = "PerspectiveCamera"
	KindWebGLRenderer        Kind = "WebGLRenderer"
	KindOrbitControls        Kind = "OrbitControls"
	KindAmbientLight         Kind = "AmbientLight"
	KindDirectionalLight     Kind = "DirectionalLight"
	KindImageTexture         Kind = "ImageTexture"
	KindCubeTexture          Kind = "CubeTexture"
	KindLoadGeometry         Kind = "LoadGeometry"
	KindMeshStandardMaterial Kind = "MeshStandardMaterial"
	KindMesh                 Kind = "Mesh"
	KindScriptAnimation      Kind = "ScriptAnimation"
)

// Document modules, in the order entities are built. A kind may only
// reference kinds from earlier modules.
const (
	ModuleTexture   = "texture"
	ModuleScene     = "scene"
	ModuleCamera    = "camera"
	ModuleRenderer  = "renderer"
	ModuleControls  = "controls"
	ModuleLight     = "light"
	ModuleGeometry  = "geometry"
	ModuleMaterial  = "material"
	ModuleMesh      = "mesh"
	ModuleAnimation = "animation"
)

var moduleOrder = []string{
	ModuleTexture,
	ModuleScene,
	ModuleCamera,
	ModuleRenderer,
	ModuleControls,
	ModuleLight,
	ModuleGeometry,
	ModuleMaterial,
	ModuleMesh,
	ModuleAnimation,
}

var kindModules = map[Kind]string{
	KindImageTexture:         ModuleTexture,
	KindCubeTexture:          ModuleTexture,
	KindScene:                ModuleScene,
	KindPerspectiveCamera:    ModuleCamera,
	KindWebGLRenderer:        ModuleRenderer,
	KindOrbitControls:        ModuleControls,
	KindAmbientLight:         ModuleLight,
	KindDirectionalLight:     ModuleLight,
	KindLoadGeometry:         ModuleGeometry,
	KindMeshStandardMaterial: ModuleMaterial,
	KindMesh:                 ModuleMesh,
	KindScriptAnimation:      ModuleAnimation,
}

// Module returns the document module a kind belongs to.
func (k Kind) Module() string {
	return kindModules[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindModules[k]
	return ok
}

func moduleRank(module string) int {
	for i, m := range moduleOrder {
		if m == module {
			return i
		}
	}
	return len(moduleOrder)
}

// newConfig returns an empty record for kind.
func newConfig(k Kind) (Config, error) {
	switch k {
	case KindScene:
		return &SceneConfig{}, nil
	case KindPerspectiveCamera:
		return &PerspectiveCameraConfig{}, nil
	case KindWebGLRenderer:
		return &RendererConfig{}, nil
	case KindOrbitControls:
		return &OrbitControlsConfig{}, nil
	case KindAmbientLight:
		return &AmbientLightConfig{}, nil
	case KindDirectionalLight:
		return &DirectionalLightConfig{}, nil
	case KindImageTexture:
		return &ImageTextureConfig{}, nil
	case KindCubeTexture:
		return &CubeTextureConfig{}, nil
	case KindLoadGeometry:
		return &LoadGeometryConfig{}, nil
	case KindMeshStandardMaterial:
		return &MeshStandardMaterialConfig{}, nil
	case KindMesh:
		return &MeshConfig{}, nil
	case KindScriptAnimation:
		return &ScriptAnimationConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
}

// sortByModule orders configs for building, keeping document order within
// a module.
func sortByModule(cfgs []Config) {
	sort.SliceStable(cfgs, func(i, j int) bool {
		return moduleRank(cfgs[i].Kind().Module()) < moduleRank(cfgs[j].Kind().Module())
	})
}
