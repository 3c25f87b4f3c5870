package formats

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/anchorview/pkg/geometry"
	"github.com/Faultbox/anchorview/pkg/math"
)

// glTF format errors.
var (
	ErrGLTFNoMeshes        = errors.New("glTF document contains no triangle meshes")
	ErrGLTFMissingPosition = errors.New("glTF primitive has no POSITION attribute")
)

// GLTFPrimitive is one triangle primitive of a glTF mesh.
type GLTFPrimitive struct {
	Name     string
	Material string
	Geometry *geometry.Geometry
}

// LoadGLTF opens a .gltf or .glb file and extracts every triangle primitive.
func LoadGLTF(path string) ([]GLTFPrimitive, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return ReadGLTF(doc)
}

// ReadGLTF extracts every triangle primitive of an already decoded document.
// Non-triangle primitives (points, lines) are skipped.
func ReadGLTF(doc *gltf.Document) ([]GLTFPrimitive, error) {
	var out []GLTFPrimitive
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			g, err := readPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}

			name := mesh.Name
			if name == "" {
				name = fmt.Sprintf("mesh%d", mi)
			}
			if len(mesh.Primitives) > 1 {
				name = fmt.Sprintf("%s.%d", name, pi)
			}
			g.Name = name

			p := GLTFPrimitive{Name: name, Geometry: g}
			if prim.Material != nil && int(*prim.Material) < len(doc.Materials) {
				p.Material = doc.Materials[*prim.Material].Name
			}
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, ErrGLTFNoMeshes
	}
	return out, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*geometry.Geometry, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, ErrGLTFMissingPosition
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	g := &geometry.Geometry{Positions: make([]math.Vec3, len(positions))}
	for i, p := range positions {
		g.Positions[i] = math.FromArray(p)
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		if len(normals) == len(positions) {
			g.Normals = make([]math.Vec3, len(normals))
			for i, n := range normals {
				g.Normals[i] = math.FromArray(n)
			}
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("reading texcoords: %w", err)
		}
		if len(uvs) == len(positions) {
			g.UVs = make([]math.Vec2, len(uvs))
			for i, uv := range uvs {
				g.UVs[i] = math.Vec2{X: uv[0], Y: uv[1]}
			}
		}
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
		for _, i := range indices {
			if int(i) >= len(positions) {
				return nil, fmt.Errorf("index %d out of range (have %d vertices)", i, len(positions))
			}
		}
		g.Indices = indices
	}

	g.ComputeBoundingBox()
	return g, nil
}

// AppendGLTFMesh writes g as a single-primitive triangle mesh into doc and
// returns the new mesh index. material may be nil.
func AppendGLTFMesh(doc *gltf.Document, g *geometry.Geometry, material *uint32) uint32 {
	positions := make([][3]float32, len(g.Positions))
	for i, p := range g.Positions {
		positions[i] = p.Array()
	}

	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, positions),
		},
		Material: material,
	}

	if len(g.Normals) == len(g.Positions) && len(g.Normals) > 0 {
		normals := make([][3]float32, len(g.Normals))
		for i, n := range g.Normals {
			normals[i] = n.Array()
		}
		prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	}
	if len(g.UVs) == len(g.Positions) && len(g.UVs) > 0 {
		uvs := make([][2]float32, len(g.UVs))
		for i, uv := range g.UVs {
			uvs[i] = uv.Array()
		}
		prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}
	if len(g.Indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, g.Indices))
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name:       g.Name,
		Primitives: []*gltf.Primitive{prim},
	})
	return uint32(len(doc.Meshes) - 1)
}
