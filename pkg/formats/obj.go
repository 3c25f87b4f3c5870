// Package formats provides parsers for the mesh formats the asset loader
// understands.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/anchorview/pkg/encoding"
	"github.com/Faultbox/anchorview/pkg/geometry"
	"github.com/Faultbox/anchorview/pkg/math"
)

// OBJ format errors.
var (
	ErrInvalidOBJ   = errors.New("invalid OBJ data")
	ErrOBJNoObjects = errors.New("OBJ contains no faces")
)

// OBJObject is one "o" (or "g") section of an OBJ file, flattened into a
// non-indexed triangle list.
type OBJObject struct {
	Name     string
	Material string // last usemtl seen in the section
	Geometry *geometry.Geometry
}

// OBJ represents a parsed OBJ file.
type OBJ struct {
	MaterialLibs []string
	Objects      []OBJObject
}

// objIndex is one "v/vt/vn" face corner, already resolved to 0-based
// indices; -1 means absent.
type objIndex struct {
	v, vt, vn int
}

// objParser accumulates the shared vertex pools and the current object.
type objParser struct {
	positions []math.Vec3
	uvs       []math.Vec2
	normals   []math.Vec3

	obj     *OBJ
	current int // index into obj.Objects, -1 before the first section
	line    int
}

// ParseOBJ parses OBJ data from a byte slice.
func ParseOBJ(data []byte) (*OBJ, error) {
	return ReadOBJ(bytes.NewReader(data))
}

// LoadOBJ loads an OBJ file from disk.
func LoadOBJ(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadOBJ(f)
}

// ReadOBJ parses OBJ data from r. Polygons are triangulated as fans.
func ReadOBJ(r io.Reader) (*OBJ, error) {
	p := &objParser{obj: &OBJ{}, current: -1}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, p.line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Drop sections that declared a name but no faces.
	objects := p.obj.Objects[:0]
	for _, o := range p.obj.Objects {
		if o.Geometry.VertexCount() > 0 {
			o.Geometry.ComputeBoundingBox()
			objects = append(objects, o)
		}
	}
	p.obj.Objects = objects

	if len(p.obj.Objects) == 0 {
		return nil, ErrOBJNoObjects
	}
	return p.obj, nil
}

func (p *objParser) parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.positions = append(p.positions, math.V3(v[0], v[1], v[2]))
	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, math.V3(v[0], v[1], v[2]))
	case "vt":
		v, err := parseFloats(fields[1:], 2)
		if err != nil {
			return err
		}
		p.uvs = append(p.uvs, math.Vec2{X: v[0], Y: v[1]})
	case "f":
		return p.parseFace(fields[1:])
	case "o", "g":
		name := ""
		if len(fields) > 1 {
			name = encoding.StringToUTF8(strings.Join(fields[1:], " "))
		}
		p.startObject(name)
	case "usemtl":
		if len(fields) > 1 {
			p.object().Material = encoding.StringToUTF8(fields[1])
		}
	case "mtllib":
		for _, lib := range fields[1:] {
			p.obj.MaterialLibs = append(p.obj.MaterialLibs, encoding.NormalizePath(lib))
		}
	default:
		// s, l, p and vendor extensions are ignored
	}
	return nil
}

// startObject begins a new section unless the current one is still empty,
// in which case it is renamed (OBJ exporters often emit "o" then "g").
func (p *objParser) startObject(name string) {
	if p.current >= 0 {
		cur := &p.obj.Objects[p.current]
		if cur.Geometry.VertexCount() == 0 {
			cur.Name = name
			cur.Geometry.Name = name
			return
		}
	}
	p.obj.Objects = append(p.obj.Objects, OBJObject{
		Name:     name,
		Geometry: &geometry.Geometry{Name: name},
	})
	p.current = len(p.obj.Objects) - 1
}

func (p *objParser) object() *OBJObject {
	if p.current < 0 {
		p.startObject("")
	}
	return &p.obj.Objects[p.current]
}

func (p *objParser) parseFace(corners []string) error {
	if len(corners) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(corners))
	}

	idx := make([]objIndex, len(corners))
	for i, c := range corners {
		var err error
		if idx[i], err = p.parseCorner(c); err != nil {
			return err
		}
	}

	g := p.object().Geometry
	for i := 1; i+1 < len(idx); i++ {
		for _, c := range [3]objIndex{idx[0], idx[i], idx[i+1]} {
			g.Positions = append(g.Positions, p.positions[c.v])
			if c.vt >= 0 {
				g.UVs = append(g.UVs, p.uvs[c.vt])
			}
			if c.vn >= 0 {
				g.Normals = append(g.Normals, p.normals[c.vn])
			}
		}
	}

	// Attribute streams must stay parallel to positions; drop partial ones.
	if len(g.UVs) != 0 && len(g.UVs) != len(g.Positions) {
		g.UVs = nil
	}
	if len(g.Normals) != 0 && len(g.Normals) != len(g.Positions) {
		g.Normals = nil
	}
	return nil
}

func (p *objParser) parseCorner(s string) (objIndex, error) {
	parts := strings.Split(s, "/")
	out := objIndex{v: -1, vt: -1, vn: -1}

	var err error
	if out.v, err = resolveIndex(parts[0], len(p.positions)); err != nil {
		return out, fmt.Errorf("vertex index %q: %w", s, err)
	}
	if len(parts) > 1 && parts[1] != "" {
		if out.vt, err = resolveIndex(parts[1], len(p.uvs)); err != nil {
			return out, fmt.Errorf("texcoord index %q: %w", s, err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if out.vn, err = resolveIndex(parts[2], len(p.normals)); err != nil {
			return out, fmt.Errorf("normal index %q: %w", s, err)
		}
	}
	return out, nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index.
func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	default:
		return 0, fmt.Errorf("out of range (have %d)", count)
	}
}

func parseFloats(fields []string, want int) ([]float32, error) {
	if len(fields) < want {
		return nil, fmt.Errorf("expected %d components, got %d", want, len(fields))
	}
	out := make([]float32, want)
	for i := 0; i < want; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}
