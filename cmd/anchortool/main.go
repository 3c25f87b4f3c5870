// anchortool is a CLI utility for anchoring mesh files outside the viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/anchorview/internal/assets"
	"github.com/Faultbox/anchorview/pkg/formats"
	"github.com/Faultbox/anchorview/pkg/geometry"
	"github.com/Faultbox/anchorview/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "transform", "t":
		err = cmdTransform(args, os.Stdout)
	case "info":
		err = cmdInfo(args, os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `anchortool - mesh anchor utility

Usage:
  anchortool <command> [options]

Commands:
  transform [options] <in> <out.glb>   Anchor every part of a mesh and write binary glTF
  info [-dump] <in>                    Show parts, vertex counts and bounds

Transform options:
  -rot x,y,z     Rotation (radians, or degrees with -deg)
  -pos x,y,z     Offset as a fraction of the half-extents, each in [-1, 1]
  -scale x,y,z   Scale factors (a single value scales uniformly)
  -deg           Read -rot in degrees
  -part name     Only export the named part

Examples:
  anchortool transform -rot 90,0,0 -deg -scale 80 -pos 0.13,-0.14,0 three.obj three.glb
  anchortool info -dump vis.glb`)
}

// parseVec3 reads "x,y,z" or a single value repeated on every axis.
func parseVec3(s string) (math.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 1 && len(parts) != 3 {
		return math.Vec3{}, fmt.Errorf("vector %q: want x,y,z or a single value", s)
	}
	var out [3]float32
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("vector %q: %w", s, err)
		}
		out[i] = float32(v)
	}
	if len(parts) == 1 {
		return math.Splat(out[0]), nil
	}
	return math.FromArray(out), nil
}

// loadMesh loads a single file through an asset manager rooted at its
// directory.
func loadMesh(path string) (*assets.Mesh, error) {
	m := assets.NewManager(filepath.Dir(path))
	return m.Load(context.Background(), "/"+filepath.Base(path))
}

func cmdTransform(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	rot := fs.String("rot", "0,0,0", "rotation x,y,z")
	pos := fs.String("pos", "0,0,0", "position offset x,y,z")
	scale := fs.String("scale", "1,1,1", "scale x,y,z")
	deg := fs.Bool("deg", false, "rotation in degrees")
	part := fs.String("part", "", "only export this part")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: anchortool transform [options] <in> <out.glb>")
	}

	cfg := geometry.IdentityAnchor()
	r, err := parseVec3(*rot)
	if err != nil {
		return err
	}
	if *deg {
		cfg.Rotation = math.EulerDeg(r.X, r.Y, r.Z)
	} else {
		cfg.Rotation = math.Euler{X: r.X, Y: r.Y, Z: r.Z}
	}
	if cfg.Position, err = parseVec3(*pos); err != nil {
		return err
	}
	if cfg.Scale, err = parseVec3(*scale); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	mesh, err := loadMesh(fs.Arg(0))
	if err != nil {
		return err
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "anchortool"
	for _, p := range mesh.Parts {
		if *part != "" && p.Name != *part {
			continue
		}
		g, err := geometry.Anchor(p.Geometry, cfg)
		if err != nil {
			return fmt.Errorf("part %s: %w", p.Name, err)
		}
		g.Name = p.Name
		idx := formats.AppendGLTFMesh(doc, g, nil)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: p.Name, Mesh: gltf.Index(idx)})

		box := g.BoundingBox
		fmt.Fprintf(out, "%-20s %6d verts  min %v  max %v\n", p.Name, g.VertexCount(), box.Min, box.Max)
	}
	if len(doc.Nodes) == 0 {
		return fmt.Errorf("no part named %q in %s", *part, fs.Arg(0))
	}

	if err := gltf.SaveBinary(doc, fs.Arg(1)); err != nil {
		return fmt.Errorf("writing %s: %w", fs.Arg(1), err)
	}
	fmt.Fprintf(out, "wrote %s (%d parts)\n", fs.Arg(1), len(doc.Nodes))
	return nil
}

func cmdInfo(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	dump := fs.Bool("dump", false, "dump the parsed mesh")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: anchortool info [-dump] <in>")
	}

	mesh, err := loadMesh(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "File:   %s\n", mesh.Path)
	fmt.Fprintf(out, "Format: %s\n", mesh.Format)
	fmt.Fprintf(out, "Parts:  %d\n", len(mesh.Parts))
	fmt.Fprintln(out)

	total := math.EmptyBox3()
	for _, p := range mesh.Parts {
		g := p.Geometry
		total = total.Union(g.BoundingBox)
		fmt.Fprintf(out, "  %-20s %6d verts %6d tris  material %q\n",
			p.Name, g.VertexCount(), g.TriangleCount(), p.Material)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Bounds: min %v max %v size %v\n", total.Min, total.Max, total.Size())

	if *dump {
		cfg := spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true}
		cfg.Fdump(out, mesh)
	}
	return nil
}
