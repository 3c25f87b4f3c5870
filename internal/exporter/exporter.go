// Package exporter writes scene snapshots as a reloadable JSON document and
// as binary glTF.
package exporter

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/anchorview/internal/logger"
	"github.com/Faultbox/anchorview/internal/scene"
	"github.com/Faultbox/anchorview/pkg/formats"
)

// Generator is recorded in the asset block of exported glTF files.
const Generator = "anchorview"

var ErrEmptySnapshot = errors.New("snapshot has no meshes")

// Names are the file names written by SaveFiles. An empty name skips
// that output.
type Names struct {
	JSON string
	GLB  string
}

// WriteJSON writes the snapshot document in the module-grouped layout.
func WriteJSON(w io.Writer, snap scene.Snapshot) error {
	if snap.Document == nil {
		return errors.New("snapshot has no document")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap.Document); err != nil {
		return errors.Wrap(err, "encoding scene document")
	}
	return nil
}

// BuildGLTF converts every mesh of the snapshot into a glTF node with its
// own material. Invisible meshes are skipped.
func BuildGLTF(snap scene.Snapshot) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator

	for _, m := range snap.Meshes {
		if !m.Visible || m.Geometry.IsEmpty() {
			continue
		}

		mat := &gltf.Material{
			Name:        m.Material.ID,
			DoubleSided: true,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: pointer(m.Material.BaseColorFactor()),
				MetallicFactor:  gltf.Float(m.Material.Metalness),
				RoughnessFactor: gltf.Float(m.Material.Roughness),
			},
		}
		if m.Material.IsBlended() {
			mat.AlphaMode = gltf.AlphaBlend
		} else {
			mat.AlphaMode = gltf.AlphaOpaque
		}
		doc.Materials = append(doc.Materials, mat)
		matIdx := uint32(len(doc.Materials) - 1)

		geom := m.Geometry.Clone()
		geom.Name = m.ID
		meshIdx := formats.AppendGLTFMesh(doc, geom, gltf.Index(matIdx))

		q := m.Rotation.Normalize()
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        nodeName(m),
			Mesh:        gltf.Index(meshIdx),
			Translation: [3]float32{m.Position[0], m.Position[1], m.Position[2]},
			Rotation:    [4]float32{q.V[0], q.V[1], q.V[2], q.W},
			Scale:       [3]float32{m.Scale[0], m.Scale[1], m.Scale[2]},
		})
	}

	if len(doc.Nodes) == 0 {
		return nil, ErrEmptySnapshot
	}
	return doc, nil
}

// WriteGLB writes the snapshot as a single binary glTF stream.
func WriteGLB(w io.Writer, snap scene.Snapshot) error {
	doc, err := BuildGLTF(snap)
	if err != nil {
		return err
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrap(err, "encoding glb")
	}
	return nil
}

// SaveFiles writes the requested outputs into dir and returns the paths
// that were written. All outputs are encoded before any file is touched,
// then each is written to a temporary name and renamed into place. A scene
// without visible meshes still gets its JSON document; the GLB is skipped.
func SaveFiles(dir string, names Names, snap scene.Snapshot) ([]string, error) {
	log := logger.Named("exporter")

	outputs := []struct {
		name  string
		write func(io.Writer, scene.Snapshot) error
	}{
		{names.JSON, WriteJSON},
		{names.GLB, WriteGLB},
	}

	type encoded struct {
		path string
		data []byte
	}
	var pending []encoded
	for _, out := range outputs {
		if out.name == "" {
			continue
		}
		var buf bytes.Buffer
		if err := out.write(&buf, snap); err != nil {
			if errors.Is(err, ErrEmptySnapshot) {
				log.Info("skipped export", zap.String("name", out.name), zap.Error(err))
				continue
			}
			return nil, errors.Wrapf(err, "exporting %s", out.name)
		}
		pending = append(pending, encoded{filepath.Join(dir, out.name), buf.Bytes()})
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating export dir %s", dir)
	}

	var written []string
	for _, f := range pending {
		if err := writeAtomic(f.path, f.data); err != nil {
			return written, err
		}
		log.Info("exported", zap.String("path", f.path), zap.Int("bytes", len(f.data)))
		written = append(written, f.path)
	}
	return written, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "renaming %s", tmp)
	}
	return nil
}

func nodeName(m scene.MeshSnapshot) string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

func pointer(v [4]float32) *[4]float32 {
	return &v
}
