package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Active names the scene and camera to render. Empty fields select the
// first of each.
type Active struct {
	Scene  string `yaml:"scene,omitempty" json:"scene,omitempty"`
	Camera string `yaml:"camera,omitempty" json:"camera,omitempty"`
}

// Document is a complete scene description: records grouped by module.
// It reads from YAML or JSON and writes JSON.
type Document struct {
	Active  Active
	Configs []Config
}

// Decode turns one type-tagged node into its typed record.
func Decode(node *yaml.Node) (Config, error) {
	var probe struct {
		Type Kind `yaml:"type"`
	}
	if err := node.Decode(&probe); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	if probe.Type == "" {
		return nil, fmt.Errorf("line %d: %w: missing type", node.Line, ErrUnknownKind)
	}

	cfg, err := newConfig(probe.Type)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	if err := node.Decode(cfg); err != nil {
		return nil, fmt.Errorf("line %d: %s: %w", node.Line, probe.Type, err)
	}
	if cfg.ID() == "" {
		return nil, fmt.Errorf("line %d: %s: %w", node.Line, probe.Type, ErrMissingID)
	}
	return cfg, nil
}

// UnmarshalYAML decodes the module-grouped layout. Records are checked
// against the module they appear under.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*d = Document{}
	if n, ok := raw["active"]; ok {
		if err := n.Decode(&d.Active); err != nil {
			return fmt.Errorf("active: %w", err)
		}
		delete(raw, "active")
	}

	seen := make(map[string]Kind)
	for _, module := range moduleOrder {
		n, ok := raw[module]
		if !ok {
			continue
		}
		delete(raw, module)

		var entries []yaml.Node
		if err := n.Decode(&entries); err != nil {
			return fmt.Errorf("%s: %w", module, err)
		}
		for i := range entries {
			cfg, err := Decode(&entries[i])
			if err != nil {
				return fmt.Errorf("%s[%d]: %w", module, i, err)
			}
			if got := cfg.Kind().Module(); got != module {
				return fmt.Errorf("%s[%d]: %w: %s belongs under %q",
					module, i, ErrInvalidConfig, cfg.Kind(), got)
			}
			if prev, dup := seen[cfg.ID()]; dup {
				return fmt.Errorf("%s[%d]: %w: %q already used by a %s",
					module, i, ErrDuplicateID, cfg.ID(), prev)
			}
			seen[cfg.ID()] = cfg.Kind()
			d.Configs = append(d.Configs, cfg)
		}
	}

	for key := range raw {
		return fmt.Errorf("%w: unknown module %q", ErrUnknownKind, key)
	}
	return nil
}

// grouped returns the records keyed by module.
func (d *Document) grouped() map[string][]Config {
	out := make(map[string][]Config)
	for _, cfg := range d.Configs {
		cfg.meta().Type = cfg.Kind()
		m := cfg.Kind().Module()
		out[m] = append(out[m], cfg)
	}
	return out
}

// MarshalJSON writes the module-grouped layout.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{})
	if d.Active != (Active{}) {
		out["active"] = d.Active
	}
	for m, cfgs := range d.grouped() {
		out[m] = cfgs
	}
	return json.Marshal(out)
}

// MarshalYAML writes the module-grouped layout.
func (d *Document) MarshalYAML() (interface{}, error) {
	out := make(map[string]interface{})
	if d.Active != (Active{}) {
		out["active"] = d.Active
	}
	for m, cfgs := range d.grouped() {
		out[m] = cfgs
	}
	return out, nil
}

// Find returns the record with id.
func (d *Document) Find(id string) (Config, bool) {
	for _, c := range d.Configs {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// ParseDocument decodes a YAML or JSON document.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("parsing scene document: %w", err)
	}
	return doc, nil
}

// LoadDocument reads and decodes the document at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene document: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
