// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Render  RenderConfig  `yaml:"render"`
	Scene   SceneConfig   `yaml:"scene"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	StaticDir       string        `yaml:"static_dir"` // Served at "/" when set
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RenderConfig holds render loop settings.
type RenderConfig struct {
	TickRate int `yaml:"tick_rate"` // Frames per second
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
}

// SceneConfig holds scene document and asset settings.
type SceneConfig struct {
	Document   string   `yaml:"document"`    // YAML or JSON scene document
	AssetRoots []string `yaml:"asset_roots"` // Directories searched for meshes and textures
	Watch      bool     `yaml:"watch"`       // Reload the document when it changes
}

// ExportConfig holds scene export settings.
type ExportConfig struct {
	Dir      string `yaml:"dir"`
	JSONName string `yaml:"json_name"`
	GLBName  string `yaml:"glb_name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Render: RenderConfig{
			TickRate: 60,
			Width:    1280,
			Height:   720,
		},
		Scene: SceneConfig{
			Document:   "scene.yaml",
			AssetRoots: []string{"."},
			Watch:      false,
		},
		Export: ExportConfig{
			Dir:      "export",
			JSONName: "scene.json",
			GLBName:  "scene.glb",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// TickInterval returns the duration of one render tick.
func (r RenderConfig) TickInterval() time.Duration {
	if r.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(r.TickRate)
}

// Aspect returns the viewport aspect ratio.
func (r RenderConfig) Aspect() float32 {
	if r.Height <= 0 {
		return 1
	}
	return float32(r.Width) / float32(r.Height)
}
