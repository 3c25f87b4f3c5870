package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagAddr      = flag.String("addr", "", "HTTP listen address")
	flagScene     = flag.String("scene", "", "Scene document path")
	flagTickRate  = flag.Int("tick-rate", 0, "Render ticks per second")
	flagWatch     = flag.Bool("watch", false, "Reload the scene document on change")
	flagExportDir = flag.String("export-dir", "", "Directory for scene exports")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagScene != "" {
		cfg.Scene.Document = *flagScene
	}
	if *flagTickRate > 0 {
		cfg.Render.TickRate = *flagTickRate
	}
	if *flagWatch {
		cfg.Scene.Watch = true
	}
	if *flagExportDir != "" {
		cfg.Export.Dir = *flagExportDir
	}
}
