package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile     = flag.String("log-file", "", "Also write logs to this file")
	flagEpsilon     = flag.Float64("epsilon", 0, "Weld tolerance (0 keeps the configured value)")
	flagSearchLimit = flag.Int("search-limit", -1, "Vertices scanned per weld, 0 for all")
	flagMaxVerts    = flag.Int("max-verts", -1, "Index capacity cap, 0 sizes to the input")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagFullscreen  = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagShader      = flag.String("shader", "", "Stock shader name")
	flagNoNormals   = flag.Bool("no-normals", false, "Do not expect normals in mesh files")
	flagNoTexCoords = flag.Bool("no-texcoords", false, "Do not expect texture coordinates in mesh files")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagEpsilon > 0 {
		cfg.Weld.Epsilon = float32(*flagEpsilon)
	}
	if *flagSearchLimit >= 0 {
		cfg.Weld.SearchLimit = *flagSearchLimit
	}
	if *flagMaxVerts >= 0 {
		cfg.Weld.MaxVerts = *flagMaxVerts
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
	if *flagFullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *flagShader != "" {
		cfg.Viewer.Shader = *flagShader
	}
	if *flagNoNormals {
		cfg.IO.ExpectNormals = false
	}
	if *flagNoTexCoords {
		cfg.IO.ExpectTexCoords = false
	}
}
