// Package settings provides build metadata, per-run settings, and context
// helpers used across the mwq CLI and library packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "mwq"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string `json:"commit" yaml:"commit"`
	BuildVersion string `json:"version" yaml:"version"`
	BuildTime    string `json:"build_time" yaml:"build_time"`
}

// Run holds settings for a single execution of the CLI, resolved from flags
// and the config file.
type Run struct {
	MinLogLevel  int8
	ConfigFile   string
	ObjectType   string
	OutputFormat string
	IsQuiet      bool
	NoColor      bool
	ExitOnError  bool
}

// NewCliParams returns the defaults used before flags are parsed.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel:  0,
		ObjectType:   "object",
		OutputFormat: "auto",
		IsQuiet:      false,
		NoColor:      false,
		ExitOnError:  true,
	}
}
