// Package misc holds small helpers shared across binaries and packages.
package misc

import "runtime/debug"

const appName = "svgc"

// GetAppName returns the short program name used for log, report and
// temporary file naming.
func GetAppName() string {
	return appName
}

// GetVersion returns the main module version recorded by the Go toolchain.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns the VCS revision the binary was built from.
func GetGitHash() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
