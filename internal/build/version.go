package build

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const (
	appMajor uint = 0
	appMinor uint = 3
	appPatch uint = 0
)

var (
	// Commit is the git commit the binary was built from. It is set at
	// link time via -ldflags "-X .../internal/build.Commit=...".
	Commit string

	// RawTags is the comma-separated list of build tags, set at link time.
	RawTags string

	// GoVersion is the toolchain version the binary was built with.
	GoVersion string
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		GoVersion = info.GoVersion

		if Commit != "" {
			return
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				Commit = setting.Value
			}
		}
	}
}

// Version returns the semantic version string of devhooks.
func Version() string {
	return semver(appMajor, appMinor, appPatch)
}

// Tags returns the build tags the binary was compiled with.
func Tags() []string {
	if RawTags == "" {
		return nil
	}

	return strings.Split(RawTags, ",")
}

func semver(major, minor, patch uint) string {
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}
