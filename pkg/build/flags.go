// SPDX-License-Identifier: MIT
//
// Package build carries metadata stamped into the binary at compile time
// via linker flags: application name, build timestamp, Git commit hash,
// and semantic version. The values surface in logs and in the version
// subcommand. Binaries built without ldflags report "unknown" for every
// field rather than failing.
package build

import "fmt"

// Info is the resolved build metadata for the running binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Package-level variables populated by -ldflags during compilation, e.g.:
//
//	go build -ldflags "-X audioviz/pkg/build.buildName=audioviz \
//	    -X audioviz/pkg/build.buildVersion=0.1.0 ..."
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = Info{
		Name:    "unknown",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "unknown",
	}
)

// Initialize copies the ldflags values into the Info returned by Get.
// It reports which flags were missing so startup can log the gap; the
// missing fields keep their "unknown" defaults and the binary runs on.
func Initialize() error {
	var missing []string

	if buildName != "" {
		buildInfo.Name = buildName
	} else {
		missing = append(missing, "buildName")
	}
	if buildTime != "" {
		buildInfo.Time = buildTime
	} else {
		missing = append(missing, "buildTime")
	}
	if buildCommit != "" {
		buildInfo.Commit = buildCommit
	} else {
		missing = append(missing, "buildCommit")
	}
	if buildVersion != "" {
		buildInfo.Version = buildVersion
	} else {
		missing = append(missing, "buildVersion")
	}

	if len(missing) > 0 {
		return fmt.Errorf("build flags not set: %v", missing)
	}
	return nil
}

// Get returns the current build metadata.
func Get() Info {
	return buildInfo
}

// String renders the metadata in the form the version subcommand prints.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}
