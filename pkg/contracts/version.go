// Package contracts holds the versioned data contracts shared between the
// pipeline and its consumers.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the application.
	Version = "0.3.0"

	// ReportFormatVersion is the version of the report workbook layout.
	// Readers of the generated workbooks should check it before parsing.
	ReportFormatVersion = "v1"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version      string `json:"version"`
	ReportFormat string `json:"report_format"`
	GoVersion    string `json:"go_version"`
	Platform     string `json:"platform"`
}

// GetBuildInfo returns the build information for the running binary.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:      Version,
		ReportFormat: ReportFormatVersion,
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// VersionString returns a human-readable version line.
func VersionString() string {
	info := GetBuildInfo()
	return fmt.Sprintf("consolidate %s (report format %s, %s, %s)",
		info.Version, info.ReportFormat, info.GoVersion, info.Platform)
}
