package core

import "fmt"

// Core version of the SDK, reported in the User-Agent header.
const (
	VersionMajor    = 0
	VersionMinor    = 2
	VersionRevision = 5
)

// VersionText returns the dotted version string.
func VersionText() string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionRevision)
}
