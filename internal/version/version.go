// Package version holds logview's release identity, printed by the
// --version flag. Adapted from dtail's internal/version/version.go,
// stripped of the protocol-compatibility string and color formatting
// (dtail's client/server version handshake and its color.PaintStr
// palette - both teacher collaborators logview has no client/server
// pair or theme layer to hand them to).
package version

import "fmt"

const (
	// Name of the program.
	Name string = "logview"
	// Version of logview.
	Version string = "0.1.0"
)

// String returns the plain-text version banner printed by --version.
func String() string {
	return fmt.Sprintf("%s %s", Name, Version)
}
