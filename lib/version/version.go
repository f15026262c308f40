// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package version

import "fmt"

// Build metadata, injected with -ldflags. A build without injection
// identifies itself as a dev build.
var (
	// Version is the release version, set manually when tagging.
	Version = "0.1.0-dev"

	// GitCommit is the short commit SHA the binary was built from.
	GitCommit = "unknown"

	// GitDirty is "true" when the working tree had uncommitted
	// changes at build time.
	GitDirty = "false"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Info renders the build metadata as one string, e.g.
// "0.1.0-dev (a1b2c3d, 2026-08-01T12:00:00Z)".
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Print writes the --version line for the named binary to stdout.
func Print(name string) {
	fmt.Printf("%s %s\n", name, Info())
}
