package parley

import _ "embed"

// Version is the release of the parley module and binaries.
//
//go:embed VERSION
var Version string
