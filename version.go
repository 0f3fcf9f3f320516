package agentry

import _ "embed"

// Version is the module version, sourced from the VERSION file at release
// time. Callers should strings.TrimSpace it before display.
//
//go:embed VERSION
var Version string
