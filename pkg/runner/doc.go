// Package runner drives an engine run to a terminal status, answering
// approval checkpoints through a caller-supplied decision function. It is the
// programmatic counterpart of the interactive CLI session, useful for tests
// and for embedding runs in other programs.
package runner
