package ports

import "github.com/agentry-dev/agentry/pkg/domain"

// LogSink is invoked synchronously for every LogEntry the engine appends, in
// addition to the in-memory ordered log. It is how a caller streams progress
// without polling. Implementations must not block for long; entries from
// concurrent branches may arrive interleaved.
type LogSink func(domain.LogEntry)
