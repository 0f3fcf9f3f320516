/*
Package ports defines the driven ports (interfaces) for the Agentry engine.

These interfaces decouple the execution core from external implementations,
allowing the engine to work with various LLM backends, persistence stores, and
log consumers.

# Key Interfaces

  - Responder: The LLM capability an agent node invokes.
  - LogSink: Synchronous callback for streaming log entries to a caller.
  - RunStore: Persistence of run snapshots for restart recovery.
  - DistributedLocker: Cross-replica coordination for concurrent run access.
*/
package ports
