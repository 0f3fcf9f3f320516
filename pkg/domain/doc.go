/*
Package domain contains the core domain models for the Agentry engine.

It defines the fundamental entities of the workflow graph, such as Nodes,
Connections, and the run state. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: A typed step in the workflow graph (entry, agent, condition, approval).
  - Connection: A directed edge between two nodes, disambiguated by handles.
  - Graph: The full node/connection set a run executes against.
  - LogEntry: One structured entry in a run's append-only log.
  - Invocation: The delegation tree handed to the LLM capability for one agent call.
*/
package domain
