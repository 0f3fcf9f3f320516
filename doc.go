/*
Package agentry is an execution engine for directed graphs of typed agent
steps: entry points, LLM-backed agents, branching conditions, and
human-approval checkpoints.

The engine walks the graph from its entry node, evaluates branches, fans out
over concurrent siblings, suspends at approval checkpoints, and resumes from
suspension with externally supplied decisions. Agent nodes may compose nested
"subagent" invocations through delegation edges, validated into an acyclic
tree before each call to the LLM backend.

# Architecture

The execution core is decoupled from everything else through ports: it needs a
graph to read, a Responder capability for agent responses, and an optional
LogSink for streaming structured log entries. Transports (HTTP, MCP), stores
(memory, file, Redis), and providers live in adapter packages.

# Usage

	graph, err := agentry.ParseWorkflow(document)
	if err != nil {
		log.Fatal(err)
	}

	eng := agentry.New(graph, responder)
	if err := eng.Run(ctx, "initial input"); err != nil {
		log.Fatal(err)
	}

	result := eng.Result()
	if result.WaitingForInput {
		// Persist eng.Snapshot(), collect a decision, then:
		err = eng.Resume(ctx, agentry.ApprovalDecision{Decision: "approve"})
	}

A run suspended on an approval can be snapshotted, persisted through a
RunStore, and later reconstructed with NewFromSnapshot, enabling durable
approvals across process restarts.
*/
package agentry
