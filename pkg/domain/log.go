package domain

import "time"

// LogType categorizes one entry in a run's log.
type LogType string

const (
	LogStepStart           LogType = "step_start"
	LogStartPrompt         LogType = "start_prompt"
	LogLogicCheck          LogType = "logic_check"
	LogWaitInput           LogType = "wait_input"
	LogInputReceived       LogType = "input_received"
	LogLLMResponse         LogType = "llm_response"
	LogLLMError            LogType = "llm_error"
	LogError               LogType = "error"
	LogWarn                LogType = "warn"
	LogDelegationCallStart LogType = "delegation_call_start"
	LogDelegationCallEnd   LogType = "delegation_call_end"
	LogDelegationCallError LogType = "delegation_call_error"
)

// SystemNodeID is the NodeID sentinel for entries not tied to a single node.
const SystemNodeID = "system"

// LogEntry is one entry in a run's append-only, ordered log.
// Structured events are serialized into Content as text.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"nodeId"`
	Type      LogType   `json:"type"`
	Content   string    `json:"content"`
}
