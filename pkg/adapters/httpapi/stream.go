package httpapi

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
)

// StreamManager fans run log entries out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // run id -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(runID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[runID] {
		select {
		case ch <- msg:
		default:
			// Drop the message if the channel is full (slow client).
			slog.Warn("SSE: client buffer full, dropping message", "runId", runID)
		}
	}
}

// Sink returns a log sink that broadcasts each entry as JSON to the run's
// subscribers.
func (sm *StreamManager) Sink(runID string) ports.LogSink {
	return func(entry domain.LogEntry) {
		payload, err := json.Marshal(entry)
		if err != nil {
			return
		}
		sm.Broadcast(runID, string(payload))
	}
}
