package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
)

func TestScriptedAndDefaultResponses(t *testing.T) {
	r := New("fallback").Script("a", "scripted")
	ctx := context.Background()

	out, err := r.Respond(ctx, domain.Invocation{NodeID: "a"}, ports.ResponderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "scripted", out)

	out, err = r.Respond(ctx, domain.Invocation{NodeID: "b"}, ports.ResponderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", out)
}

func TestEmptyDefaultNamesTheNode(t *testing.T) {
	r := New("")
	out, err := r.Respond(context.Background(), domain.Invocation{NodeID: "x"}, ports.ResponderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "mock response for x", out)
}

func TestInjectedErrors(t *testing.T) {
	boom := errors.New("boom")
	r := New("ok").Fail("bad", boom)

	_, err := r.Respond(context.Background(), domain.Invocation{NodeID: "bad"}, ports.ResponderOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestCallsAreRecordedInOrder(t *testing.T) {
	r := New("ok")
	ctx := context.Background()

	_, _ = r.Respond(ctx, domain.Invocation{NodeID: "first"}, ports.ResponderOptions{})
	_, _ = r.Respond(ctx, domain.Invocation{NodeID: "second"}, ports.ResponderOptions{})

	calls := r.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].NodeID)
	assert.Equal(t, "second", calls[1].NodeID)
}

func TestDelegationEventReplay(t *testing.T) {
	r := New("ok")
	r.EmitDelegationEvents = true

	inv := domain.Invocation{
		NodeID: "lead",
		Delegates: []domain.Invocation{
			{NodeID: "helper", Delegates: []domain.Invocation{{NodeID: "nested"}}},
		},
	}

	var events []domain.DelegationEvent
	_, err := r.Respond(context.Background(), inv, ports.ResponderOptions{
		OnDelegationEvent: func(ev domain.DelegationEvent) {
			events = append(events, ev)
		},
	})
	require.NoError(t, err)

	// helper start, nested start, nested end, helper end.
	require.Len(t, events, 4)
	assert.Equal(t, domain.DelegationCallStart, events[0].Type)
	assert.Equal(t, "helper", events[0].NodeID)
	assert.Equal(t, 1, events[0].Depth)
	assert.Equal(t, "nested", events[1].NodeID)
	assert.Equal(t, 2, events[1].Depth)
	assert.Equal(t, events[0].CallID, events[1].ParentCallID)
	assert.Equal(t, domain.DelegationCallEnd, events[3].Type)
	assert.Equal(t, "helper", events[3].NodeID)
}

func TestRespondHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("ok").Respond(ctx, domain.Invocation{NodeID: "a"}, ports.ResponderOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
