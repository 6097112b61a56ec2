package mrcp

import (
	"context"
	"sync"

	"github.com/looplab/fsm"
)

// Dispatcher is what a StateMachine calls back into: the two
// callbacks it invokes on the orchestrator. OnDispatch carries a
// request/response/event onward; OnDeactivate
// signals the orchestrator's sub-request counter that this channel's
// deactivation has completed.
type Dispatcher interface {
	OnDispatch(msg *Message)
	OnDeactivate()
}

// StateMachine is the per-MRCP-channel state machine the orchestrator
// feeds control messages into and never otherwise inspects. The
// concrete resource-specific states (IDLE/SPEAKING/RECOGNIZING/…)
// belong to resource-engine plugins, which are out of scope here; this
// implements the contract generically — one pending request at a
// time, with an optional synthesised final event on deactivation while
// a request is outstanding — so the orchestrator's side is fully
// exercised without a real speech engine behind it.
type StateMachine struct {
	mu             sync.Mutex
	fsm            *fsm.FSM
	dispatcher     Dispatcher
	pending        *Message
	finalEventName string
}

// NewStateMachine builds a StateMachine reporting through dispatcher.
// finalEventName, if non-empty, is the event Name synthesised and
// dispatched when Deactivate is called while a request is pending
// (e.g. "RECOGNITION-COMPLETE" for a recognizer channel); pass "" for
// resources that have nothing to say on an abrupt deactivation.
func NewStateMachine(dispatcher Dispatcher, finalEventName string) *StateMachine {
	sm := &StateMachine{
		dispatcher:     dispatcher,
		finalEventName: finalEventName,
	}
	sm.fsm = fsm.NewFSM(
		"idle",
		fsm.Events{
			{Name: "request", Src: []string{"idle"}, Dst: "active"},
			{Name: "complete", Src: []string{"active"}, Dst: "idle"},
			{Name: "deactivate", Src: []string{"idle", "active"}, Dst: "deactivated"},
		},
		fsm.Callbacks{},
	)
	return sm
}

// Current reports the FSM's current state string, exposed for tests
// only — the orchestrator itself never reads it.
func (sm *StateMachine) Current() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.fsm.Current()
}

// HandleMessage feeds a control message into the state machine: a
// request transitions idle->active and is remembered as pending; a
// response or event passes straight through. Every accepted message
// is handed to the dispatcher.
func (sm *StateMachine) HandleMessage(msg *Message) error {
	sm.mu.Lock()
	if msg.Type == MessageRequest {
		if err := sm.fsm.Event(context.Background(), "request"); err != nil {
			sm.mu.Unlock()
			return err
		}
		sm.pending = msg
	}
	sm.mu.Unlock()

	sm.dispatcher.OnDispatch(msg)
	return nil
}

// CompleteRequest is called by the resource-engine side once it has
// finished the pending request, returning the channel to idle and
// dispatching the response.
func (sm *StateMachine) CompleteRequest(response *Message) {
	sm.mu.Lock()
	sm.pending = nil
	sm.fsm.Event(context.Background(), "complete")
	sm.mu.Unlock()

	sm.dispatcher.OnDispatch(response)
}

// Deactivate handles deactivation: if a request was outstanding and a
// final event name was configured, synthesise
// and dispatch that event before signalling OnDeactivate, so the
// orchestrator's terminate processing only proceeds once the client
// has seen the resource's last word.
func (sm *StateMachine) Deactivate() {
	sm.mu.Lock()
	pending := sm.pending
	sm.pending = nil
	sm.fsm.Event(context.Background(), "deactivate")
	sm.mu.Unlock()

	if pending != nil && sm.finalEventName != "" {
		sm.dispatcher.OnDispatch(&Message{
			Version:   pending.Version,
			Type:      MessageEvent,
			ChannelID: pending.ChannelID,
			Name:      sm.finalEventName,
		})
	}
	sm.dispatcher.OnDeactivate()
}
