package server

import (
	"context"
	"sync"
	"time"

	"github.com/pgaval/mrcp-server/pkg/mpf"
	"github.com/pgaval/mrcp-server/pkg/mrcp"
	"github.com/looplab/fsm"
)

// SignalingAgent is the outgoing half of the signaling agent contract:
// the orchestrator calls these once an offer/control/terminate
// operation has run its course.
type SignalingAgent interface {
	Answer(sessionID string, desc *mrcp.SessionDescriptor)
	TerminateResponse(sessionID string)
	// ControlMessage carries a v1-style control response/event back
	// over the signaling leg. The orchestrator uses it for v1 sessions,
	// and for v2 messages whose channel can't be resolved or whose
	// control leg rejects the send.
	ControlMessage(sessionID string, msg *mrcp.Message)
}

// rtpSlot is an RTP termination slot: the termination, its SDP
// position and mid, and a Waiting flag. The orchestrator never sets
// Waiting; outstanding add/modify work is tracked only by the
// session's sub-request counter.
type rtpSlot struct {
	Termination *mpf.Termination
	ID          int
	MID         int
	Waiting     bool
}

// signalingMessage is a tagged-variant family standing in for a
// callback vtable: one implementation per inbound signaling
// operation.
type signalingMessage interface {
	dispatch(s *Session)
}

type offerMessage struct{ descriptor *mrcp.SessionDescriptor }
type controlMessage struct {
	channel *mrcp.MRCPChannel
	message *mrcp.Message
}
type terminateMessage struct{}

func (m *offerMessage) dispatch(s *Session)     { s.processOffer(m.descriptor) }
func (m *controlMessage) dispatch(s *Session)   { s.processControl(m.channel, m.message) }
func (m *terminateMessage) dispatch(s *Session) { s.processTerminate() }

// subrequestGroup is a mutex-free (caller-locked) outstanding-count
// with an edge-triggered completion: done reports true exactly once,
// the moment the count returns to zero after having been positive.
type subrequestGroup struct {
	count int
}

func (g *subrequestGroup) add(n int) { g.count += n }

// done decrements by one and reports whether the group just became
// empty.
func (g *subrequestGroup) done() bool {
	g.count--
	return g.count == 0
}

func (g *subrequestGroup) zero() bool { return g.count == 0 }

// Session is the per-session coordinator: the state machine that
// processes signaling messages, fans sub-requests out, and assembles
// the answer.
type Session struct {
	mu sync.Mutex

	id      string
	version mrcp.Version
	profile *Profile
	table   *Table
	agent   SignalingAgent
	logger  Logger

	ctx      *mpf.Context
	channels []*mrcp.MRCPChannel
	slots    []*rtpSlot

	queue  []signalingMessage
	active signalingMessage

	offer      *mrcp.SessionDescriptor
	answer     *mrcp.SessionDescriptor
	taskBuffer []mpf.Task
	pending    subrequestGroup

	fsm *fsm.FSM

	offerStarted time.Time
}

// NewSession allocates a session bound to profile/table/agent. The
// session is not registered in the table until its first offer
// arrives: ids are minted lazily so a session that never receives an
// offer never occupies a table slot.
func NewSession(version mrcp.Version, profile *Profile, table *Table, agent SignalingAgent) *Session {
	s := &Session{
		version: version,
		profile: profile,
		table:   table,
		agent:   agent,
		logger:  profile.Logger,
	}
	s.fsm = fsm.NewFSM(
		"none",
		fsm.Events{
			{Name: "offer", Src: []string{"none"}, Dst: "answering"},
			{Name: "answered", Src: []string{"answering"}, Dst: "none"},
			{Name: "terminate", Src: []string{"none", "answering"}, Dst: "deactivating"},
			{Name: "deactivated", Src: []string{"deactivating"}, Dst: "terminating"},
			{Name: "terminated", Src: []string{"terminating"}, Dst: "terminated"},
		},
		fsm.Callbacks{},
	)
	return s
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.Current()
}

func (s *Session) fire(event string) {
	_ = s.fsm.Event(context.Background(), event)
}

// submit enqueues msg if another message is active, otherwise
// dispatches it immediately: signaling messages for a session are
// always serialized, one in flight at a time.
func (s *Session) submit(msg signalingMessage) {
	s.mu.Lock()
	if s.active != nil {
		s.queue = append(s.queue, msg)
		s.mu.Unlock()
		return
	}
	s.active = msg
	s.mu.Unlock()

	msg.dispatch(s)
}

// completeActive clears the active slot and, if another message is
// queued, pops and dispatches it — called at the end of every
// offer/control/terminate completion path.
func (s *Session) completeActive() {
	s.mu.Lock()
	s.active = nil
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.active = next
	s.mu.Unlock()

	next.dispatch(s)
}

// Offer submits an inbound offer.
func (s *Session) Offer(desc *mrcp.SessionDescriptor) {
	s.submit(&offerMessage{descriptor: desc})
}

// Control submits an inbound control request, routed by resource name
// when channel is nil.
func (s *Session) Control(channel *mrcp.MRCPChannel, msg *mrcp.Message) {
	s.submit(&controlMessage{channel: channel, message: msg})
}

// Terminate submits an inbound terminate. Idempotent once the session
// has already left state "none"/"answering" toward deactivation.
func (s *Session) Terminate() {
	s.mu.Lock()
	state := s.fsm.Current()
	s.mu.Unlock()
	if state == "deactivating" || state == "terminating" || state == "terminated" {
		return
	}
	s.submit(&terminateMessage{})
}

func (s *Session) flushTasks() {
	if len(s.taskBuffer) == 0 {
		return
	}
	batch := s.taskBuffer
	s.taskBuffer = nil
	s.profile.MediaEngine.Send(batch)
}

func (s *Session) channelByResource(name string) *mrcp.MRCPChannel {
	for _, ch := range s.channels {
		if ch.ResourceName == name {
			return ch
		}
	}
	return nil
}

// addPending must be called with s.mu held; it grows the sub-request
// counter and mirrors the delta into the outstanding-sub-requests
// gauge.
func (s *Session) addPending(n int) {
	s.pending.add(n)
	s.profile.Metrics.subrequestsChanged(n)
}

// checkCompletion fires the state-appropriate completion handler if
// the sub-request counter already reads zero, without decrementing
// it: covers the case where fanning out an offer's or terminate's
// sub-requests produced none to wait on.
func (s *Session) checkCompletion() {
	s.mu.Lock()
	zero := s.pending.zero()
	state := s.fsm.Current()
	s.mu.Unlock()
	if zero {
		s.dispatchCompletion(state)
	}
}

// completeSubrequest decrements the counter by one and fires the
// state-appropriate completion handler if it just reached zero. Every
// asynchronous callback from the media context, engine channels, and
// the connection agent funnels through this single chokepoint.
func (s *Session) completeSubrequest() {
	s.mu.Lock()
	zero := s.pending.done()
	state := s.fsm.Current()
	s.profile.Metrics.subrequestsChanged(-1)
	s.mu.Unlock()
	if zero {
		s.dispatchCompletion(state)
	}
}

func (s *Session) dispatchCompletion(state string) {
	switch state {
	case "answering":
		s.sendAnswer()
	case "deactivating":
		s.onDeactivationComplete()
	case "terminating":
		s.onTerminationComplete()
	}
}

// sendAnswer publishes the answer, clears the offer/answer pair, and
// returns the session to state "none" before popping the next queued
// signaling message.
func (s *Session) sendAnswer() {
	s.mu.Lock()
	answer := s.answer
	sessionID := s.id
	started := s.offerStarted
	s.offer = nil
	s.answer = nil
	s.fire("answered")
	s.mu.Unlock()

	s.profile.Metrics.offerAnswered(time.Since(started))
	s.agent.Answer(sessionID, answer)
	s.completeActive()
}

