package server

import "github.com/pgaval/mrcp-server/pkg/mpf"
import "github.com/pgaval/mrcp-server/pkg/mrcp"

// processTerminate deactivates every channel's state machine (letting
// any in-flight resource request synthesise its final event first)
// and waits for all of them before tearing media down.
func (s *Session) processTerminate() {
	s.mu.Lock()
	s.fire("terminate")
	var toDeactivate []*mrcp.MRCPChannel
	for _, ch := range s.channels {
		if ch.StateMachine != nil {
			toDeactivate = append(toDeactivate, ch)
		}
	}
	s.addPending(len(toDeactivate))
	s.mu.Unlock()

	for _, ch := range toDeactivate {
		ch.StateMachine.Deactivate()
	}
	if len(toDeactivate) == 0 {
		s.checkCompletion()
	}
}

// onDeactivationComplete removes every channel's control and engine
// legs, subtracts every termination from the media context, and
// resets its associations — fanning all of it out as one more round
// of sub-requests. The session is removed from the table as soon as
// it enters this state, independent of how many sub-requests are
// still outstanding: unregistering happens up front rather than on
// final completion, so a lookup never returns a session that is
// already committed to tearing down.
func (s *Session) onDeactivationComplete() {
	s.mu.Lock()
	s.fire("deactivated")
	s.pending = subrequestGroup{}

	tasks := []mpf.Task{{Kind: mpf.ResetAssociationsTask, Context: s.ctx}}
	s.addPending(1)

	channels := s.channels
	for _, ch := range channels {
		if s.version == mrcp.VersionV2 {
			s.addPending(1)
		}
		if ch.Engine == nil {
			continue
		}
		if ch.Engine.Termination != nil {
			s.addPending(1)
			tasks = append(tasks, mpf.Task{Kind: mpf.SubtractTerminationTask, Context: s.ctx, Termination: ch.Engine.Termination})
		}
		s.addPending(1)
	}

	slots := s.slots
	for _, slot := range slots {
		s.addPending(1)
		tasks = append(tasks, mpf.Task{Kind: mpf.SubtractTerminationTask, Context: s.ctx, Termination: slot.Termination})
	}

	s.taskBuffer = append(s.taskBuffer, tasks...)
	s.flushTasks()

	sessionID := s.id
	s.table.Remove(sessionID)
	s.mu.Unlock()

	for _, slot := range slots {
		s.profile.TerminationFactory.Release(slot.Termination)
	}

	for _, ch := range channels {
		if s.version == mrcp.VersionV2 {
			if !ch.Control.Remove(s) {
				s.completeSubrequest()
			}
		}
		if ch.Engine != nil {
			if !ch.Engine.Close(s) {
				s.completeSubrequest()
			}
		}
	}

	s.checkCompletion()
}

// onTerminationComplete publishes the terminate-response and discards
// anything still queued — the session's lifecycle has ended, so no
// further signaling message gets a turn at the active slot.
func (s *Session) onTerminationComplete() {
	s.mu.Lock()
	s.fire("terminated")
	sessionID := s.id
	s.active = nil
	s.queue = nil
	s.mu.Unlock()

	s.profile.Metrics.sessionTerminated()
	s.agent.TerminateResponse(sessionID)
}
