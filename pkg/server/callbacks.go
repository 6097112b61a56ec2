package server

import (
	"github.com/pgaval/mrcp-server/pkg/mpf"
	"github.com/pgaval/mrcp-server/pkg/mrcp"
)

// OnChannelModify implements mrcp.ChannelCallback: the connection
// agent has finished an Add or Modify for ch's control leg.
func (s *Session) OnChannelModify(ch *mrcp.MRCPChannel, answer *mrcp.ControlMediaDescriptor, status mrcp.SessionStatus) {
	s.mu.Lock()
	if status != mrcp.StatusOK {
		s.setAnswerStatus(status)
	}
	if answer != nil && s.answer != nil && ch.ID < len(s.answer.Control) {
		s.answer.Control[ch.ID] = answer
	}
	s.mu.Unlock()

	s.completeSubrequest()
}

// OnChannelRemove implements mrcp.ChannelCallback: the connection
// agent has finished removing ch's control leg during terminate
// teardown.
func (s *Session) OnChannelRemove(ch *mrcp.MRCPChannel, status mrcp.SessionStatus) {
	s.completeSubrequest()
}

// OnEngineChannelOpen implements mrcp.EngineChannelCallback: the
// resource engine has finished opening ch. Failure downgrades the
// answer's status but otherwise joins the same completion chokepoint
// every other sub-request does.
func (s *Session) OnEngineChannelOpen(ch *mrcp.EngineChannel, success bool) {
	if success {
		ch.MarkOpened()
	} else {
		s.mu.Lock()
		s.setAnswerStatus(mrcp.StatusUnavailableResource)
		sessionID := s.id
		s.mu.Unlock()
		s.logger.Warn("engine channel open failed asynchronously", Err(ErrEngineChannelOpenFailed(sessionID, ch.ResourceName)))
	}
	s.completeSubrequest()
}

// OnEngineChannelClose implements mrcp.EngineChannelCallback: the
// resource engine has finished closing ch during terminate teardown.
func (s *Session) OnEngineChannelClose(ch *mrcp.EngineChannel) {
	s.completeSubrequest()
}

// HandleTaskResult implements mpf.ResultHandler, routing a media
// engine task's completion back to the sub-request counter. A
// successful topology rebuild also updates the topology-rebuild
// counter; RTP local descriptors are already stamped into the answer
// synchronously at termination-factory time, so no further answer
// bookkeeping happens here.
func (s *Session) HandleTaskResult(r mpf.TaskResult) {
	if r.Kind == mpf.ApplyTopologyTask && r.Success {
		s.profile.Metrics.topologyRebuilt()
	}
	if r.Kind == mpf.AddTerminationTask && !r.Success {
		s.mu.Lock()
		sessionID := s.id
		s.mu.Unlock()
		s.logger.Warn("media context rejected termination add", Err(ErrContextCapacityExhausted(sessionID)))
	}
	if r.Err != nil {
		s.logger.Warn("media engine task failed", String("task", r.Kind.String()), Err(r.Err))
	}
	s.completeSubrequest()
}
