package server

import (
	"time"

	"github.com/pgaval/mrcp-server/pkg/mpf"
	"github.com/pgaval/mrcp-server/pkg/mrcp"
	"github.com/pion/sdp/v3"
)

// processOffer runs the offer-processing algorithm end to end: reset
// associations, walk the control media and bring up any new channels,
// walk the audio media and bring up or modify any RTP legs, rebuild
// the topology, then hand the finished answer back once every
// sub-request it fanned out has completed. It runs with the session's
// mutex held for the whole of its synchronous bookkeeping; the
// collaborators it calls out to (resource factory lookup,
// ResourceEngine.CreateTermination, ConnectionAgent.Add/Modify,
// TerminationFactory.CreateTermination) are expected to be
// non-blocking synchronous accept/reject calls whose asynchronous
// acknowledgement always arrives on a later, separate call — never
// reentrantly from inside the call itself.
func (s *Session) processOffer(desc *mrcp.SessionDescriptor) {
	s.mu.Lock()

	if s.ctx == nil {
		s.id = NewSessionID()
		s.table.Register(s.id, s)
		s.ctx = mpf.NewContext(s.profile.MediaFactory, s.profile.ContextCapacity, s)
		s.ctx.Diagnostic = func(sourceSlot, sinkSlot int, err error) {
			s.logger.Warn("connection construction diagnostic", Err(ErrCodecIncompatible(s.id, err)))
		}
		s.profile.Metrics.sessionCreated()
	}

	s.offerStarted = time.Now()
	s.offer = desc
	s.answer = mrcp.NewAnswerTemplate(desc)

	s.fire("offer")

	s.addPending(1)
	s.taskBuffer = append(s.taskBuffer, mpf.Task{Kind: mpf.ResetAssociationsTask, Context: s.ctx})

	if s.version == mrcp.VersionV1 {
		s.processV1Resources(desc)
	} else {
		s.processV2ControlMedia(desc)
	}

	s.processAudioMedia(desc.Audio)

	s.addPending(1)
	s.taskBuffer = append(s.taskBuffer, mpf.Task{Kind: mpf.ApplyTopologyTask, Context: s.ctx})
	s.flushTasks()

	s.mu.Unlock()

	s.checkCompletion()
}

// processV1Resources drives the v1 "resource" form of offer
// processing, one state-true resource entry per channel. Must be
// called with s.mu held.
func (s *Session) processV1Resources(desc *mrcp.SessionDescriptor) {
	for i, slot := range desc.Control {
		if slot == nil || !slot.ResourceState {
			continue
		}
		if s.channelByResource(slot.ResourceName) != nil {
			// Re-offering a resource already bound to a channel is a
			// no-op: leave the existing channel untouched.
			continue
		}
		s.openNewChannel(i, slot, false, desc.Audio)
	}
}

// processV2ControlMedia drives the v2 array-walk form of offer
// processing: position i in desc.Control modifies the existing channel
// at that position, or opens a new one past the end. Must be called
// with s.mu held.
func (s *Session) processV2ControlMedia(desc *mrcp.SessionDescriptor) {
	for i, slot := range desc.Control {
		if slot == nil {
			continue
		}
		if i < len(s.channels) {
			ch := s.channels[i]
			s.addPending(1)
			if !ch.Control.Modify(slot, s) {
				s.rejectControlSlot(i, ch.ResourceName, slot.CMID)
				s.completeSubrequestLocked()
			}
			continue
		}
		s.openNewChannel(i, slot, true, desc.Audio)
	}
}

// openNewChannel implements the common "create one, open its engine
// channel, add its termination to the context" sequence shared by the
// v1 and v2 branches, optionally preceded by the v2-only control-channel
// add. Must be called with s.mu held.
func (s *Session) openNewChannel(idx int, slot *mrcp.ControlMediaDescriptor, withControlAdd bool, audio []*mrcp.AudioMediaDescriptor) {
	engine, ok := s.profile.Resource(slot.ResourceName)
	if !ok {
		s.logger.Warn("offer references unknown resource", Err(ErrResourceUnknown(s.id, slot.ResourceName)))
		s.setAnswerStatus(mrcp.StatusNoSuchResource)
		s.rejectControlSlot(idx, slot.ResourceName, slot.CMID)
		return
	}

	ch := mrcp.NewMRCPChannel(s.id, slot.ResourceName, idx, slot.CMID, s.profile.ConnectionAgent)
	ch.OpenEngineChannel(engine, s)
	s.channels = append(s.channels, ch)

	// The engine's own termination may carry a narrower (or wider)
	// mode than the offer asked for; OR it into the audio entry this
	// channel will share an RTP leg with before that entry's mode is
	// used to build or modify the RTP side, so the resulting
	// association honors whatever the engine actually supports.
	orTerminationModeIntoAudio(audio, slot.CMID, ch.Engine.Termination)

	if withControlAdd {
		s.addPending(1)
		if !ch.Control.Add(slot, s) {
			s.logger.Warn("connection agent rejected channel add", Err(ErrControlChannelRejected(s.id, slot.ResourceName)))
			s.setAnswerStatus(mrcp.StatusUnacceptableResource)
			s.rejectControlSlot(idx, slot.ResourceName, slot.CMID)
			s.completeSubrequestLocked()
			return
		}
	}

	s.addPending(1)
	if !ch.Engine.Open(s) {
		s.logger.Warn("resource engine rejected channel open", Err(ErrResourceEngineUnavailable(s.id, slot.ResourceName)))
		s.setAnswerStatus(mrcp.StatusUnacceptableResource)
		s.rejectControlSlot(idx, slot.ResourceName, slot.CMID)
		s.completeSubrequestLocked()
		return
	}

	s.addPending(1)
	s.taskBuffer = append(s.taskBuffer, mpf.Task{Kind: mpf.AddTerminationTask, Context: s.ctx, Termination: ch.Engine.Termination})
}

// completeSubrequestLocked is completeSubrequest's body for call
// sites that already hold s.mu; it must be drained without
// re-entering the lock, so callers finish their own critical section
// and let processOffer's trailing checkCompletion() notice the zero
// crossing instead of recursing through the public completeSubrequest.
func (s *Session) completeSubrequestLocked() {
	s.pending.done()
	s.profile.Metrics.subrequestsChanged(-1)
}

func (s *Session) setAnswerStatus(status mrcp.SessionStatus) {
	if s.answer.Status == mrcp.StatusOK {
		s.answer.Status = status
	}
}

func (s *Session) rejectControlSlot(idx int, resourceName string, cmid int) {
	mrcp.RejectControlSlot(s.answer, idx, s.id, resourceName, cmid)
}

// orTerminationModeIntoAudio widens the mode of the audio-media entry
// sharing cmid's mid by OR-ing in term's own stream mode, so the RTP
// leg it will be associated with also carries every direction the
// engine termination supports instead of being built purely from what
// the offer's SDP direction said. OR-ing never removes a direction the
// offer asked for. Mirrors an
// answerer reconciling what it actually opened against what was asked
// for before the RTP side is ever touched.
func orTerminationModeIntoAudio(audio []*mrcp.AudioMediaDescriptor, cmid int, term *mpf.Termination) {
	if term == nil || term.Stream == nil {
		return
	}
	for _, desc := range audio {
		if desc == nil || desc.MID != cmid {
			continue
		}
		combined := directionToMode(desc.Direction) | term.Stream.Mode
		desc.Direction = directionFromMode(combined)
	}
}

// processAudioMedia modifies existing RTP slots and creates
// terminations for any additional audio media entries, adding
// associations for every channel sharing each slot's mid. Must be
// called with s.mu held.
func (s *Session) processAudioMedia(audio []*mrcp.AudioMediaDescriptor) {
	for i, desc := range audio {
		if desc == nil {
			continue
		}
		if i < len(s.slots) {
			slot := s.slots[i]
			s.addPending(1)
			s.taskBuffer = append(s.taskBuffer, mpf.Task{
				Kind: mpf.ModifyTerminationTask, Context: s.ctx, Termination: slot.Termination,
				Descriptor: &mpf.TerminationDescriptor{Remote: desc.Codec, Mode: directionToMode(desc.Direction)},
			})
			s.addAssociationsForSlot(slot)
			continue
		}

		term, local, err := s.profile.TerminationFactory.CreateTermination(desc.Codec, directionToMode(desc.Direction))
		if err != nil {
			s.profile.Metrics.portPoolExhausted()
			s.setAnswerStatus(mrcp.StatusUnavailableResource)
			s.answer.Audio[i] = &mrcp.AudioMediaDescriptor{Port: 0}
			portErr := ErrPortPoolExhausted(s.id)
			portErr.Cause = err
			s.logger.Warn("RTP termination factory failed", Err(portErr))
			continue
		}

		slot := &rtpSlot{Termination: term, ID: i, MID: desc.MID}
		s.slots = append(s.slots, slot)
		s.answer.Audio[i] = local

		// The most recently created RTP termination's local descriptor
		// stamps the session-wide origin/ip/ext_ip the answer carries:
		// last writer wins across however many new audio slots this
		// offer opens.
		s.answer.IP = local.IP
		s.answer.Origin = local.IP
		if local.ExtIP != "" {
			s.answer.ExtIP = local.ExtIP
		}

		s.addPending(1)
		s.taskBuffer = append(s.taskBuffer, mpf.Task{
			Kind: mpf.AddTerminationTask, Context: s.ctx, Termination: term,
			Descriptor: &mpf.TerminationDescriptor{Remote: desc.Codec, Mode: directionToMode(desc.Direction)},
		})
		s.addAssociationsForSlot(slot)
	}
}

func (s *Session) addAssociationsForSlot(slot *rtpSlot) {
	for _, ch := range s.channels {
		if ch.CMID != slot.MID || ch.Engine == nil || ch.Engine.Termination == nil {
			continue
		}
		s.addPending(1)
		s.taskBuffer = append(s.taskBuffer, mpf.Task{
			Kind: mpf.AddAssociationTask, Context: s.ctx,
			Termination: slot.Termination, Termination2: ch.Engine.Termination,
		})
	}
}

// directionToMode is directionFromMode's inverse (rtpfactory.go):
// an offered SDP direction constrains which way the termination we
// build for it is allowed to carry media.
func directionToMode(d sdp.Direction) mpf.StreamMode {
	switch d {
	case sdp.DirectionSendRecv:
		return mpf.ModeSendReceive
	case sdp.DirectionSendOnly:
		return mpf.ModeSend
	case sdp.DirectionRecvOnly:
		return mpf.ModeReceive
	default:
		return mpf.ModeNone
	}
}
