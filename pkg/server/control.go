package server

import "github.com/pgaval/mrcp-server/pkg/mrcp"

// processControl routes an inbound control message to its channel's
// state machine. channel is the direct reference when the caller
// already resolved one (e.g. the
// v2 transport binds channel-id to MRCPChannel itself); otherwise the
// message's own channel-id is resolved against this session's
// channels by resource name.
func (s *Session) processControl(channel *mrcp.MRCPChannel, msg *mrcp.Message) {
	s.mu.Lock()
	ch := channel
	if ch == nil {
		if _, resource, ok := msg.Channel(); ok {
			ch = s.channelByResource(resource)
		}
	}
	s.mu.Unlock()

	if ch == nil || ch.StateMachine == nil {
		s.logger.Warn("control message for unknown channel", String("channel", msg.ChannelID))
		s.completeActive()
		return
	}

	if err := ch.StateMachine.HandleMessage(msg); err != nil {
		s.logger.Warn("control message rejected", String("channel", msg.ChannelID), Err(err))
		s.completeActive()
	}
}

// OnDispatch implements mrcp.Dispatcher: a request is handed to its
// resource engine for asynchronous processing, while a response or
// event goes back out to the client through sendControlMessage (the
// control leg on v2, the signaling leg on v1). A response
// also ends this control exchange's turn at the active slot — the
// request that provoked it is what's been occupying it since
// processControl returned without completing it.
func (s *Session) OnDispatch(msg *mrcp.Message) {
	switch msg.Type {
	case mrcp.MessageRequest:
		s.mu.Lock()
		var ch *mrcp.MRCPChannel
		if _, resource, ok := msg.Channel(); ok {
			ch = s.channelByResource(resource)
		}
		s.mu.Unlock()
		if ch == nil || ch.Engine == nil || !ch.Engine.Opened() {
			s.logger.Warn("request for channel with no open engine leg", String("channel", msg.ChannelID))
			return
		}
		ch.Engine.RequestProcess(msg)
	case mrcp.MessageResponse:
		s.sendControlMessage(msg)
		s.completeActive()
	case mrcp.MessageEvent:
		s.sendControlMessage(msg)
	}
}

// OnDeactivate implements mrcp.Dispatcher: a channel's state machine
// has finished deactivating, which is one of terminate's fanned-out
// sub-requests.
func (s *Session) OnDeactivate() {
	s.completeSubrequest()
}

// sendControlMessage delivers a response/event over whichever leg
// this session's version uses: the control channel for v2, the
// signaling response for v1. v2 resolves the owning channel and sends
// over its own control leg; v1, and any
// v2 message whose channel can't be resolved or whose control leg
// rejects the send, falls back to the signaling response path so a
// response is never silently dropped.
func (s *Session) sendControlMessage(msg *mrcp.Message) {
	s.mu.Lock()
	sessionID := s.id
	version := s.version
	var ch *mrcp.MRCPChannel
	if _, resource, ok := msg.Channel(); ok {
		ch = s.channelByResource(resource)
	}
	s.mu.Unlock()

	if version == mrcp.VersionV2 && ch != nil && ch.Control.Send(msg) {
		return
	}
	s.agent.ControlMessage(sessionID, msg)
}
